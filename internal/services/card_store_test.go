package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Conceptual-Machines/soundcard-api/internal/database"
	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *CardStore {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return NewCardStore(db)
}

func chordRecord(name string) map[string]any {
	return map[string]any{
		"Chords": []any{
			map[string]any{"name": "C Major", "notes": []any{"C4", "E4", "G4"}, "order": float64(1)},
		},
		"Sound Card Name": name,
	}
}

func TestCardStoreSaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Save(ctx, "user-1", models.CardTypeChords, chordRecord("First"))
	require.NoError(t, err)
	assert.Len(t, first.ID, 36)
	assert.Equal(t, "First", first.Name)

	time.Sleep(10 * time.Millisecond)
	_, err = store.Save(ctx, "user-1", models.CardTypeChords, chordRecord("Second"))
	require.NoError(t, err)
	_, err = store.Save(ctx, "user-2", models.CardTypeChords, chordRecord("Other"))
	require.NoError(t, err)

	cards, err := store.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "Second", cards[0].Name)
	assert.Equal(t, "First", cards[1].Name)

	var record map[string]any
	require.NoError(t, json.Unmarshal(cards[1].Card, &record))
	assert.Equal(t, chordRecord("First"), record)
}

func TestCardStoreDeleteIsScopedToOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, "user-1", models.CardTypeChords, chordRecord("Mine"))
	require.NoError(t, err)

	assert.ErrorIs(t, store.Delete(ctx, "user-2", saved.ID), ErrCardNotFound)

	_, err = store.Get(ctx, "user-1", saved.ID)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "user-1", saved.ID))
	assert.ErrorIs(t, store.Delete(ctx, "user-1", saved.ID), ErrCardNotFound)

	_, err = store.Get(ctx, "user-1", saved.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)
}
