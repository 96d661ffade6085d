package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectorFor(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "postgres://user:pw@localhost:5432/cards", want: "postgres"},
		{url: "postgresql://localhost/cards", want: "postgres"},
		{url: "", want: "sqlite"},
		{url: "sqlite://tmp/cards.db", want: "sqlite"},
		{url: "file::memory:", want: "sqlite"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			dialector, name := dialectorFor(tt.url)
			assert.Equal(t, tt.want, name)
			assert.Equal(t, tt.want, dialector.Name())
		})
	}
}

func TestConnectAndMigrateSQLite(t *testing.T) {
	db, err := Connect("file:migrate_test?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	assert.True(t, db.Migrator().HasTable("saved_cards"))
}
