package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/soundcard-api/internal/api/middleware"
	"github.com/Conceptual-Machines/soundcard-api/internal/database"
	"github.com/Conceptual-Machines/soundcard-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSavedCardRouter(t *testing.T) *gin.Engine {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewSavedCardHandler(services.NewCardStore(db))
	cards := router.Group("/api/v1/cards", middleware.GatewayAuth())
	cards.GET("", handler.List)
	cards.POST("", handler.Save)
	cards.GET("/:id", handler.Get)
	cards.DELETE("/:id", handler.Delete)
	return router
}

func doAs(t *testing.T, router *gin.Engine, user, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const savedKeysCard = `{"cardType": "single_keys", "card": {"Keys": [{"note": "C4", "order": 1}, {"note": "E4", "order": 2}], "Sound Card Name": "Climb"}}`

func TestSavedCardsRoundTrip(t *testing.T) {
	router := setupSavedCardRouter(t)

	w := doAs(t, router, "user-1", http.MethodPost, "/api/v1/cards", savedKeysCard)
	require.Equal(t, http.StatusCreated, w.Code)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	assert.Equal(t, "Climb", saved["name"])
	assert.Equal(t, "Single Keys", saved["card_type"])
	id, _ := saved["id"].(string)
	require.NotEmpty(t, id)

	w = doAs(t, router, "user-1", http.MethodGet, "/api/v1/cards", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Cards []map[string]any `json:"cards"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Count)
	assert.Equal(t, id, listed.Cards[0]["id"])

	w = doAs(t, router, "user-2", http.MethodGet, "/api/v1/cards", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":0`)

	w = doAs(t, router, "user-1", http.MethodGet, "/api/v1/cards/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	var fetched map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, id, fetched["id"])
	assert.Len(t, fetched["card"].(map[string]any)["Keys"], 2)

	w = doAs(t, router, "user-2", http.MethodGet, "/api/v1/cards/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doAs(t, router, "user-2", http.MethodDelete, "/api/v1/cards/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doAs(t, router, "user-1", http.MethodDelete, "/api/v1/cards/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doAs(t, router, "user-1", http.MethodGet, "/api/v1/cards/"+id, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSavedCardsRequireGatewayUser(t *testing.T) {
	router := setupSavedCardRouter(t)

	w := doAs(t, router, "", http.MethodGet, "/api/v1/cards", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "X-User-ID")
}

func TestSaveCardRejectsMissingPattern(t *testing.T) {
	router := setupSavedCardRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"cardType": "Arpeggio", "card": {"Keys": [{"note": "C4", "order": 1}]}}`},
		{"pattern of other type", `{"cardType": "Chords", "card": {"Keys": [{"note": "C4", "order": 1}]}}`},
		{"empty pattern", `{"cardType": "Single Keys", "card": {"Keys": []}}`},
		{"missing card", `{"cardType": "Single Keys"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doAs(t, router, "user-1", http.MethodPost, "/api/v1/cards", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
