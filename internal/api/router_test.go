package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Conceptual-Machines/soundcard-api/internal/config"
	"github.com/Conceptual-Machines/soundcard-api/internal/database"
	"github.com/Conceptual-Machines/soundcard-api/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct{}

func (stubGenerator) Generate(_ context.Context, cfg *models.GenerationConfig) (*models.SoundCard, error) {
	return &models.SoundCard{
		Type:   cfg.CardType,
		Record: map[string]any{"Keys": []any{map[string]any{"note": "C4", "order": 1}}},
	}, nil
}

func newTestRouter(t *testing.T, authMode string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.Connect("file:router_" + authMode + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{Environment: "test", LLMModel: "gpt-4o-mini", AuthMode: authMode}
	return SetupRouter(db, cfg, "test", stubGenerator{}, nil)
}

func serve(router *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouterServesGeneration(t *testing.T) {
	router := newTestRouter(t, "none")
	body := `{"cardType": "Single Keys", "numberOfKeysToPlay": 4}`

	for _, path := range []string{"/api/generate-card", "/api/v1/cards/generate"} {
		w := serve(router, http.MethodPost, path, body, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"Keys"`, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}

	w := serve(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterAuthModes(t *testing.T) {
	open := newTestRouter(t, "none")
	w := serve(open, http.MethodGet, "/api/v1/cards", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	gated := newTestRouter(t, "gateway")
	w = serve(gated, http.MethodGet, "/api/v1/cards", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(gated, http.MethodGet, "/api/v1/cards", "", map[string]string{"X-User-ID": "user-1"})
	assert.Equal(t, http.StatusOK, w.Code)

	// generation stays open behind the gateway
	w = serve(gated, http.MethodPost, "/api/generate-card", `{"cardType": "Single Keys", "numberOfKeysToPlay": 4}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
