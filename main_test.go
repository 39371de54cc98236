package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	auth "Inertia/internal/auth"
	live "Inertia/internal/calc/live"
	opening "Inertia/internal/calc/opening"
	config "Inertia/internal/config"
	model "Inertia/internal/model"
	repo "Inertia/internal/repo"
	section "Inertia/internal/section"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, tokenKey string) (*httptest.Server, *repo.MemoryResultRepository) {
	t.Helper()
	store := repo.NewMemoryResultRepository()
	hub := live.NewHub()
	calc := &opening.Calculator{
		Catalog:   section.MustDefault(),
		Predictor: model.PredictorFunc(func(context.Context, []float64) (float64, error) { return 0.9, nil }),
		Repo:      store,
		Notifier:  hub,
	}
	cfg := config.Config{TokenKey: tokenKey, RateLimit: 1000, RateBurst: 1000}

	r := mux.NewRouter()
	HandleList(r, cfg, calc, hub)
	srv := httptest.NewServer(CORS(r))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	return resp
}

const calcBody = `{"length_mm":1800,"opening_diameter_mm":240,"section":"IPE240","r":1.5}`

func TestRoutes(t *testing.T) {
	srv, store := newServer(t, "")

	assert.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/api/sections", "", "").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, "POST", srv.URL+"/api/calc", calcBody, "").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/api/results", "", "").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/api/results/export/xlsx", "", "").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/metrics", "", "").StatusCode)
	assert.Equal(t, http.StatusOK, do(t, "POST", srv.URL+"/api/recommend/opening", `{"section":"IPE240","r":1.5}`, "").StatusCode)
	assert.Equal(t, http.StatusNoContent, do(t, "OPTIONS", srv.URL+"/api/calc", "", "").StatusCode)

	logged, _ := store.List(context.Background())
	assert.Len(t, logged, 1)

	assert.Equal(t, http.StatusNoContent, do(t, "DELETE", srv.URL+"/api/results", "", "").StatusCode)
	logged, _ = store.List(context.Background())
	assert.Empty(t, logged)
}

func TestRoutes_TokenRequired(t *testing.T) {
	srv, store := newServer(t, "secret")

	assert.Equal(t, http.StatusUnauthorized, do(t, "POST", srv.URL+"/api/calc", calcBody, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, do(t, "DELETE", srv.URL+"/api/results", "", "").StatusCode)
	// reads stay open
	assert.Equal(t, http.StatusOK, do(t, "GET", srv.URL+"/api/results", "", "").StatusCode)

	tok, err := (&auth.TokenEnv{JWTkey: []byte("secret")}).IssueToken("test", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(t, "POST", srv.URL+"/api/calc", calcBody, tok).StatusCode)

	logged, _ := store.List(context.Background())
	assert.Len(t, logged, 1)
}
