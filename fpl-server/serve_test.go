package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fpl-strategy-mcp/internal/config"
	"fpl-strategy-mcp/internal/store"
)

func TestWithAuth(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	tests := []struct {
		name   string
		apiKey string
		header map[string]string
		want   int
	}{
		{"Disabled", "", nil, http.StatusNoContent},
		{"Missing", "secret", nil, http.StatusUnauthorized},
		{"Wrong", "secret", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"Header", "secret", map[string]string{"X-API-Key": "secret"}, http.StatusNoContent},
		{"Bearer", "secret", map[string]string{"Authorization": "Bearer secret"}, http.StatusNoContent},
		{"BearerLowercase", "secret", map[string]string{"Authorization": "bearer  secret "}, http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			withAuth(tc.apiKey, "X-API-Key", ok)(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestMux(t *testing.T) {
	a := testApp(t, func(c *config.Config) { c.Server.APIKey = "secret" })
	srv := httptest.NewServer(newMux(a))
	defer srv.Close()

	get := func(path string, key string) (int, string) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(b)
	}

	code, _ := get("/health", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := get("/health", "secret")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	code, body = get("/tools", "secret")
	require.Equal(t, http.StatusOK, code)
	var tools struct {
		Tools []toolInfo `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &tools))
	var names []string
	for _, ti := range tools.Tools {
		names = append(names, ti.Name)
	}
	assert.Equal(t, []string{
		"plan_transfers", "plan_chips", "fixture_outlook",
		"cycle_anomalies", "player_projection", "bookmark_chip",
	}, names)

	_, err := a.buildTransferPlan(PlanTransfersArgs{EntryID: 77})
	require.NoError(t, err)
	code, body = get("/metrics", "secret")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "fpl_planner_plans_total")
	assert.Contains(t, body, "fpl_planner_cache_misses_total")
}

func TestRefresh(t *testing.T) {
	fpl := t.TempDir()
	seedRaw(t, fpl)
	files := map[string]string{
		"/bootstrap-static/":       store.BootstrapPath,
		"/fixtures/":               store.FixturesPath,
		"/entry/77/history/":       store.HistoryPath(77),
		"/entry/77/event/4/picks/": store.PicksPath(77, 4),
	}
	var hits []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rel, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		hits = append(hits, r.URL.Path)
		b, err := os.ReadFile(filepath.Join(fpl, rel))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Write(b)
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.Server.RawRoot = t.TempDir()
	cfg.Server.BaseURL = upstream.URL
	cfg.Server.RateLimit = 1000
	a, err := newApp(&cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.refresh(context.Background(), []int{77}))
	assert.Len(t, hits, 4)
	assert.True(t, a.store.Exists(store.PicksPath(77, 4)))
	assert.Equal(t, 0, a.cache.Len())

	b, err := a.buildTransferPlan(PlanTransfersArgs{EntryID: 77})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `"in_id": 20`))
}

func TestRefresh_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	cfg := config.Default()
	cfg.Server.RawRoot = t.TempDir()
	cfg.Server.BaseURL = upstream.URL
	cfg.Server.RateLimit = 1000
	a, err := newApp(&cfg)
	require.NoError(t, err)
	defer a.Close()

	err = a.refresh(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bootstrap-static")

	_, body := scrapeMetrics(t, a)
	assert.Contains(t, body, `fpl_planner_snapshot_refreshes_total{outcome="error"} 1`)
}

func scrapeMetrics(t *testing.T, a *app) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	a.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Code, rec.Body.String()
}
