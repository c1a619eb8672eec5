package dashboard

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reportlane/reportlane/internal/layout"
	"github.com/reportlane/reportlane/internal/layoutcache"
	"github.com/reportlane/reportlane/internal/report"
	"github.com/reportlane/reportlane/internal/timeline"
)

const testCode = "12345678"

const sampleBatch = `{
	"MatchID": 7697260946,
	"TeamReports": 2,
	"EnemyReports": 1,
	"Reports": [
		{"Time": "12:30", "Team": "ENEMY", "Slot": 6, "Hero": "Pudge", "TargetSlot": 1, "TargetSteamID": 100, "TargetHero": "Invoker"},
		{"Time": "03:05", "Team": "FRIENDLY", "Slot": 2, "Hero": "Lion", "TargetSlot": 1, "TargetSteamID": 100, "TargetHero": "Invoker"},
		{"Time": "03:05", "Team": "FRIENDLY", "Slot": 3, "Hero": "Axe", "TargetSlot": 4, "TargetSteamID": 400, "TargetHero": "Sniper"}
	]
}`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cache layoutcache.Cache) *Server {
	t.Helper()
	logger := quietLogger()
	store, err := report.NewStore(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return NewServer(Options{
		Repo:     store,
		Cache:    cache,
		CacheTTL: time.Minute,
		Auth:     NewAuth(testCode),
		Settings: Settings{Canvas: timeline.DefaultCanvas(), Params: layout.DefaultParams()},
		Version:  "test",
		Logger:   logger,
	})
}

func do(t *testing.T, h http.Handler, method, target, body string, code bool) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if code {
		req.Header.Set("Authorization", "Bearer "+testCode)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func seed(t *testing.T, h http.Handler) {
	t.Helper()
	w := do(t, h, "POST", "/api/matches/7697260946/reports", sampleBatch, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestServer_Health(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	w := do(t, h, "GET", "/health", "", false)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestServer_AddRequiresAccessCode(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	w := do(t, h, "POST", "/api/matches/1/reports", sampleBatch, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("DELETE", "/api/matches/1", nil)
	req.Header.Set(accessCodeHeader, "wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_AddAndListReports(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	w := do(t, h, "POST", "/api/matches/7697260946/reports", sampleBatch, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.EqualValues(t, 3, created["count"])
	assert.EqualValues(t, 2, created["team_reports"])
	assert.EqualValues(t, 1, created["enemy_reports"])

	w = do(t, h, "GET", "/api/matches/7697260946/reports", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []report.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	require.Len(t, reports, 3)
	assert.Equal(t, "Lion", reports[0].Hero)

	w = do(t, h, "GET", "/api/matches/7697260946/reports?player=steamid_400", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "Axe", reports[0].Hero)

	w = do(t, h, "GET", "/api/matches", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	var matches []report.MatchSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &matches))
	require.Len(t, matches, 1)
	assert.Equal(t, 3, matches[0].Total)
}

func TestServer_EmptyListsAreArrays(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	w := do(t, h, "GET", "/api/matches", "", false)
	assert.JSONEq(t, "[]", w.Body.String())
	w = do(t, h, "GET", "/api/matches/5/reports", "", false)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestServer_AddRejectsBadInput(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	tests := []struct {
		name, target, body string
	}{
		{"bad id", "/api/matches/abc/reports", sampleBatch},
		{"negative id", "/api/matches/-4/reports", sampleBatch},
		{"mismatched match", "/api/matches/99/reports", sampleBatch},
		{"malformed", "/api/matches/1/reports", `{"Reports": [`},
		{"empty batch", "/api/matches/1/reports", `[]`},
		{"bad clock", "/api/matches/1/reports", `[{"Time": "3m", "Team": "ENEMY"}]`},
		{"bad team", "/api/matches/1/reports", `[{"Time": "03:00", "Team": "RADIANT"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", tt.target, tt.body, true)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestServer_QueryValidation(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/matches?limit=0", "", false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/matches?limit=x", "", false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/matches/1/reports?player=slot_12", "", false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, "GET", "/api/matches/1/timeline?player=bob", "", false).Code)
}

func TestServer_Timeline(t *testing.T) {
	h := newTestServer(t, layoutcache.NewMemory(time.Minute, time.Minute)).Handler()
	seed(t, h)

	w := do(t, h, "GET", "/api/matches/7697260946/timeline", "", false)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "miss", w.Header().Get(layoutCacheHeader))

	var chart timeline.Chart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.Equal(t, 1200.0, chart.Width)
	assert.Equal(t, 60.0, chart.TimeRange)
	require.Len(t, chart.Icons, 3)

	lion, axe, pudge := chart.Icons[0], chart.Icons[1], chart.Icons[2]
	assert.Equal(t, "Lion", lion.Report.Hero)
	assert.Equal(t, layout.LaneA, lion.Lane)
	assert.InDelta(t, 135.5, lion.X, 1e-9)
	assert.InDelta(t, 70, lion.Y, 1e-9)
	assert.InDelta(t, 135.5, axe.X, 1e-9)
	assert.InDelta(t, 115, axe.Y, 1e-9)
	assert.Equal(t, "Sniper", axe.Label)
	assert.Equal(t, layout.LaneB, pudge.Lane)
	assert.InDelta(t, 190, pudge.Y, 1e-9)
	assert.Empty(t, chart.Overlaps)

	w = do(t, h, "GET", "/api/matches/7697260946/timeline", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hit", w.Header().Get(layoutCacheHeader))

	w = do(t, h, "GET", "/api/matches/7697260946/timeline?player=slot_4", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get(layoutCacheHeader))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	require.Len(t, chart.Icons, 1)
	assert.Equal(t, "Axe", chart.Icons[0].Report.Hero)
}

func TestServer_TimelineWidth(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	seed(t, h)

	w := do(t, h, "GET", "/api/matches/7697260946/timeline?width=1600", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bypass", w.Header().Get(layoutCacheHeader))
	var chart timeline.Chart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.Equal(t, 1600.0, chart.Width)

	w = do(t, h, "GET", "/api/matches/7697260946/timeline?width=300", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.Equal(t, float64(timeline.MinWidth), chart.Width)

	for _, bad := range []string{"abc", "-5", "0", "NaN", "Inf"} {
		w = do(t, h, "GET", "/api/matches/7697260946/timeline?width="+bad, "", false)
		assert.Equal(t, http.StatusBadRequest, w.Code, "width=%s", bad)
	}
}

func TestServer_TimelineUnknownMatch(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	w := do(t, h, "GET", "/api/matches/42/timeline", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_UpdateSettings(t *testing.T) {
	srv := newTestServer(t, layoutcache.NewMemory(time.Minute, time.Minute))
	h := srv.Handler()
	seed(t, h)

	w := do(t, h, "GET", "/api/matches/7697260946/timeline", "", false)
	require.Equal(t, "miss", w.Header().Get(layoutCacheHeader))

	canvas := timeline.DefaultCanvas()
	canvas.TeamRegionHeight = 200
	srv.UpdateSettings(Settings{Canvas: canvas, Params: layout.DefaultParams()})
	assert.Equal(t, 200.0, srv.Settings().Canvas.TeamRegionHeight)

	w = do(t, h, "GET", "/api/matches/7697260946/timeline", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "miss", w.Header().Get(layoutCacheHeader), "new geometry is a new cache key")

	var chart timeline.Chart
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &chart))
	assert.Equal(t, 520.0, chart.Height)
}

func TestServer_DeleteMatch(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	seed(t, h)

	w := do(t, h, "DELETE", "/api/matches/7697260946", "", true)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "DELETE", "/api/matches/7697260946", "", true)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "GET", "/api/matches/7697260946/timeline", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Metrics(t *testing.T) {
	h := newTestServer(t, layoutcache.NewMemory(time.Minute, time.Minute)).Handler()
	seed(t, h)
	do(t, h, "GET", "/api/matches/7697260946/timeline", "", false)
	do(t, h, "GET", "/api/matches/7697260946/timeline", "", false)

	w := do(t, h, "GET", "/metrics", "", false)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "reportlane_reports_ingested_total 3")
	assert.Contains(t, body, `reportlane_layout_cache_requests_total{result="hit"} 1`)
	assert.Contains(t, body, `reportlane_layout_cache_requests_total{result="miss"} 1`)
	assert.Contains(t, body, "reportlane_layout_duration_seconds_count 1")
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, nil).Handler()
	w := do(t, h, "PUT", "/api/matches/1/timeline", "", true)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_ListenAndShutdown(t *testing.T) {
	srv := newTestServer(t, nil)
	port, err := srv.Listen("127.0.0.1", 0)
	require.NoError(t, err)
	assert.NotZero(t, port)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, srv.Shutdown(t.Context()))
	assert.ErrorIs(t, <-done, http.ErrServerClosed)
}

func TestServer_StartBeforeListen(t *testing.T) {
	assert.Error(t, newTestServer(t, nil).Start())
}
