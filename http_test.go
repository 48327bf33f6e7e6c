package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	board   *Board
	store   *fakeStore
	handler http.Handler
}

func newAPIFixture(t *testing.T, withStore bool) *apiFixture {
	t.Helper()
	f := &apiFixture{board: newTestBoard(nil)}
	cfg := HTTPConfig{
		Log:   testLogger(),
		Board: f.board,
		Run:   NewRunContext(time.UnixMilli(1_700_000_000_000)),
		M:     f.board.metrics,
	}
	if withStore {
		f.store = &fakeStore{}
		cfg.Store = f.store
	}
	f.handler = NewHandler(cfg)
	return f
}

func (f *apiFixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func dataPairs(t *testing.T, body map[string]any) []string {
	t.Helper()
	data, ok := body["data"].([]any)
	require.True(t, ok, "data must be a list")
	out := make([]string, len(data))
	for i, row := range data {
		out[i] = row.(map[string]any)["pair"].(string)
	}
	return out
}

func TestTokensUsesTableStateByDefault(t *testing.T) {
	f := newAPIFixture(t, false)

	rec, body := f.do(t, http.MethodGet, "/api/tokens", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, []string{"XYZ/USDT", "ABC/USDT"}, dataPairs(t, body))
	assert.Equal(t, float64(2), body["count"])
	assert.Equal(t, "new", body["category"])
	assert.Equal(t, map[string]any{"by": "volume", "dir": "desc"}, body["sort"])
}

func TestTokensQueryParams(t *testing.T) {
	f := newAPIFixture(t, false)

	tests := []struct {
		target string
		want   []string
		sort   map[string]any
	}{
		{"/api/tokens?category=all&sort=price&dir=asc", []string{"GHI/USDT", "XYZ/USDT", "DEF/USDT", "ABC/USDT"}, map[string]any{"by": "price", "dir": "asc"}},
		{"/api/tokens?category=all&sort=price", []string{"ABC/USDT", "DEF/USDT", "XYZ/USDT", "GHI/USDT"}, map[string]any{"by": "price", "dir": "desc"}},
		{"/api/tokens?category=all&sort=price&dir=none", []string{"ABC/USDT", "GHI/USDT", "DEF/USDT", "XYZ/USDT"}, map[string]any{"by": "", "dir": ""}},
		{"/api/tokens?category=ALL&q=usdt&sort=marketCap&dir=asc", []string{"DEF/USDT", "XYZ/USDT", "ABC/USDT", "GHI/USDT"}, map[string]any{"by": "marketCap", "dir": "asc"}},
		{"/api/tokens?category=final", []string{"GHI/USDT"}, map[string]any{"by": "volume", "dir": "desc"}},
		{"/api/tokens?category=all&q=zz", []string{}, map[string]any{"by": "volume", "dir": "desc"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec, body := f.do(t, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, dataPairs(t, body))
			assert.Equal(t, tt.sort, body["sort"])
		})
	}
}

func TestTokensDisplay(t *testing.T) {
	f := newAPIFixture(t, false)

	_, body := f.do(t, http.MethodGet, "/api/tokens?category=new&display=1", "")

	row := body["data"].([]any)[0].(map[string]any)
	display := row["display"].(map[string]any)
	assert.Equal(t, "$50K", display["volume"])
	assert.Equal(t, "+0.00%", display["change24h"])
}

func TestTokensBadInput(t *testing.T) {
	f := newAPIFixture(t, false)

	for _, target := range []string{
		"/api/tokens?category=hot",
		"/api/tokens?dir=sideways",
		"/api/tokens?spark=-1",
		"/api/tokens?spark=x",
	} {
		rec, body := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, body["error"], target)
	}
}

func TestTokensSparkline(t *testing.T) {
	f := newAPIFixture(t, true)
	f.store.ticks = []Tick{
		{Pair: "XYZ/USDT", Price: 1.9},
		{Pair: "XYZ/USDT", Price: 2.0},
		{Pair: "XYZ/USDT", Price: 2.1},
	}

	_, body := f.do(t, http.MethodGet, "/api/tokens?spark=2", "")

	rows := body["data"].([]any)
	xyz := rows[0].(map[string]any)
	assert.Equal(t, "XYZ/USDT", xyz["pair"])
	assert.Equal(t, []any{2.0, 2.1}, xyz["sparkline"])
	_, has := rows[1].(map[string]any)["sparkline"]
	assert.False(t, has, "no ticks, no sparkline")
}

func TestTableEndpoints(t *testing.T) {
	f := newAPIFixture(t, false)

	_, body := f.do(t, http.MethodGet, "/api/table", "")
	assert.Equal(t, map[string]any{"category": "new", "sortBy": "volume", "sortDir": "desc"}, body)

	rec, body := f.do(t, http.MethodPost, "/api/table/sort", `{"column":"volume"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "asc", body["sortDir"])
	assert.Equal(t, "Sorted by volume, ascending", body["announcement"])

	_, body = f.do(t, http.MethodPost, "/api/table/sort", `{"column":"volume"}`)
	assert.Equal(t, "", body["sortBy"])
	assert.Equal(t, "Sorting cleared", body["announcement"])

	_, body = f.do(t, http.MethodPost, "/api/table/sort", `{"column":"price"}`)
	assert.Equal(t, "price", body["sortBy"])
	assert.Equal(t, "desc", body["sortDir"])

	rec, body = f.do(t, http.MethodPost, "/api/table/category", `{"category":"migrated"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "migrated", body["category"])

	_, body = f.do(t, http.MethodGet, "/api/tokens", "")
	assert.Equal(t, []string{"DEF/USDT"}, dataPairs(t, body))
}

func TestTableEndpointsBadInput(t *testing.T) {
	f := newAPIFixture(t, false)

	tests := []struct {
		target, body string
	}{
		{"/api/table/category", `{"category":"hot"}`},
		{"/api/table/category", `not json`},
		{"/api/table/sort", `{"column":"  "}`},
		{"/api/table/sort", `{`},
	}
	for _, tt := range tests {
		rec, body := f.do(t, http.MethodPost, tt.target, tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.body)
		assert.NotEmpty(t, body["error"])
	}
	assert.Equal(t, DefaultTableState(), f.board.Table(), "rejected requests leave state alone")

	rec, _ := f.do(t, http.MethodGet, "/api/table/sort", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStreamStateEndpoint(t *testing.T) {
	f := newAPIFixture(t, false)

	_, body := f.do(t, http.MethodGet, "/api/stream/state", "")
	assert.Equal(t, false, body["connected"])
	assert.Nil(t, body["lastMessageTs"])

	f.board.SetConnected(true)
	f.board.ApplyPrice(PriceUpdate{Pair: "ABC/USDT", Price: 30, TsMs: 99})

	_, body = f.do(t, http.MethodGet, "/api/stream/state", "")
	assert.Equal(t, true, body["connected"])
	assert.Equal(t, float64(99), body["lastMessageTs"])
	delta := body["deltas"].(map[string]any)["ABC/USDT"].(map[string]any)
	assert.Equal(t, "up", delta["direction"])
	assert.Equal(t, float64(30), delta["price"])
}

func TestTicksEndpoint(t *testing.T) {
	f := newAPIFixture(t, true)
	f.store.ticks = []Tick{{Pair: "ABC/USDT", Price: 1, TsMs: 1}, {Pair: "ABC/USDT", Price: 2, TsMs: 2}}

	rec, body := f.do(t, http.MethodGet, "/api/ticks?pair=abc/usdt&limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ABC/USDT", body["pair"])
	assert.Equal(t, "fake", body["backend"])
	assert.Equal(t, float64(1), body["count"])
	ticks := body["ticks"].([]any)
	assert.Equal(t, float64(2), ticks[0].(map[string]any)["price"])

	rec, _ = f.do(t, http.MethodGet, "/api/ticks", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicksEndpointWithoutStore(t *testing.T) {
	f := newAPIFixture(t, false)

	rec, body := f.do(t, http.MethodGet, "/api/ticks?pair=ABC/USDT", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, errNoStore.Error(), body["error"])
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t, true)
	f.board.ApplyPrice(PriceUpdate{Pair: "ABC/USDT", Price: 30})

	rec, body := f.do(t, http.MethodGet, "/health", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["feed"].(map[string]any)["ticks_total"])
	assert.Equal(t, map[string]any{"enabled": true, "backend": "fake"}, body["tick_store"])
	run := body["run"].(map[string]any)
	assert.NotEmpty(t, run["run_id"])
	assert.Equal(t, float64(1_700_000_000_000), run["run_start_ms"])
}
