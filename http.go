package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tokenboard/ordering"
)

const maxSpark = 200

type HTTPConfig struct {
	Addr  string
	Log   *Logger
	Board *Board
	Store TickStore // optional
	Run   RunContext
	M     *Metrics
}

type HTTPServer struct {
	cfg HTTPConfig
}

func NewHTTPServer(cfg HTTPConfig) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      NewHandler(cfg),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

// NewHandler builds the API mux; tests drive it through httptest.
func NewHandler(cfg HTTPConfig) http.Handler {
	mux := http.NewServeMux()
	hs := &HTTPServer{cfg: cfg}

	mux.HandleFunc("GET /health", hs.handleHealth)

	mux.HandleFunc("GET /api/tokens", hs.handleTokens)
	mux.HandleFunc("GET /api/table", hs.handleTable)
	mux.HandleFunc("POST /api/table/sort", hs.handleTableSort)
	mux.HandleFunc("POST /api/table/category", hs.handleTableCategory)
	mux.HandleFunc("GET /api/stream/state", hs.handleStreamState)
	mux.HandleFunc("GET /api/ticks", hs.handleTicks)

	return mux
}

func (hs *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := hs.cfg.M.Snapshot()

	snap["run"] = map[string]any{
		"run_id":       hs.cfg.Run.ID,
		"run_start":    hs.cfg.Run.Start.Format(time.RFC3339Nano),
		"run_start_ms": hs.cfg.Run.Start.UnixMilli(),
	}
	if hs.cfg.Store != nil {
		snap["tick_store"] = map[string]any{"enabled": true, "backend": hs.cfg.Store.Name()}
	} else {
		snap["tick_store"] = map[string]any{"enabled": false}
	}
	snap["stream"] = map[string]any{"connected": hs.cfg.Board.StreamState().Connected}

	writeJSON(w, snap)
}

type sortInfo struct {
	By  string             `json:"by"`
	Dir ordering.Direction `json:"dir"`
}

type tokensResponse struct {
	Data     []TokenRow `json:"data"`
	Count    int        `json:"count"`
	Category Category   `json:"category"`
	Sort     sortInfo   `json:"sort"`
}

func (hs *HTTPServer) handleTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	vq := ViewQueryFor(hs.cfg.Board.Table())
	vq.Query = q.Get("q")
	vq.Display = parseBool(q.Get("display"))

	if s := q.Get("category"); s != "" {
		c, ok := ParseCategory(strings.ToLower(s))
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown category "+strconv.Quote(s))
			return
		}
		vq.Category = c
	}
	if s := strings.TrimSpace(q.Get("sort")); s != "" {
		vq.SortBy = s
		vq.SortDir = ordering.Descending
	}
	if s := q.Get("dir"); s != "" {
		d, ok := ordering.ParseDirection(s)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown dir "+strconv.Quote(s))
			return
		}
		vq.SortDir = d
	}
	spark := 0
	if s := q.Get("spark"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, "bad spark")
			return
		}
		spark = min(v, maxSpark)
	}

	rows := hs.cfg.Board.View(vq)
	if spark > 0 && hs.cfg.Store != nil {
		hs.fillSparklines(r.Context(), rows, spark)
	}

	by := vq.SortBy
	if vq.SortDir == ordering.None {
		by = ""
	}
	writeJSON(w, tokensResponse{
		Data:     rows,
		Count:    len(rows),
		Category: vq.Category,
		Sort:     sortInfo{By: by, Dir: vq.SortDir},
	})
}

func (hs *HTTPServer) fillSparklines(ctx context.Context, rows []TokenRow, n int) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	for i := range rows {
		ticks, err := hs.cfg.Store.Recent(ctx, rows[i].Pair, n)
		if err != nil {
			hs.cfg.Log.Warnf("sparkline %s: %v", rows[i].Pair, err)
			return
		}
		if len(ticks) == 0 {
			continue
		}
		line := make([]float64, len(ticks))
		for j, t := range ticks {
			line[j] = t.Price
		}
		rows[i].Sparkline = line
	}
}

func (hs *HTTPServer) handleTable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, hs.cfg.Board.Table())
}

type tableResponse struct {
	TableState
	Announcement string `json:"announcement"`
}

func (hs *HTTPServer) handleTableSort(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Column string `json:"column"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	col := strings.TrimSpace(req.Column)
	if col == "" {
		writeError(w, http.StatusBadRequest, "column is required")
		return
	}
	st := hs.cfg.Board.ClickSort(col)
	hs.cfg.Log.Debugf("table sort column=%s -> by=%q dir=%s", col, st.SortBy, st.SortDir)
	writeJSON(w, tableResponse{TableState: st, Announcement: Announcement(st)})
}

func (hs *HTTPServer) handleTableCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, ok := ParseCategory(strings.ToLower(strings.TrimSpace(req.Category)))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown category "+strconv.Quote(req.Category))
		return
	}
	writeJSON(w, hs.cfg.Board.SetCategory(c))
}

func (hs *HTTPServer) handleStreamState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, hs.cfg.Board.StreamState())
}

func (hs *HTTPServer) handleTicks(w http.ResponseWriter, r *http.Request) {
	pair := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("pair")))
	if pair == "" {
		writeError(w, http.StatusBadRequest, "pair is required")
		return
	}
	if hs.cfg.Store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore.Error())
		return
	}

	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if v, err := strconv.Atoi(q); err == nil && v > 0 && v <= 1000 {
			limit = v
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	ticks, err := hs.cfg.Store.Recent(ctx, pair, limit)
	if err != nil {
		hs.cfg.Log.Errorf("ticks %s: %v", pair, err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, map[string]any{
		"pair":    pair,
		"backend": hs.cfg.Store.Name(),
		"count":   len(ticks),
		"ticks":   ticks,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, map[string]any{"error": msg})
}
