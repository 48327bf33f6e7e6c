package main

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

func testLogger() *Logger { return NewLoggerTo(io.Discard, "error") }

func testMetrics() *Metrics { return NewMetrics(time.Now(), "test", "none", "unknown") }

// testTokens is a small board fixture with a mix of present and absent
// optional fields.
func testTokens() []Token {
	return []Token{
		{Pair: "ABC/USDT", Price: 19.5, Change24h: 2.3, Volume: 12345, Category: CategoryNew, MarketCap: f64(52700), TokenInfo: &TokenInfo{Holders: 485}},
		{Pair: "GHI/USDT", Price: 0.4, Change24h: 5.4, Volume: 9999, Category: CategoryFinal, MarketCap: f64(177000), TokenInfo: &TokenInfo{Holders: 1155}},
		{Pair: "DEF/USDT", Price: 11.3, Change24h: -1.2, Volume: 4321, Category: CategoryMigrated},
		{Pair: "XYZ/USDT", Price: 2, Change24h: 0, Volume: 50000, Category: CategoryNew, MarketCap: f64(1000), TokenInfo: &TokenInfo{Holders: 7}},
	}
}

func newTestBoard(w *TickWriter) *Board {
	return NewBoard(testTokens(), DefaultTableState(), w, testMetrics(), testLogger(), "run-test")
}

// fakeStore is an in-memory TickStore. failures makes the next N Append
// calls fail.
type fakeStore struct {
	mu       sync.Mutex
	ticks    []Tick
	batches  [][]Tick
	failures int
	appends  int
	closed   bool
}

var errFakeAppend = errors.New("fake append failure")

func (f *fakeStore) Name() string { return "fake" }

func (f *fakeStore) Append(_ context.Context, ticks []Tick) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appends++
	if f.failures > 0 {
		f.failures--
		return errFakeAppend
	}
	f.batches = append(f.batches, append([]Tick(nil), ticks...))
	f.ticks = append(f.ticks, ticks...)
	return nil
}

func (f *fakeStore) Recent(_ context.Context, pair string, limit int) ([]Tick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Tick
	for _, t := range f.ticks {
		if t.Pair == pair {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStore) snapshot() (ticks []Tick, batches int, appends int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Tick(nil), f.ticks...), len(f.batches), f.appends
}
