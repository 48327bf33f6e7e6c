package main

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type Metrics struct {
	start time.Time

	version   string
	commit    string
	buildDate string

	reconnectOK atomic.Int64
	reconnectNG atomic.Int64

	ticks        atomic.Int64
	droppedTicks atomic.Int64
	views        atomic.Int64

	// tick store writer
	storeInserted       atomic.Int64
	storeInsertErrors   atomic.Int64
	storeDropped        atomic.Int64
	storeLastLatencyMs  atomic.Int64
	storeLastInsertAtMs atomic.Int64

	mu      sync.Mutex
	samples []rateSample // appended each second
}

type rateSample struct {
	at    time.Time
	ticks int64
}

func NewMetrics(start time.Time, version, commit, buildDate string) *Metrics {
	return &Metrics{
		start:     start,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		samples:   make([]rateSample, 0, 16),
	}
}

func (m *Metrics) IncTick()  { m.ticks.Add(1) }
func (m *Metrics) DropTick() { m.droppedTicks.Add(1) }
func (m *Metrics) IncView()  { m.views.Add(1) }

func (m *Metrics) StoreInserted(n int64, latency time.Duration) {
	m.storeInserted.Add(n)
	m.storeLastLatencyMs.Store(latency.Milliseconds())
	m.storeLastInsertAtMs.Store(time.Now().UnixMilli())
}
func (m *Metrics) StoreInsertError()    { m.storeInsertErrors.Add(1) }
func (m *Metrics) StoreDropped(n int64) { m.storeDropped.Add(n) }

func (m *Metrics) ReconnectAttemptFailed() { m.reconnectNG.Add(1) }
func (m *Metrics) ReconnectSucceeded()     { m.reconnectOK.Add(1) }

func (m *Metrics) Run(ctx context.Context) {
	t := time.NewTicker(1 * time.Second)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.sample(now)
		}
	}
}

func (m *Metrics) sample(now time.Time) {
	n := m.ticks.Load()

	m.mu.Lock()
	m.samples = append(m.samples, rateSample{at: now, ticks: n})
	// keep last ~40s
	if len(m.samples) > 40 {
		m.samples = m.samples[len(m.samples)-40:]
	}
	m.mu.Unlock()
}

func (m *Metrics) Snapshot() map[string]any {
	uptime := time.Since(m.start)
	r1, r5 := m.tickRates()

	return map[string]any{
		"ok": true,

		"uptime_ms": uptime.Milliseconds(),
		"uptime":    uptime.String(),

		"build": map[string]any{
			"version":    m.version,
			"commit":     m.commit,
			"build_date": m.buildDate,
		},

		"reconnect": map[string]any{
			"success": m.reconnectOK.Load(),
			"failed":  m.reconnectNG.Load(),
		},

		"feed": map[string]any{
			"ticks_total": m.ticks.Load(),
			"ticks_per_s": map[string]any{
				"1s": r1,
				"5s": r5,
			},
			"dropped_ticks": m.droppedTicks.Load(),
		},

		"views_total": m.views.Load(),

		"store": map[string]any{
			"inserted_rows_total":    m.storeInserted.Load(),
			"insert_errors_total":    m.storeInsertErrors.Load(),
			"dropped_total":          m.storeDropped.Load(),
			"last_insert_latency_ms": m.storeLastLatencyMs.Load(),
			"last_insert_at_unix_ms": m.storeLastInsertAtMs.Load(),
		},
	}
}

func (m *Metrics) tickRates() (rate1 float64, rate5 float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.samples) < 2 {
		return 0, 0
	}
	latest := m.samples[len(m.samples)-1]

	prev := m.samples[len(m.samples)-2]
	if dt := latest.at.Sub(prev.at).Seconds(); dt > 0 {
		rate1 = float64(latest.ticks-prev.ticks) / dt
	}

	// 5s rate: newest sample at least 5s older than latest
	for i := len(m.samples) - 1; i >= 0; i-- {
		if latest.at.Sub(m.samples[i].at) >= 5*time.Second {
			if dt := latest.at.Sub(m.samples[i].at).Seconds(); dt > 0 {
				rate5 = float64(latest.ticks-m.samples[i].ticks) / dt
			}
			break
		}
	}
	return
}
