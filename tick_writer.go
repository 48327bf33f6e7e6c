package main

import (
	"context"
	"errors"
	"time"
)

// TickStore persists ticks and serves recent history per pair.
type TickStore interface {
	Name() string
	Append(ctx context.Context, ticks []Tick) error
	// Recent returns up to limit ticks for pair, oldest first.
	Recent(ctx context.Context, pair string, limit int) ([]Tick, error)
	Close() error
}

var errNoStore = errors.New("no tick store configured")

type TickWriterConfig struct {
	BatchSize  int
	FlushEvery time.Duration
	BufferSize int
}

// TickWriter batches ticks off the hot path into a TickStore.
type TickWriter struct {
	cfg   TickWriterConfig
	store TickStore
	log   *Logger
	m     *Metrics

	in chan Tick
}

func NewTickWriter(cfg TickWriterConfig, store TickStore, m *Metrics, log *Logger) *TickWriter {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 250 * time.Millisecond
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 50_000
	}
	return &TickWriter{
		cfg:   cfg,
		store: store,
		log:   log,
		m:     m,
		in:    make(chan Tick, cfg.BufferSize),
	}
}

// TryEnqueue never blocks; false means the buffer is full.
func (w *TickWriter) TryEnqueue(t Tick) bool {
	select {
	case w.in <- t:
		return true
	default:
		return false
	}
}

func (w *TickWriter) Run(ctx context.Context) {
	t := time.NewTicker(w.cfg.FlushEvery)
	defer t.Stop()

	batch := make([]Tick, 0, w.cfg.BatchSize)
	take := func() []Tick {
		tmp := batch
		batch = make([]Tick, 0, w.cfg.BatchSize)
		return tmp
	}

	for {
		select {
		case <-ctx.Done():
			// drain best-effort, then a final flush on a fresh context
		Drain:
			for {
				select {
				case tk := <-w.in:
					batch = append(batch, tk)
					if len(batch) >= w.cfg.BatchSize {
						w.flush(context.Background(), take())
					}
				default:
					break Drain
				}
			}
			w.flush(context.Background(), take())
			return

		case tk := <-w.in:
			batch = append(batch, tk)
			if len(batch) >= w.cfg.BatchSize {
				w.flush(ctx, take())
			}

		case <-t.C:
			if len(batch) > 0 {
				w.flush(ctx, take())
			}
		}
	}
}

func (w *TickWriter) flush(ctx context.Context, buf []Tick) {
	if len(buf) == 0 {
		return
	}
	const maxAttempts = 3

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}

		ctxIns, cancel := context.WithTimeout(ctx, 5*time.Second)
		start := time.Now()
		err := w.store.Append(ctxIns, buf)
		cancel()

		if err == nil {
			w.m.StoreInserted(int64(len(buf)), time.Since(start))
			return
		}

		lastErr = err
		w.m.StoreInsertError()

		backoff := time.Duration(100*(1<<attempt)) * time.Millisecond
		if backoff > 1500*time.Millisecond {
			backoff = 1500 * time.Millisecond
		}
		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
	}

	w.m.StoreDropped(int64(len(buf)))
	w.log.Errorf("%s insert failed; dropped %d ticks: %v", w.store.Name(), len(buf), lastErr)
}
