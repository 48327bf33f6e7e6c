package main

import (
	"context"
	"math"
	"math/rand"
	"time"
)

type SimulatorConfig struct {
	MinDelay   time.Duration
	MaxDelay   time.Duration
	Volatility float64 // max relative move per tick, e.g. 0.02
	Seed       int64
	Log        *Logger
}

// Simulator stands in for a live feed: every [MinDelay, MaxDelay) it moves
// one random pair by a bounded random walk.
type Simulator struct {
	cfg   SimulatorConfig
	board *Board
	rng   *rand.Rand
}

func NewSimulator(cfg SimulatorConfig, b *Board) *Simulator {
	if cfg.MinDelay <= 0 {
		cfg.MinDelay = 300 * time.Millisecond
	}
	if cfg.MaxDelay <= cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay + 500*time.Millisecond
	}
	if cfg.Volatility <= 0 {
		cfg.Volatility = 0.02
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	return &Simulator{cfg: cfg, board: b, rng: rand.New(rand.NewSource(cfg.Seed))}
}

func (s *Simulator) Run(ctx context.Context) {
	s.board.SetConnected(true)
	defer s.board.SetConnected(false)
	s.cfg.Log.Infof("price simulator started delay=[%s,%s) volatility=%.3f", s.cfg.MinDelay, s.cfg.MaxDelay, s.cfg.Volatility)

	for {
		if !sleepCtx(ctx, s.nextDelay()) {
			return
		}
		if _, ok := s.Step(); !ok {
			s.cfg.Log.Debugf("simulator: board is empty")
		}
	}
}

func (s *Simulator) nextDelay() time.Duration {
	span := s.cfg.MaxDelay - s.cfg.MinDelay
	return s.cfg.MinDelay + time.Duration(s.rng.Int63n(int64(span)))
}

// Step applies one simulated update and returns the resulting tick.
func (s *Simulator) Step() (Tick, bool) {
	pairs := s.board.Pairs()
	if len(pairs) == 0 {
		return Tick{}, false
	}
	pair := pairs[s.rng.Intn(len(pairs))]
	cur, ok := s.board.Token(pair)
	if !ok {
		return Tick{}, false
	}
	return s.board.ApplyPrice(s.next(cur))
}

func (s *Simulator) next(cur Token) PriceUpdate {
	move := (s.rng.Float64()*2 - 1) * s.cfg.Volatility
	price := cur.Price * (1 + move)
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		price = 1e-6
	}
	u := PriceUpdate{Pair: cur.Pair, Price: price, Source: "sim"}

	if open, ok := s.board.Open(cur.Pair); ok {
		u.Change24h = f64(round(ChangePct(open, price), 2))
	}
	vol := cur.Volume * (1 + (s.rng.Float64()*2-1)*0.01)
	if vol < 0 {
		vol = 0
	}
	u.Volume = f64(round(vol, 2))
	return u
}
