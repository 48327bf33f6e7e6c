package main

import (
	"sync"
	"time"
)

// StreamState mirrors what the live feed has delivered so far.
type StreamState struct {
	Connected     bool             `json:"connected"`
	LastMessageTs *int64           `json:"lastMessageTs"`
	Deltas        map[string]Delta `json:"deltas"`
}

// Board owns the token rows, the latest deltas and the table state. All
// reads hand out copies.
type Board struct {
	log     *Logger
	metrics *Metrics
	writer  *TickWriter // optional
	runID   string
	now     func() time.Time

	mu            sync.RWMutex
	items         []Token
	index         map[string]int
	open          map[string]float64
	deltas        map[string]Delta
	connected     bool
	lastMessageTs int64
	table         TableState
}

func NewBoard(tokens []Token, table TableState, w *TickWriter, m *Metrics, log *Logger, runID string) *Board {
	b := &Board{
		log:     log,
		metrics: m,
		writer:  w,
		runID:   runID,
		now:     time.Now,
		table:   table,
	}
	b.Load(tokens)
	return b
}

// Load replaces all rows. Deltas for pairs that are gone are dropped.
func (b *Board) Load(tokens []Token) {
	items := make([]Token, len(tokens))
	index := make(map[string]int, len(tokens))
	open := make(map[string]float64, len(tokens))
	for i, t := range tokens {
		items[i] = t.clone()
		index[t.Pair] = i
		open[t.Pair] = openFor(t)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = items
	b.index = index
	b.open = open
	deltas := make(map[string]Delta, len(b.deltas))
	for pair, d := range b.deltas {
		if _, ok := index[pair]; ok {
			deltas[pair] = d
		}
	}
	b.deltas = deltas
}

// openFor backs the 24h open out of the seed price and change.
func openFor(t Token) float64 {
	if t.Price <= 0 || t.Change24h <= -100 {
		return t.Price
	}
	return t.Price / (1 + t.Change24h/100)
}

func (b *Board) Pairs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.items))
	for i, t := range b.items {
		out[i] = t.Pair
	}
	return out
}

func (b *Board) Token(pair string) (Token, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	i, ok := b.index[pair]
	if !ok {
		return Token{}, false
	}
	return b.items[i].clone(), true
}

// Open is the reference price change24h is measured from.
func (b *Board) Open(pair string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.open[pair]
	return o, ok
}

// Snapshot returns all rows in seed order.
func (b *Board) Snapshot() []Token {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Token, len(b.items))
	for i, t := range b.items {
		out[i] = t.clone()
	}
	return out
}

// ApplyPrice sets price and lastUpdated for u.Pair, plus change24h and
// volume when the update carries them. Unknown pairs are ignored.
func (b *Board) ApplyPrice(u PriceUpdate) (Tick, bool) {
	if u.TsMs == 0 {
		u.TsMs = b.now().UnixMilli()
	}

	b.mu.Lock()
	i, ok := b.index[u.Pair]
	if !ok {
		b.mu.Unlock()
		return Tick{}, false
	}
	t := &b.items[i]
	dir := ClassifyMove(t.Price, u.Price)
	t.Price = u.Price
	t.LastUpdated = i64(u.TsMs)
	if u.Change24h != nil {
		t.Change24h = *u.Change24h
	}
	if u.Volume != nil {
		t.Volume = *u.Volume
	}
	b.deltas[u.Pair] = Delta{
		Price:     u.Price,
		Ts:        u.TsMs,
		Change24h: u.Change24h,
		Volume:    u.Volume,
		Direction: dir,
	}
	b.lastMessageTs = u.TsMs
	tick := Tick{
		RunID:     b.runID,
		TsMs:      u.TsMs,
		Pair:      u.Pair,
		Price:     u.Price,
		Change24h: t.Change24h,
		Volume:    t.Volume,
		Direction: dir,
		Source:    u.Source,
	}
	b.mu.Unlock()

	b.metrics.IncTick()
	if b.writer != nil {
		if ok := b.writer.TryEnqueue(tick); !ok {
			b.metrics.DropTick()
		}
	}
	return tick, true
}

func (b *Board) SetConnected(v bool) {
	b.mu.Lock()
	b.connected = v
	b.mu.Unlock()
}

func (b *Board) StreamState() StreamState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st := StreamState{
		Connected: b.connected,
		Deltas:    make(map[string]Delta, len(b.deltas)),
	}
	if b.lastMessageTs != 0 {
		st.LastMessageTs = i64(b.lastMessageTs)
	}
	for k, v := range b.deltas {
		st.Deltas[k] = v
	}
	return st
}

func (b *Board) Table() TableState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.table
}

// ClickSort advances the sort cycle for column and returns the new state.
func (b *Board) ClickSort(column string) TableState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.table = NextSort(b.table, column)
	return b.table
}

func (b *Board) SetCategory(c Category) TableState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.table.Category = c
	return b.table
}

// Delta returns the latest streamed change for pair.
func (b *Board) Delta(pair string) (Delta, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.deltas[pair]
	return d, ok
}
