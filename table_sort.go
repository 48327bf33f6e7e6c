package main

import (
	"strings"
	"time"

	"tokenboard/ordering"
)

// flashWindow is how long a row keeps its up/down flash after a tick.
const flashWindow = 700 * time.Millisecond

type TokenDisplay struct {
	Price     string  `json:"price"`
	Change24h string  `json:"change24h"`
	Volume    string  `json:"volume"`
	MarketCap *string `json:"marketCap,omitempty"`
	Liquidity *string `json:"liquidity,omitempty"`
	Txns      *string `json:"txns,omitempty"`
}

// TokenRow is a Token as served to the table.
type TokenRow struct {
	Token
	Flash   string        `json:"flash,omitempty"`
	Display *TokenDisplay `json:"display,omitempty"`
}

type ViewQuery struct {
	Category Category
	Query    string
	SortBy   string
	SortDir  ordering.Direction
	Display  bool
}

// ViewQueryFor turns table state into a query with no text filter.
func ViewQueryFor(s TableState) ViewQuery {
	return ViewQuery{Category: s.Category, SortBy: s.SortBy, SortDir: s.SortDir}
}

// View filters, decorates and orders the board rows. Ordering uses the
// same key paths a client would send, so "tokenInfo.holders" and
// "display.volume" both work.
func (b *Board) View(q ViewQuery) []TokenRow {
	now := b.now()

	b.mu.RLock()
	rows := make([]TokenRow, 0, len(b.items))
	for _, t := range b.items {
		if !matchesFilter(t, q.Category, q.Query) {
			continue
		}
		row := TokenRow{Token: t.clone()}
		if d, ok := b.deltas[t.Pair]; ok && d.Direction != DirectionFlat && now.Sub(time.UnixMilli(d.Ts)) < flashWindow {
			row.Flash = d.Direction
		}
		if q.Display {
			row.Display = displayFor(t)
		}
		rows = append(rows, row)
	}
	b.mu.RUnlock()

	b.metrics.IncView()
	if q.SortBy == "" {
		return rows
	}
	return ordering.SortBy(rows, ordering.ParseKey[TokenRow](q.SortBy), q.SortDir)
}

func matchesFilter(t Token, cat Category, q string) bool {
	if cat != "" && cat != CategoryAll && t.Category != cat {
		return false
	}
	q = strings.TrimSpace(q)
	return q == "" || strings.Contains(strings.ToLower(t.Pair), strings.ToLower(q))
}

func displayFor(t Token) *TokenDisplay {
	d := &TokenDisplay{
		Price:     "$" + FormatPrice(t.Price),
		Change24h: FormatChange(t.Change24h),
		Volume:    FormatCompact(t.Volume),
	}
	if t.MarketCap != nil {
		s := FormatCompact(*t.MarketCap)
		d.MarketCap = &s
	}
	if t.Liquidity != nil {
		s := FormatCompact(*t.Liquidity)
		d.Liquidity = &s
	}
	if t.Txns != nil {
		s := FormatCount(*t.Txns)
		d.Txns = &s
	}
	return d
}
