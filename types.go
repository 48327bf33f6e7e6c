package main

type Category string

const (
	CategoryAll      Category = "all"
	CategoryNew      Category = "new"
	CategoryFinal    Category = "final"
	CategoryMigrated Category = "migrated"
)

var categories = []Category{CategoryAll, CategoryNew, CategoryFinal, CategoryMigrated}

func ParseCategory(s string) (Category, bool) {
	for _, c := range categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type TokenInfo struct {
	Holders int  `json:"holders" yaml:"holders"`
	Owners  int  `json:"owners" yaml:"owners"`
	Paid    bool `json:"paid" yaml:"paid"`
}

// Token is one row of the table. Optional fields are pointers so that an
// absent value stays distinguishable from zero when sorting.
type Token struct {
	Pair        string     `json:"pair" yaml:"pair"`
	Price       float64    `json:"price" yaml:"price"`
	Change24h   float64    `json:"change24h" yaml:"change24h"`
	Volume      float64    `json:"volume" yaml:"volume"`
	Category    Category   `json:"category" yaml:"category"`
	Logo        string     `json:"logo,omitempty" yaml:"logo,omitempty"`
	LastUpdated *int64     `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`
	MarketCap   *float64   `json:"marketCap,omitempty" yaml:"marketCap,omitempty"`
	Liquidity   *float64   `json:"liquidity,omitempty" yaml:"liquidity,omitempty"`
	Txns        *int64     `json:"txns,omitempty" yaml:"txns,omitempty"`
	Sparkline   []float64  `json:"sparkline,omitempty" yaml:"sparkline,omitempty"`
	TokenInfo   *TokenInfo `json:"tokenInfo,omitempty" yaml:"tokenInfo,omitempty"`
}

// clone copies t deeply enough that callers can't reach board state.
func (t Token) clone() Token {
	out := t
	if t.LastUpdated != nil {
		v := *t.LastUpdated
		out.LastUpdated = &v
	}
	if t.MarketCap != nil {
		v := *t.MarketCap
		out.MarketCap = &v
	}
	if t.Liquidity != nil {
		v := *t.Liquidity
		out.Liquidity = &v
	}
	if t.Txns != nil {
		v := *t.Txns
		out.Txns = &v
	}
	if t.Sparkline != nil {
		out.Sparkline = append([]float64(nil), t.Sparkline...)
	}
	if t.TokenInfo != nil {
		v := *t.TokenInfo
		out.TokenInfo = &v
	}
	return out
}

// PriceUpdate is one message from a price feed.
type PriceUpdate struct {
	Pair      string
	Price     float64
	TsMs      int64
	Change24h *float64
	Volume    *float64
	Source    string
}

// Delta is the latest streamed change for a pair.
type Delta struct {
	Price     float64  `json:"price"`
	Ts        int64    `json:"ts"`
	Change24h *float64 `json:"change24h,omitempty"`
	Volume    *float64 `json:"volume,omitempty"`
	Direction string   `json:"direction"`
}

// Tick is the persisted form of an applied price update.
type Tick struct {
	RunID     string  `json:"run_id"`
	TsMs      int64   `json:"ts_ms"`
	Pair      string  `json:"pair"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	Volume    float64 `json:"volume"`
	Direction string  `json:"direction"`
	Source    string  `json:"source"`
}

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }
