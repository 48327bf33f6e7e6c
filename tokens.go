package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type tokensFile struct {
	Tokens []Token `yaml:"tokens"`
}

var errNoTokens = errors.New("no tokens found")

// LoadTokens reads a YAML seed file of the form "tokens: [...]".
func LoadTokens(path string) ([]Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf tokensFile
	if err := yaml.Unmarshal(b, &tf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cleanTokens(tf.Tokens)
}

// cleanTokens uppercases pairs, drops empty and duplicate pairs and
// defaults unknown categories to "new".
func cleanTokens(in []Token) ([]Token, error) {
	seen := make(map[string]struct{}, len(in))
	out := make([]Token, 0, len(in))
	for _, t := range in {
		t.Pair = strings.ToUpper(strings.TrimSpace(t.Pair))
		if t.Pair == "" {
			continue
		}
		if _, ok := seen[t.Pair]; ok {
			continue
		}
		if c, ok := ParseCategory(string(t.Category)); !ok || c == CategoryAll {
			t.Category = CategoryNew
		}
		seen[t.Pair] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, errNoTokens
	}
	return out, nil
}

// SampleTokens is the built-in table used when no seed file is configured:
// three hand-written pairs followed by n generated ones.
func SampleTokens(n int, seed int64) []Token {
	out := []Token{
		{
			Pair: "ABC/USDT", Price: 19.5076, Change24h: 2.3, Volume: 12345, Category: CategoryNew,
			Logo: "/logo1.png", MarketCap: f64(52700), Liquidity: f64(22000), Txns: i64(455),
			TokenInfo: &TokenInfo{Holders: 485, Owners: 282, Paid: true},
			Sparkline: []float64{1, 1.3, 1.15, 1.2, 1.4, 1.37, 1.42},
		},
		{
			Pair: "GHI/USDT", Price: 0.416462, Change24h: 5.4, Volume: 9999, Category: CategoryFinal,
			Logo: "/logo1.png", MarketCap: f64(177000), Liquidity: f64(41700), Txns: i64(415),
			TokenInfo: &TokenInfo{Holders: 1155, Owners: 346, Paid: false},
			Sparkline: []float64{0.9, 0.95, 0.88, 0.92, 0.96, 0.98, 1.0},
		},
		{
			Pair: "DEF/USDT", Price: 11.3277, Change24h: -1.2, Volume: 4321, Category: CategoryMigrated,
			Logo: "/logo1.png", MarketCap: f64(78000), Liquidity: f64(16700), Txns: i64(146),
			TokenInfo: &TokenInfo{Holders: 102, Owners: 59, Paid: false},
			Sparkline: []float64{12, 11.7, 11.8, 11.5, 11.6, 11.27, 11.32},
		},
	}
	return append(out, GenerateTokens(n, seed)...)
}

// GenerateTokens makes n filler rows TOK1/USDT..TOKn/USDT. The same seed
// always yields the same rows.
func GenerateTokens(n int, seed int64) []Token {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	cats := []Category{CategoryNew, CategoryFinal, CategoryMigrated}

	out := make([]Token, 0, n)
	for i := 0; i < n; i++ {
		spark := make([]float64, 7)
		for j := range spark {
			spark[j] = round(rng.Float64()*1.5+0.5, 3)
		}
		out = append(out, Token{
			Pair:      fmt.Sprintf("TOK%d/USDT", i+1),
			Price:     round(rng.Float64()*50, 6),
			Change24h: round(rng.Float64()*20-10, 2),
			Volume:    math.Floor(rng.Float64() * 30000),
			Category:  cats[i%len(cats)],
			Logo:      "/logo1.png",
			MarketCap: f64(math.Floor(rng.Float64() * 200000)),
			Liquidity: f64(math.Floor(rng.Float64() * 50000)),
			Txns:      i64(rng.Int63n(800)),
			TokenInfo: &TokenInfo{
				Holders: rng.Intn(2000),
				Owners:  rng.Intn(1000),
				Paid:    rng.Float64() > 0.5,
			},
			Sparkline: spark,
		})
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
