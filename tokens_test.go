package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadTokens(t *testing.T) {
	p := writeFile(t, "tokens.yaml", `
tokens:
  - pair: abc/usdt
    price: 1.5
    change24h: -2.5
    volume: 100
    category: final
    marketCap: 5000
    tokenInfo: {holders: 3, owners: 1, paid: true}
  - pair: " ABC/USDT "
    price: 9
  - pair: ""
    price: 1
  - pair: new/usdt
    price: 0.25
    category: bogus
`)

	tokens, err := LoadTokens(p)
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	abc := tokens[0]
	assert.Equal(t, "ABC/USDT", abc.Pair)
	assert.Equal(t, 1.5, abc.Price)
	assert.Equal(t, -2.5, abc.Change24h)
	assert.Equal(t, CategoryFinal, abc.Category)
	require.NotNil(t, abc.MarketCap)
	assert.Equal(t, 5000.0, *abc.MarketCap)
	assert.Nil(t, abc.Liquidity)
	assert.Equal(t, &TokenInfo{Holders: 3, Owners: 1, Paid: true}, abc.TokenInfo)

	assert.Equal(t, "NEW/USDT", tokens[1].Pair)
	assert.Equal(t, CategoryNew, tokens[1].Category)
}

func TestLoadTokensErrors(t *testing.T) {
	_, err := LoadTokens(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadTokens(writeFile(t, "bad.yaml", "tokens: [\n"))
	assert.ErrorContains(t, err, "parse")

	_, err = LoadTokens(writeFile(t, "empty.yaml", "tokens: []\n"))
	assert.ErrorIs(t, err, errNoTokens)
}

func TestGenerateTokensDeterministic(t *testing.T) {
	a := GenerateTokens(6, 7)
	b := GenerateTokens(6, 7)
	c := GenerateTokens(6, 8)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	require.Len(t, a, 6)
	for i, tok := range a {
		assert.Equal(t, []Category{CategoryNew, CategoryFinal, CategoryMigrated}[i%3], tok.Category)
		assert.GreaterOrEqual(t, tok.Price, 0.0)
		assert.Len(t, tok.Sparkline, 7)
	}
	assert.Equal(t, "TOK1/USDT", a[0].Pair)
	assert.Equal(t, "TOK6/USDT", a[5].Pair)
	assert.Nil(t, GenerateTokens(0, 1))
}

func TestSampleTokens(t *testing.T) {
	tokens := SampleTokens(12, 42)

	require.Len(t, tokens, 15)
	assert.Equal(t, "ABC/USDT", tokens[0].Pair)
	assert.Equal(t, "GHI/USDT", tokens[1].Pair)
	assert.Equal(t, "DEF/USDT", tokens[2].Pair)
	assert.Equal(t, "TOK1/USDT", tokens[3].Pair)

	_, err := cleanTokens(tokens)
	assert.NoError(t, err, "sample must survive its own validation")
}
