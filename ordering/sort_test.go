package ordering

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID int
	V  any
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func byV() Key[item] { return Func(func(it item) any { return it.V }) }

func TestStableKeepsEqualOrder(t *testing.T) {
	in := []item{{1, 2}, {2, 1}, {3, 2}, {4, 1}, {5, 2}}

	out := Stable(in, func(a, b item) int { return CompareValues(a.V, b.V) })

	assert.Equal(t, []int{2, 4, 1, 3, 5}, ids(out))
}

func TestStableRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	in := make([]item, 200)
	for i := range in {
		in[i] = item{ID: i, V: rng.Intn(5)}
	}

	out := SortBy(in, byV(), Ascending)

	for i := 1; i < len(out); i++ {
		c := CompareValues(out[i-1].V, out[i].V)
		require.LessOrEqual(t, c, 0)
		if c == 0 {
			require.Less(t, out[i-1].ID, out[i].ID, "equal keys must keep input order")
		}
	}
}

func TestSortByDoesNotMutateInput(t *testing.T) {
	in := []item{{1, 3}, {2, 1}, {3, 2}}
	before := slices.Clone(in)

	out := SortBy(in, byV(), Descending)

	assert.Equal(t, before, in)
	assert.Equal(t, []int{1, 3, 2}, ids(out))
	out[0].ID = 99
	assert.Equal(t, 1, in[0].ID)
}

func TestSortByIdempotent(t *testing.T) {
	in := []item{{1, "b"}, {2, 10}, {3, nil}, {4, "a"}, {5, 10}, {6, "$1K"}}

	for _, dir := range []Direction{Ascending, Descending} {
		once := SortBy(in, byV(), dir)
		twice := SortBy(once, byV(), dir)
		assert.Equal(t, once, twice, dir.String())
	}
}

func TestSortByReversal(t *testing.T) {
	in := []item{{1, 30}, {2, "$1K"}, {3, 5}, {4, "2,000"}, {5, 0.5}}

	asc := SortBy(in, byV(), Ascending)
	desc := SortBy(in, byV(), Descending)

	reversed := slices.Clone(asc)
	slices.Reverse(reversed)
	assert.Equal(t, reversed, desc)
}

func TestSortByTiesIgnoreDirection(t *testing.T) {
	in := []item{{1, 5}, {2, 7}, {3, 5}, {4, 7}}

	assert.Equal(t, []int{1, 3, 2, 4}, ids(SortBy(in, byV(), Ascending)))
	assert.Equal(t, []int{2, 4, 1, 3}, ids(SortBy(in, byV(), Descending)))
}

func TestSortByMissingFirstBothDirections(t *testing.T) {
	in := []item{{1, 3}, {2, nil}, {3, "x"}, {4, nil}, {5, 1}}

	asc := SortBy(in, byV(), Ascending)
	desc := SortBy(in, byV(), Descending)

	assert.Equal(t, []int{2, 4, 3, 5, 1}, ids(asc))
	assert.Equal(t, []int{2, 4, 1, 5, 3}, ids(desc))
}

func TestSortByMixedNumericTextColumn(t *testing.T) {
	in := []item{{1, 5}, {2, "--"}, {3, 3}, {4, "--"}, {5, 1}}

	asc := SortBy(in, byV(), Ascending)

	assert.Equal(t, []int{2, 4, 5, 3, 1}, ids(asc))
	vals := make([]any, len(asc))
	for i, it := range asc {
		vals[i] = it.V
	}
	assert.Equal(t, []any{"--", "--", 1, 3, 5}, vals)
}

func TestSortBySuffixedStrings(t *testing.T) {
	in := []item{{1, "$52.7K"}, {2, "11,327"}, {3, "1.2M"}}

	assert.Equal(t, []int{2, 1, 3}, ids(SortBy(in, byV(), Ascending)))
}

func TestSortByFormattedPercentages(t *testing.T) {
	in := []item{{1, "+2.30%"}, {2, "-1.20%"}, {3, "+10.00%"}}

	assert.Equal(t, []int{2, 1, 3}, ids(SortBy(in, byV(), Ascending)))
	assert.Equal(t, []int{3, 1, 2}, ids(SortBy(in, byV(), Descending)))
}

func TestSortByNoneIsIdentity(t *testing.T) {
	in := []row{{Pair: "B"}, {Pair: "A"}, {Pair: "C"}}

	out := SortBy(in, ParseKey[row]("price"), None)

	assert.Equal(t, in, out)
	assert.Nil(t, SortBy([]row(nil), ParseKey[row]("pair"), None))
	assert.Empty(t, SortBy([]row{}, ParseKey[row]("pair"), Ascending))
}

func TestSortByNestedPath(t *testing.T) {
	in := []row{
		{Pair: "A", TokenInfo: &info{Holders: 10}},
		{Pair: "B"},
		{Pair: "C", TokenInfo: &info{Holders: 2}},
	}

	var out []row
	require.NotPanics(t, func() {
		out = SortBy(in, ParseKey[row]("tokenInfo.holders"), Descending)
	})

	pairs := make([]string, len(out))
	for i, r := range out {
		pairs[i] = r.Pair
	}
	assert.Equal(t, []string{"B", "A", "C"}, pairs)
}

func TestComparatorWithStable(t *testing.T) {
	in := []item{{1, nil}, {2, 2}, {3, 9}}

	out := Stable(in, Comparator(byV(), Descending))

	assert.Equal(t, []int{1, 3, 2}, ids(out))
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in   string
		want Direction
		ok   bool
	}{
		{"asc", Ascending, true},
		{"DESC", Descending, true},
		{" descending ", Descending, true},
		{"", None, true},
		{"null", None, true},
		{"none", None, true},
		{"sideways", None, false},
	}
	for _, tt := range tests {
		got, ok := ParseDirection(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	var d Direction
	require.NoError(t, d.UnmarshalText([]byte("desc")))
	assert.Equal(t, Descending, d)
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "desc", string(b))

	err = d.UnmarshalText([]byte("up"))
	var de *DirectionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "up", de.Value)
}
