package vending

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCents(t *testing.T) {
	testCases := []struct {
		cents    int
		expected string
	}{
		{cents: 0, expected: "$0.00"},
		{cents: 5, expected: "$0.05"},
		{cents: 65, expected: "$0.65"},
		{cents: 100, expected: "$1.00"},
		{cents: 135, expected: "$1.35"},
		{cents: -40, expected: "-$0.40"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, FormatCents(tc.cents))
	}
}

func TestParseCoinAndProduct(t *testing.T) {
	coin, err := ParseCoin(" Quarter ")
	require.NoError(t, err)
	assert.Equal(t, CoinQuarter, coin)

	_, err = ParseCoin("euro")
	assert.ErrorIs(t, err, ErrInvalidCoin)

	product, err := ParseProduct("CANDY")
	require.NoError(t, err)
	assert.Equal(t, ProductCandy, product)

	_, err = ParseProduct("")
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestCoinPool(t *testing.T) {
	pool := CoinPoolOf(CoinNickel, CoinQuarter, CoinDime, CoinQuarter)

	assert.Equal(t, 65, pool.Value())
	assert.Equal(t, 4, pool.Size())
	assert.Equal(t, []Coin{CoinQuarter, CoinQuarter, CoinDime, CoinNickel}, pool.Coins())

	clone := pool.Clone()
	require.True(t, clone.Take(CoinQuarter))
	assert.Equal(t, 2, pool.Count(CoinQuarter), "clones are independent")

	other := CoinPoolOf(CoinDime)
	pool.Merge(other)
	assert.Equal(t, 2, pool.Count(CoinDime))
	assert.Zero(t, other.Size())

	assert.False(t, NewCoinPool().Take(CoinNickel))
}
