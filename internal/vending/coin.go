package vending

import (
	"fmt"
	"strings"
)

// Coin identifies a physical coin that can be fed into the machine.
type Coin string

const (
	// CoinPenny is never credited and always lands in the coin return slot.
	CoinPenny Coin = "penny"
	// CoinNickel is worth five cents.
	CoinNickel Coin = "nickel"
	// CoinDime is worth ten cents.
	CoinDime Coin = "dime"
	// CoinQuarter is worth twenty-five cents.
	CoinQuarter Coin = "quarter"
)

var coinValues = map[Coin]int{
	CoinPenny:   0,
	CoinNickel:  5,
	CoinDime:    10,
	CoinQuarter: 25,
}

// acceptedCoins lists the credited denominations, largest first.
var acceptedCoins = []Coin{CoinQuarter, CoinDime, CoinNickel}

// Value returns the coin's worth in cents. Unknown coins are worth nothing.
func (c Coin) Value() int {
	return coinValues[c]
}

// Valid reports whether c is one of the four known coins.
func (c Coin) Valid() bool {
	_, ok := coinValues[c]
	return ok
}

// Accepted reports whether the machine credits c toward a purchase.
func (c Coin) Accepted() bool {
	return c.Value() > 0
}

func (c Coin) String() string {
	return string(c)
}

// ParseCoin converts user input such as "Quarter" into a Coin.
func ParseCoin(raw string) (Coin, error) {
	coin := Coin(strings.ToLower(strings.TrimSpace(raw)))
	if !coin.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCoin, raw)
	}

	return coin, nil
}

// Coins returns every known coin, accepted denominations first.
func Coins() []Coin {
	return append(append([]Coin(nil), acceptedCoins...), CoinPenny)
}
