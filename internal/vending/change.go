package vending

import "fmt"

// changeTier lists the denominations tried, in order, while at least minOwed cents are still owed.
type changeTier struct {
	minOwed int
	coins   []Coin
}

var changeTiers = []changeTier{
	{minOwed: 25, coins: []Coin{CoinQuarter, CoinDime, CoinNickel}},
	{minOwed: 10, coins: []Coin{CoinDime, CoinNickel}},
	{minOwed: 5, coins: []Coin{CoinNickel}},
}

// MakeChange selects coins worth exactly owed cents. Each denomination is drawn from the customer pool
// before the vault. Coins are removed from the pools as they are picked and are not put back on failure,
// so callers that need an all-or-nothing result must pass scratch copies.
func MakeChange(owed int, customer, vault CoinPool) ([]Coin, error) {
	if owed < 0 || owed%CoinNickel.Value() != 0 {
		return nil, fmt.Errorf("%w: %s", ErrCannotMakeChange, FormatCents(owed))
	}

	change := make([]Coin, 0, owed/CoinNickel.Value())
	for owed > 0 {
		coin, ok := takeChangeCoin(owed, customer, vault)
		if !ok {
			return nil, fmt.Errorf("%w: %s still owed", ErrCannotMakeChange, FormatCents(owed))
		}

		change = append(change, coin)
		owed -= coin.Value()
	}

	return change, nil
}

func takeChangeCoin(owed int, customer, vault CoinPool) (Coin, bool) {
	for _, tier := range changeTiers {
		if owed < tier.minOwed {
			continue
		}

		for _, coin := range tier.coins {
			if customer.Take(coin) || vault.Take(coin) {
				return coin, true
			}
		}

		return "", false
	}

	return "", false
}
