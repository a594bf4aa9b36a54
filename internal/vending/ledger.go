package vending

// CoinPool counts physical coins by denomination.
type CoinPool map[Coin]int

// NewCoinPool returns an empty pool with a slot for every accepted denomination.
func NewCoinPool() CoinPool {
	pool := make(CoinPool, len(acceptedCoins))
	for _, coin := range acceptedCoins {
		pool[coin] = 0
	}

	return pool
}

// CoinPoolOf builds a pool holding the given coins.
func CoinPoolOf(coins ...Coin) CoinPool {
	pool := NewCoinPool()
	for _, coin := range coins {
		pool[coin]++
	}

	return pool
}

// Count returns how many coins of the given denomination the pool holds.
func (p CoinPool) Count(coin Coin) int {
	return p[coin]
}

// Value returns the total worth of the pool in cents.
func (p CoinPool) Value() int {
	total := 0
	for coin, count := range p {
		total += coin.Value() * count
	}

	return total
}

// Size returns the total number of coins in the pool.
func (p CoinPool) Size() int {
	total := 0
	for _, count := range p {
		total += count
	}

	return total
}

// Add puts n coins of the given denomination into the pool.
func (p CoinPool) Add(coin Coin, n int) {
	if n <= 0 {
		return
	}

	p[coin] += n
}

// Take removes a single coin and reports whether one was available.
func (p CoinPool) Take(coin Coin) bool {
	if p[coin] <= 0 {
		return false
	}

	p[coin]--
	return true
}

// Merge moves every coin of other into p and leaves other empty.
func (p CoinPool) Merge(other CoinPool) {
	for coin, count := range other {
		p.Add(coin, count)
		other[coin] = 0
	}
}

// Coins lists the pool's contents, quarters first, then dimes, then nickels.
func (p CoinPool) Coins() []Coin {
	coins := make([]Coin, 0, p.Size())
	for _, coin := range acceptedCoins {
		for i := 0; i < p[coin]; i++ {
			coins = append(coins, coin)
		}
	}

	return coins
}

// Clone returns an independent copy of the pool.
func (p CoinPool) Clone() CoinPool {
	clone := NewCoinPool()
	for coin, count := range p {
		clone[coin] = count
	}

	return clone
}

func cloneInventory(inventory map[Product]int) map[Product]int {
	clone := make(map[Product]int, len(inventory))
	for product, count := range inventory {
		clone[product] = count
	}

	return clone
}
