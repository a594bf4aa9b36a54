package vending

// Snapshot is a read-only copy of a machine's ledgers.
type Snapshot struct {
	State        State           `json:"state"`
	Display      string          `json:"display"`
	Balance      int             `json:"balance"`
	DisplayPrice int             `json:"display_price"`
	Inventory    map[Product]int `json:"inventory"`
	Customer     CoinPool        `json:"customer"`
	Vault        CoinPool        `json:"vault"`
	Tray         []Coin          `json:"tray"`
}

// Snapshot copies the machine's ledgers. Unlike ViewDisplayMessage it never changes state.
func (m *Machine) Snapshot() Snapshot {
	return Snapshot{
		State:        m.state,
		Display:      m.state.DisplayText(m.balance, m.displayPrice),
		Balance:      m.balance,
		DisplayPrice: m.displayPrice,
		Inventory:    cloneInventory(m.inventory),
		Customer:     m.customer.Clone(),
		Vault:        m.vault.Clone(),
		Tray:         m.CheckCoinReturnSlot(),
	}
}

// CoinsHeld returns every coin of the given denomination held in the customer cache, vault and tray.
func (s Snapshot) CoinsHeld(coin Coin) int {
	held := s.Customer.Count(coin) + s.Vault.Count(coin)
	for _, c := range s.Tray {
		if c == coin {
			held++
		}
	}

	return held
}
