// Package vending implements the transaction state machine and change engine of a coin-operated
// vending machine.
package vending

import (
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrInvalidArgument indicates a caller passed a value outside the machine's closed domains.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidCoin indicates an unknown coin was deposited.
	ErrInvalidCoin = fmt.Errorf("%w: unknown coin", ErrInvalidArgument)
	// ErrInvalidProduct indicates an unknown product was requested.
	ErrInvalidProduct = fmt.Errorf("%w: unknown product", ErrInvalidArgument)
	// ErrCannotMakeChange indicates the pools cannot cover the owed amount exactly.
	ErrCannotMakeChange = errors.New("cannot make change")
	// ErrInvalidTransition indicates a state/event pair outside the transition table.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// Machine holds the ledgers and transaction state of one vending machine.
// A Machine is not safe for concurrent use.
type Machine struct {
	state        State
	balance      int
	displayPrice int
	inventory    map[Product]int
	customer     CoinPool
	vault        CoinPool
	tray         []Coin
	trayRejects  bool // the tray holds only coins rejected since the last accepted coin
	recorder     func(from, to string)
	log          *slog.Logger
}

// Option configures a Machine at construction time.
type Option func(*Machine)

// WithInventory replaces the default stock. Products missing from inventory start sold out.
func WithInventory(inventory map[Product]int) Option {
	return func(m *Machine) {
		m.inventory = cloneInventory(inventory)
	}
}

// WithVault seeds the operator's coin vault, e.g. with a float for making change.
func WithVault(vault CoinPool) Option {
	return func(m *Machine) {
		m.vault = vault.Clone()
	}
}

// WithLogger sets the logger used for transaction tracing.
func WithLogger(log *slog.Logger) Option {
	return func(m *Machine) {
		if log != nil {
			m.log = log
		}
	}
}

// WithTransitionRecorder observes every state change of the machine.
func WithTransitionRecorder(recorder func(from, to string)) Option {
	return func(m *Machine) {
		m.recorder = recorder
	}
}

// New builds a machine in the InsertCoin state, stocked with DefaultStock of every product unless
// WithInventory says otherwise.
func New(opts ...Option) (*Machine, error) {
	m := &Machine{
		state:     StateInsertCoin,
		inventory: DefaultInventory(),
		customer:  NewCoinPool(),
		vault:     NewCoinPool(),
		tray:      []Coin{},
		log:       slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if err := validateInventory(m.inventory); err != nil {
		return nil, err
	}
	if err := validatePool(m.vault); err != nil {
		return nil, err
	}

	for _, product := range products {
		if _, ok := m.inventory[product]; !ok {
			m.inventory[product] = 0
		}
	}

	return m, nil
}

// Reset restarts the machine with the given inventory, or the default stock when inventory is nil.
// Coins of an unfinished transaction drop into the coin return slot; the vault and any coins already
// in the slot stay where they are.
func (m *Machine) Reset(inventory map[Product]int) error {
	if inventory == nil {
		inventory = DefaultInventory()
	}

	fresh, err := New(WithInventory(inventory), WithVault(m.vault), WithLogger(m.log), WithTransitionRecorder(m.recorder))
	if err != nil {
		return err
	}

	fresh.tray = m.tray
	fresh.trayRejects = m.trayRejects
	if m.customer.Size() > 0 {
		fresh.tray = m.customer.Coins()
		fresh.trayRejects = false
	}

	*m = *fresh
	return nil
}

// DepositCoin feeds a coin into the machine. Nickels, dimes and quarters are credited to the balance and
// DepositCoin returns true; pennies are dropped into the coin return slot and it returns false.
func (m *Machine) DepositCoin(coin Coin) (bool, error) {
	if !coin.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidCoin, coin)
	}

	if !coin.Accepted() {
		// Consecutive rejects pile up while the machine waits for coins; anything else in the tray
		// (change, returned coins) has been taken by the customer.
		if !m.trayRejects || (m.state != StateInsertCoin && m.state != StateHasCustomerCoins) {
			m.tray = []Coin{}
		}
		m.tray = append(m.tray, coin)
		m.trayRejects = true
		m.apply(EventCoinRejected)
		m.log.Debug("coin rejected", slog.String("coin", coin.String()))
		return false, nil
	}

	m.customer.Add(coin, 1)
	m.balance += coin.Value()
	m.tray = []Coin{}
	m.trayRejects = false
	m.apply(EventCoinAccepted)

	m.log.Debug("coin accepted", slog.String("coin", coin.String()), slog.Int("balance", m.balance))
	return true, nil
}

// SelectProduct tries to vend product. It returns the product on success and ProductNone when the
// product is sold out, unaffordable, or change cannot be made; the display explains which.
func (m *Machine) SelectProduct(product Product) (Product, error) {
	price, ok := product.Price()
	if !ok {
		return ProductNone, fmt.Errorf("%w: %q", ErrInvalidProduct, product)
	}

	if m.inventory[product] <= 0 {
		m.apply(EventSoldOut)
		return ProductNone, nil
	}

	if m.balance < price {
		m.displayPrice = price
		m.apply(EventInsufficientFunds)
		return ProductNone, nil
	}

	customer := m.customer.Clone()
	vault := m.vault.Clone()

	change, err := MakeChange(m.balance-price, customer, vault)
	if err != nil {
		if !errors.Is(err, ErrCannotMakeChange) {
			return ProductNone, err
		}

		m.log.Debug("change unavailable",
			slog.String("product", product.String()),
			slog.Int("balance", m.balance),
			slog.Any("error", err),
		)
		m.apply(EventChangeUnavailable)
		return ProductNone, nil
	}

	// Whatever the customer paid beyond the change now belongs to the operator.
	vault.Merge(customer)

	m.vault = vault
	m.customer = NewCoinPool()
	m.tray = change
	m.trayRejects = false
	m.balance = 0
	m.inventory[product]--
	m.apply(EventDispensed)

	m.log.Debug("product dispensed", slog.String("product", product.String()), slog.Int("change_coins", len(change)))
	return product, nil
}

// CheckCoinReturnSlot returns a copy of the coins currently sitting in the coin return slot.
func (m *Machine) CheckCoinReturnSlot() []Coin {
	return append([]Coin{}, m.tray...)
}

// PressCoinReturnButton hands every coin of the current transaction back to the customer.
func (m *Machine) PressCoinReturnButton() {
	m.tray = m.customer.Coins()
	m.trayRejects = false
	m.customer = NewCoinPool()
	m.balance = 0
	m.apply(EventCoinReturn)
}

// ViewDisplayMessage returns the display text. Reading it may move the machine on: PRICE and THANK YOU
// fall back to INSERT COIN, SOLD OUT falls back to the balance or INSERT COIN.
func (m *Machine) ViewDisplayMessage() string {
	message := m.state.DisplayText(m.balance, m.displayPrice)
	m.apply(EventDisplayRead)
	return message
}

// State returns the current transaction state without side effects.
func (m *Machine) State() State {
	return m.state
}

// Balance returns the cents credited to the current transaction.
func (m *Machine) Balance() int {
	return m.balance
}

// Restock adds count units of product to the inventory.
func (m *Machine) Restock(product Product, count int) error {
	if !product.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidProduct, product)
	}
	if count <= 0 {
		return fmt.Errorf("%w: restock count %d", ErrInvalidArgument, count)
	}

	m.inventory[product] += count
	return nil
}

func (m *Machine) apply(ev Event) {
	next, err := Transition(m.state, ev, m.balance)
	if err != nil {
		m.log.Error("state transition rejected", slog.String("from", string(m.state)), slog.String("event", string(ev)), slog.Any("error", err))
		return
	}

	if next != m.state && m.recorder != nil {
		m.recorder(string(m.state), string(next))
	}

	m.state = next
}

func validateInventory(inventory map[Product]int) error {
	for product, count := range inventory {
		if !product.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidProduct, product)
		}
		if count < 0 {
			return fmt.Errorf("%w: negative stock %d for %s", ErrInvalidArgument, count, product)
		}
	}

	return nil
}

func validatePool(pool CoinPool) error {
	for coin, count := range pool {
		if !coin.Accepted() {
			return fmt.Errorf("%w: %q cannot be held in a coin pool", ErrInvalidCoin, coin)
		}
		if count < 0 {
			return fmt.Errorf("%w: negative count %d for %s", ErrInvalidArgument, count, coin)
		}
	}

	return nil
}
