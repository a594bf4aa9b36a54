package vending

// State represents the transaction state shown on the machine's display.
type State string

const (
	// StateInsertCoin indicates the machine is idle and waiting for money.
	StateInsertCoin State = "insert_coin"
	// StateHasCustomerCoins indicates a transaction is in progress and the balance is shown.
	StateHasCustomerCoins State = "has_customer_coins"
	// StatePrice indicates the last selection was not affordable.
	StatePrice State = "price"
	// StateThankYou indicates a product was just dispensed.
	StateThankYou State = "thank_you"
	// StateSoldOut indicates the last selection is out of stock.
	StateSoldOut State = "sold_out"
	// StateExactChangeOnly indicates the machine could not make change for the last selection.
	StateExactChangeOnly State = "exact_change_only"
)

// Display texts.
const (
	MessageInsertCoin      = "INSERT COIN"
	MessageThankYou        = "THANK YOU"
	MessageSoldOut         = "SOLD OUT"
	MessageExactChangeOnly = "EXACT CHANGE ONLY"
	messagePricePrefix     = "PRICE "
)

// States returns every transaction state.
func States() []State {
	return []State{
		StateInsertCoin,
		StateHasCustomerCoins,
		StatePrice,
		StateThankYou,
		StateSoldOut,
		StateExactChangeOnly,
	}
}

// Valid reports whether s is a known state.
func (s State) Valid() bool {
	_, ok := displayTransitions[s]
	return ok
}

// DisplayText renders the message shown while in state s.
func (s State) DisplayText(balance, displayPrice int) string {
	switch s {
	case StateHasCustomerCoins:
		return FormatCents(balance)
	case StatePrice:
		return messagePricePrefix + FormatCents(displayPrice)
	case StateThankYou:
		return MessageThankYou
	case StateSoldOut:
		return MessageSoldOut
	case StateExactChangeOnly:
		return MessageExactChangeOnly
	default:
		return MessageInsertCoin
	}
}
