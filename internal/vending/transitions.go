package vending

import "fmt"

// Event is something that happened to the machine and may move it to another state.
type Event string

const (
	EventCoinAccepted      Event = "coin_accepted"
	EventCoinRejected      Event = "coin_rejected"
	EventSoldOut           Event = "sold_out"
	EventInsufficientFunds Event = "insufficient_funds"
	EventDispensed         Event = "dispensed"
	EventChangeUnavailable Event = "change_unavailable"
	EventCoinReturn        Event = "coin_return"
	EventDisplayRead       Event = "display_read"
)

// eventTargets holds the events whose outcome does not depend on the current state.
var eventTargets = map[Event]State{
	EventCoinAccepted:      StateHasCustomerCoins,
	EventSoldOut:           StateSoldOut,
	EventInsufficientFunds: StatePrice,
	EventDispensed:         StateThankYou,
	EventChangeUnavailable: StateExactChangeOnly,
	EventCoinReturn:        StateInsertCoin,
}

func stay(s State) func(int) State {
	return func(int) State { return s }
}

// displayTransitions holds where each state goes once its message has been read.
var displayTransitions = map[State]func(balance int) State{
	StateInsertCoin:       stay(StateInsertCoin),
	StateHasCustomerCoins: stay(StateHasCustomerCoins),
	StateExactChangeOnly:  stay(StateExactChangeOnly),
	StatePrice:            stay(StateInsertCoin),
	StateThankYou:         stay(StateInsertCoin),
	StateSoldOut: func(balance int) State {
		if balance == 0 {
			return StateInsertCoin
		}
		return StateHasCustomerCoins
	},
}

// Transition returns the state the machine moves to when ev happens in state from.
func Transition(from State, ev Event, balance int) (State, error) {
	next, ok := displayTransitions[from]
	if !ok {
		return from, fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, from)
	}

	switch ev {
	case EventDisplayRead:
		return next(balance), nil
	case EventCoinRejected:
		return from, nil
	}

	to, ok := eventTargets[ev]
	if !ok {
		return from, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev)
	}

	return to, nil
}
