package vending

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	testCases := []struct {
		name     string
		from     State
		event    Event
		balance  int
		expected State
	}{
		{name: "accepted coin from insert coin", from: StateInsertCoin, event: EventCoinAccepted, expected: StateHasCustomerCoins},
		{name: "accepted coin clears exact change only", from: StateExactChangeOnly, event: EventCoinAccepted, balance: 75, expected: StateHasCustomerCoins},
		{name: "rejected coin keeps price", from: StatePrice, event: EventCoinRejected, expected: StatePrice},
		{name: "rejected coin keeps insert coin", from: StateInsertCoin, event: EventCoinRejected, expected: StateInsertCoin},
		{name: "sold out", from: StateHasCustomerCoins, event: EventSoldOut, balance: 25, expected: StateSoldOut},
		{name: "insufficient funds", from: StateInsertCoin, event: EventInsufficientFunds, expected: StatePrice},
		{name: "dispensed", from: StateHasCustomerCoins, event: EventDispensed, expected: StateThankYou},
		{name: "change unavailable", from: StateHasCustomerCoins, event: EventChangeUnavailable, balance: 75, expected: StateExactChangeOnly},
		{name: "coin return", from: StateExactChangeOnly, event: EventCoinReturn, expected: StateInsertCoin},
		{name: "display insert coin stays", from: StateInsertCoin, event: EventDisplayRead, expected: StateInsertCoin},
		{name: "display balance stays", from: StateHasCustomerCoins, event: EventDisplayRead, balance: 10, expected: StateHasCustomerCoins},
		{name: "display exact change only stays", from: StateExactChangeOnly, event: EventDisplayRead, balance: 75, expected: StateExactChangeOnly},
		{name: "display price falls back", from: StatePrice, event: EventDisplayRead, balance: 25, expected: StateInsertCoin},
		{name: "display thank you falls back", from: StateThankYou, event: EventDisplayRead, expected: StateInsertCoin},
		{name: "display sold out without money", from: StateSoldOut, event: EventDisplayRead, expected: StateInsertCoin},
		{name: "display sold out with money", from: StateSoldOut, event: EventDisplayRead, balance: 65, expected: StateHasCustomerCoins},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			actual, err := Transition(tc.from, tc.event, tc.balance)
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func TestTransition_Invalid(t *testing.T) {
	_, err := Transition(State("unknown"), EventCoinAccepted, 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	state, err := Transition(StateInsertCoin, Event("kick"), 0)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateInsertCoin, state)
}

func TestState_DisplayText(t *testing.T) {
	testCases := []struct {
		state    State
		balance  int
		price    int
		expected string
	}{
		{state: StateInsertCoin, expected: "INSERT COIN"},
		{state: StateHasCustomerCoins, balance: 65, expected: "$0.65"},
		{state: StatePrice, price: 100, expected: "PRICE $1.00"},
		{state: StateThankYou, expected: "THANK YOU"},
		{state: StateSoldOut, balance: 50, expected: "SOLD OUT"},
		{state: StateExactChangeOnly, expected: "EXACT CHANGE ONLY"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, tc.state.DisplayText(tc.balance, tc.price), "state %s", tc.state)
	}

	for _, s := range States() {
		assert.True(t, s.Valid(), "state %s", s)
	}
}
