// Package journal records an operator audit trail of what each vending machine did.
package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Proton-105/vending-machine/internal/vending"
)

// Kind classifies a journal entry.
type Kind string

const (
	// KindSale records a dispensed product and the change handed out.
	KindSale Kind = "sale"
	// KindChangeFailed records a purchase aborted because change could not be made.
	KindChangeFailed Kind = "change_failed"
	// KindCoinReturn records coins handed back by the coin return button.
	KindCoinReturn Kind = "coin_return"
	// KindCoinRejected records a coin the machine refused.
	KindCoinRejected Kind = "coin_rejected"
	// KindReset records an operator reset of the machine.
	KindReset Kind = "reset"
	// KindRestock records units added to one product's stock.
	KindRestock Kind = "restock"
)

// DefaultMaxEntries bounds how many entries a backend keeps per machine when no limit is configured.
const DefaultMaxEntries = 1000

// ErrInvalidEntry indicates an entry without a machine ID or kind.
var ErrInvalidEntry = errors.New("invalid journal entry")

// Entry is one audited event.
type Entry struct {
	ID        string    `json:"id"`
	MachineID string    `json:"machine_id"`
	Kind      Kind      `json:"kind"`
	Product   string    `json:"product,omitempty"`
	Price     int       `json:"price,omitempty"`
	Coins     []string  `json:"coins,omitempty"`
	Units     int       `json:"units,omitempty"`
	At        time.Time `json:"at"`
}

// Journal stores entries and lists the most recent ones per machine.
type Journal interface {
	// Append stores entry, filling in ID and timestamp when they are empty.
	Append(ctx context.Context, entry Entry) error
	// List returns up to limit of the newest entries for machineID, oldest first.
	List(ctx context.Context, machineID string, limit int) ([]Entry, error)
}

// NewEntry builds an entry for machineID with the given kind and coins.
func NewEntry(machineID string, kind Kind, product vending.Product, coins []vending.Coin) Entry {
	entry := Entry{
		MachineID: machineID,
		Kind:      kind,
		Coins:     coinNames(coins),
	}

	if product != vending.ProductNone {
		entry.Product = product.String()
		entry.Price, _ = product.Price()
	}

	return entry
}

func prepare(entry Entry) (Entry, error) {
	if entry.MachineID == "" || entry.Kind == "" {
		return entry, ErrInvalidEntry
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	return entry, nil
}

func coinNames(coins []vending.Coin) []string {
	if len(coins) == 0 {
		return nil
	}

	names := make([]string, 0, len(coins))
	for _, coin := range coins {
		names = append(names, coin.String())
	}

	return names
}

func maxEntriesOrDefault(maxEntries int) int {
	if maxEntries <= 0 {
		return DefaultMaxEntries
	}
	return maxEntries
}
