// Package fleet runs many independent vending machines, one per customer session.
package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	apperrors "github.com/Proton-105/vending-machine/internal/errors"
	"github.com/Proton-105/vending-machine/internal/journal"
	"github.com/Proton-105/vending-machine/internal/vending"
	"github.com/Proton-105/vending-machine/pkg/metrics"
)

// ErrInvalidMachineID indicates an empty machine identifier.
var ErrInvalidMachineID = errors.New("machine id is required")

// Options configures a Service.
type Options struct {
	// DefaultStock is the number of units of each product a new machine starts with.
	DefaultStock int
	Journal      journal.Journal
	Log          *slog.Logger
}

// Service owns one vending.Machine per machine ID and serialises access to each of them.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session
	journal  journal.Journal
	breaker  *apperrors.CircuitBreaker
	stock    int
	log      *slog.Logger
	now      func() time.Time
}

// journalBatch collects journal entries while a machine is locked; they are written once it is released.
type journalBatch []journal.Entry

func (e *journalBatch) add(entry journal.Entry) {
	*e = append(*e, entry)
}

type session struct {
	mu       sync.Mutex
	machine  *vending.Machine
	lastUsed time.Time
	evicted  bool
}

// NewService builds an empty fleet. Machines are created on first use.
func NewService(opts Options) *Service {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	j := opts.Journal
	if j == nil {
		j = journal.NewMemoryJournal(journal.DefaultMaxEntries)
	}

	return &Service{
		sessions: make(map[string]*session),
		journal:  j,
		breaker:  apperrors.NewCircuitBreaker(),
		stock:    opts.DefaultStock,
		log:      log,
		now:      time.Now,
	}
}

// Deposit feeds coin into the machine and reports whether it was credited.
func (s *Service) Deposit(ctx context.Context, machineID string, coin vending.Coin) (bool, error) {
	var accepted bool

	err := s.withMachine(ctx, machineID, func(m *vending.Machine, pending *journalBatch) error {
		var err error
		accepted, err = m.DepositCoin(coin)
		if err != nil {
			return err
		}

		metrics.RecordCoin(coin.String(), accepted)
		if !accepted {
			pending.add(journal.NewEntry(machineID, journal.KindCoinRejected, vending.ProductNone, []vending.Coin{coin}))
		}
		return nil
	})

	return accepted, err
}

// Select asks the machine for product and returns what was dispensed.
func (s *Service) Select(ctx context.Context, machineID string, product vending.Product) (vending.Product, error) {
	got := vending.ProductNone

	err := s.withMachine(ctx, machineID, func(m *vending.Machine, pending *journalBatch) error {
		var err error
		got, err = m.SelectProduct(product)
		if err != nil {
			return err
		}

		switch {
		case got != vending.ProductNone:
			metrics.RecordSale(got.String())
			pending.add(journal.NewEntry(machineID, journal.KindSale, got, m.CheckCoinReturnSlot()))
		case m.State() == vending.StateExactChangeOnly:
			metrics.RecordChangeFailure(product.String())
			pending.add(journal.NewEntry(machineID, journal.KindChangeFailed, product, nil))
		}
		return nil
	})

	return got, err
}

// Return presses the coin return button and returns the coins handed back.
func (s *Service) Return(ctx context.Context, machineID string) ([]vending.Coin, error) {
	var returned []vending.Coin

	err := s.withMachine(ctx, machineID, func(m *vending.Machine, pending *journalBatch) error {
		returned = returnCoins(machineID, m, pending)
		return nil
	})

	return returned, err
}

// Display reads the machine's display, which may advance its state.
func (s *Service) Display(ctx context.Context, machineID string) (string, error) {
	var message string

	err := s.withMachine(ctx, machineID, func(m *vending.Machine, _ *journalBatch) error {
		message = m.ViewDisplayMessage()
		return nil
	})

	return message, err
}

// Tray returns the coins sitting in the coin return slot.
func (s *Service) Tray(ctx context.Context, machineID string) ([]vending.Coin, error) {
	var tray []vending.Coin

	err := s.withMachine(ctx, machineID, func(m *vending.Machine, _ *journalBatch) error {
		tray = m.CheckCoinReturnSlot()
		return nil
	})

	return tray, err
}

// Snapshot returns a copy of the machine's ledgers without changing its state.
func (s *Service) Snapshot(ctx context.Context, machineID string) (vending.Snapshot, error) {
	var snap vending.Snapshot

	err := s.withMachine(ctx, machineID, func(m *vending.Machine, _ *journalBatch) error {
		snap = m.Snapshot()
		return nil
	})

	return snap, err
}

// Reset restocks the machine with the default inventory, handing back any pending coins first.
func (s *Service) Reset(ctx context.Context, machineID string) error {
	return s.withMachine(ctx, machineID, func(m *vending.Machine, pending *journalBatch) error {
		if m.Balance() > 0 {
			returnCoins(machineID, m, pending)
		}

		if err := m.Reset(s.inventory()); err != nil {
			return err
		}

		pending.add(journal.NewEntry(machineID, journal.KindReset, vending.ProductNone, nil))
		return nil
	})
}

// Restock adds count units of product to the machine.
func (s *Service) Restock(ctx context.Context, machineID string, product vending.Product, count int) error {
	return s.withMachine(ctx, machineID, func(m *vending.Machine, pending *journalBatch) error {
		if err := m.Restock(product, count); err != nil {
			return err
		}
		pending.add(restockEntry(machineID, product, count))
		return nil
	})
}

// TopUp restocks every machine so each product has at least level units and returns the units added.
func (s *Service) TopUp(ctx context.Context, level int) (int, error) {
	if level <= 0 {
		return 0, apperrors.NewValidationError("top-up level must be positive", fmt.Errorf("%w: level %d", vending.ErrInvalidArgument, level))
	}

	added := 0
	for id, sess := range s.snapshotSessions() {
		if err := ctx.Err(); err != nil {
			return added, err
		}

		var pending journalBatch
		sess.mu.Lock()
		if !sess.evicted {
			inventory := sess.machine.Snapshot().Inventory
			for _, product := range vending.Products() {
				missing := level - inventory[product]
				if missing <= 0 {
					continue
				}
				if err := sess.machine.Restock(product, missing); err != nil {
					sess.mu.Unlock()
					s.recordAll(ctx, pending)
					return added, translate(err)
				}
				pending.add(restockEntry(id, product, missing))
				added += missing
			}
		}
		sess.mu.Unlock()
		s.recordAll(ctx, pending)
	}

	return added, nil
}

func restockEntry(machineID string, product vending.Product, count int) journal.Entry {
	entry := journal.NewEntry(machineID, journal.KindRestock, product, nil)
	entry.Units = count
	return entry
}

// History lists the newest journal entries of the machine.
func (s *Service) History(ctx context.Context, machineID string, limit int) ([]journal.Entry, error) {
	if machineID == "" {
		return nil, apperrors.NewValidationError(ErrInvalidMachineID.Error(), ErrInvalidMachineID)
	}

	return s.journal.List(ctx, machineID, limit)
}

// Snapshots returns a snapshot of every machine in the fleet keyed by machine ID.
func (s *Service) Snapshots(ctx context.Context) map[string]vending.Snapshot {
	snapshots := make(map[string]vending.Snapshot)

	for id, sess := range s.snapshotSessions() {
		if ctx.Err() != nil {
			break
		}

		sess.mu.Lock()
		if !sess.evicted {
			snapshots[id] = sess.machine.Snapshot()
		}
		sess.mu.Unlock()
	}

	return snapshots
}

// States returns the current state of every machine in the fleet.
func (s *Service) States(ctx context.Context) map[string]vending.State {
	states := make(map[string]vending.State)

	for id, sess := range s.snapshotSessions() {
		sess.mu.Lock()
		if !sess.evicted {
			states[id] = sess.machine.State()
		}
		sess.mu.Unlock()
	}

	return states
}

// Evict drops machines idle for longer than ttl, returning any pending coins to their customers.
// It returns the IDs of the evicted machines in sorted order.
func (s *Service) Evict(ctx context.Context, ttl time.Duration) []string {
	cutoff := s.now().Add(-ttl)
	var evicted []string

	for id, sess := range s.snapshotSessions() {
		sess.mu.Lock()
		if sess.evicted || sess.lastUsed.After(cutoff) {
			sess.mu.Unlock()
			continue
		}

		var pending journalBatch
		if sess.machine.Balance() > 0 {
			coins := returnCoins(id, sess.machine, &pending)
			s.log.Info("returned pending coins of idle machine", slog.String("machine_id", id), slog.Int("coins", len(coins)))
		}
		sess.evicted = true
		sess.mu.Unlock()
		s.recordAll(ctx, pending)

		s.mu.Lock()
		if s.sessions[id] == sess {
			delete(s.sessions, id)
		}
		s.mu.Unlock()

		evicted = append(evicted, id)
	}

	sort.Strings(evicted)
	return evicted
}

// withMachine runs fn with the machine locked, then journals what fn collected.
func (s *Service) withMachine(ctx context.Context, machineID string, fn func(m *vending.Machine, pending *journalBatch) error) error {
	if machineID == "" {
		return apperrors.NewValidationError(ErrInvalidMachineID.Error(), ErrInvalidMachineID)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	for {
		sess, err := s.session(machineID)
		if err != nil {
			return err
		}

		sess.mu.Lock()
		if sess.evicted {
			// Lost a race with the cleaner; the next lookup builds a fresh machine.
			sess.mu.Unlock()
			continue
		}

		var pending journalBatch
		err = fn(sess.machine, &pending)
		sess.lastUsed = s.now()
		sess.mu.Unlock()

		s.recordAll(ctx, pending)
		return translate(err)
	}
}

func (s *Service) session(machineID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[machineID]; ok {
		return sess, nil
	}

	m, err := vending.New(
		vending.WithInventory(s.inventory()),
		vending.WithLogger(s.log.With(slog.String("machine_id", machineID))),
		vending.WithTransitionRecorder(metrics.RecordStateTransition),
	)
	if err != nil {
		return nil, fmt.Errorf("create machine %s: %w", machineID, err)
	}

	sess := &session{machine: m, lastUsed: s.now()}
	s.sessions[machineID] = sess
	s.log.Info("machine created", slog.String("machine_id", machineID))

	return sess, nil
}

func (s *Service) snapshotSessions() map[string]*session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := make(map[string]*session, len(s.sessions))
	for id, sess := range s.sessions {
		sessions[id] = sess
	}

	return sessions
}

func returnCoins(machineID string, m *vending.Machine, pending *journalBatch) []vending.Coin {
	m.PressCoinReturnButton()
	returned := m.CheckCoinReturnSlot()

	if len(returned) > 0 {
		pending.add(journal.NewEntry(machineID, journal.KindCoinReturn, vending.ProductNone, returned))
	}

	return returned
}

func (s *Service) inventory() map[vending.Product]int {
	inventory := make(map[vending.Product]int)
	for _, product := range vending.Products() {
		inventory[product] = s.stock
	}

	return inventory
}

func (s *Service) recordAll(ctx context.Context, pending journalBatch) {
	for _, entry := range pending {
		s.record(ctx, entry)
	}
}

// record appends to the journal. A failing journal never fails the customer's operation.
func (s *Service) record(ctx context.Context, entry journal.Entry) {
	err := s.breaker.Call(func() error {
		return apperrors.WithRetry(ctx, func() error {
			return s.journal.Append(ctx, entry)
		})
	})
	if err == nil {
		return
	}

	metrics.RecordError("journal", string(apperrors.SeverityHigh))
	s.log.Error("failed to record journal entry",
		slog.String("machine_id", entry.MachineID),
		slog.String("kind", string(entry.Kind)),
		slog.Any("error", err),
	)
}

func translate(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, vending.ErrInvalidArgument) {
		return apperrors.NewValidationError(err.Error(), err)
	}

	return err
}
