package journal

import (
	"context"
	"sync"
)

// MemoryJournal keeps entries in process memory.
type MemoryJournal struct {
	mu         sync.RWMutex
	entries    map[string][]Entry
	maxEntries int
}

// NewMemoryJournal returns an in-memory journal retaining maxEntries per machine.
func NewMemoryJournal(maxEntries int) *MemoryJournal {
	return &MemoryJournal{
		entries:    make(map[string][]Entry),
		maxEntries: maxEntriesOrDefault(maxEntries),
	}
}

func (j *MemoryJournal) Append(ctx context.Context, entry Entry) error {
	entry, err := prepare(entry)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entries := append(j.entries[entry.MachineID], entry)
	if overflow := len(entries) - j.maxEntries; overflow > 0 {
		entries = append([]Entry(nil), entries[overflow:]...)
	}
	j.entries[entry.MachineID] = entries

	return nil
}

func (j *MemoryJournal) List(ctx context.Context, machineID string, limit int) ([]Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	entries := j.entries[machineID]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	return append([]Entry(nil), entries...), nil
}
