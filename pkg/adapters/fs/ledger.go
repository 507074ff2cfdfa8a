package fs

import (
	"sync"
	"time"
)

// ledgerEntry records how much of a file has already been handed out.
type ledgerEntry struct {
	LastModified time.Time
	Applied      int
}

// ledger tracks every action file the source has read, keyed by its
// slash-separated path relative to the source root.
type ledger struct {
	mu      sync.RWMutex
	entries map[string]ledgerEntry
}

func newLedger() *ledger {
	return &ledger{entries: make(map[string]ledgerEntry)}
}

// Fresh reports whether relPath was read at exactly currentMtime.
func (l *ledger) Fresh(relPath string, currentMtime time.Time) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[relPath]
	return ok && entry.LastModified.Equal(currentMtime)
}

// Get returns the entry for relPath, fresh or not.
func (l *ledger) Get(relPath string) (ledgerEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entry, ok := l.entries[relPath]
	return entry, ok
}

func (l *ledger) Set(relPath string, entry ledgerEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[relPath] = entry
}

func (l *ledger) Delete(relPath string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, relPath)
}

// Len returns the number of tracked files.
func (l *ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Total returns the number of actions handed out across all files.
func (l *ledger) Total() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, e := range l.entries {
		n += e.Applied
	}
	return n
}
