package alerts

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/dya-app/dya-go/internal/modules/portfolio"
)

// aprKey builds the store key for one (wallet, protocol, asset, kind)
// observation stream. Addresses are lowercased so checksummed and plain hex
// spellings share a history.
func aprKey(address, protocol, asset string, kind portfolio.PositionKind) string {
	return strings.Join([]string{strings.ToLower(address), protocol, asset, string(kind)}, ":")
}

type aprEntry struct {
	apr      decimal.Decimal
	lastSeen time.Time
}

// APRStore remembers the last observed deposit APR per position key. It is
// the only process-lifetime mutable state in the alerting path.
type APRStore struct {
	mu      sync.RWMutex
	entries map[string]aprEntry
	now     func() time.Time
}

// NewAPRStore creates an empty APR store.
func NewAPRStore() *APRStore {
	return &APRStore{
		entries: make(map[string]aprEntry),
		now:     time.Now,
	}
}

// Swap stores apr under key and returns the previously stored value. The
// overwrite is unconditional so the store always reflects the latest
// reading, whether or not the caller raises an alert.
func (s *APRStore) Swap(key string, apr decimal.Decimal) (decimal.Decimal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.entries[key]
	s.entries[key] = aprEntry{apr: apr, lastSeen: s.now()}
	return prev.apr, existed
}

// Len reports the number of tracked keys.
func (s *APRStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Prune drops baselines that have not been observed within the retention
// window and returns how many were removed. Keys seen regularly never lose
// their baseline.
func (s *APRStore) Prune(retention time.Duration) int {
	cutoff := s.now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, e := range s.entries {
		if e.lastSeen.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// snapshotEntry is the on-disk form of one baseline. APR travels as a string
// to keep decimal precision exact across the round trip.
type snapshotEntry struct {
	APR      string    `msgpack:"apr"`
	LastSeen time.Time `msgpack:"last_seen"`
}

// SaveSnapshot persists the store to path so baselines survive restarts.
func (s *APRStore) SaveSnapshot(path string) error {
	s.mu.RLock()
	snapshot := make(map[string]snapshotEntry, len(s.entries))
	for key, e := range s.entries {
		snapshot[key] = snapshotEntry{APR: e.apr.String(), LastSeen: e.lastSeen}
	}
	s.mu.RUnlock()

	data, err := msgpack.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("aprstore: encode snapshot: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("aprstore: write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("aprstore: replace snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores baselines from path. A missing file is not an
// error; a corrupt one is.
func (s *APRStore) LoadSnapshot(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("aprstore: read snapshot: %w", err)
	}

	var snapshot map[string]snapshotEntry
	if err := msgpack.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("aprstore: decode snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range snapshot {
		apr, err := decimal.NewFromString(e.APR)
		if err != nil {
			continue
		}
		s.entries[key] = aprEntry{apr: apr, lastSeen: e.LastSeen}
	}
	return nil
}
