// Package recents keeps the bounded, deduplicated list of recently selected
// patients and mirrors it into a persistent key/value store.
package recents

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"patientsearch/internal/domain"
	"patientsearch/internal/storage"
)

const (
	// DefaultKey is the storage key the list is persisted under
	DefaultKey = "recentPatientSearches"
	// DefaultCapacity is the maximum number of entries kept
	DefaultCapacity = 5
)

// Option configures a Store
type Option func(*Store)

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithCapacity overrides the entry cap. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// Store is the recency cache. Entries are most-recent-first and unique by id.
type Store struct {
	mu       sync.RWMutex
	kv       storage.Store
	key      string
	capacity int
	entries  []domain.PatientSummary
	logger   *zap.Logger
}

// New creates a store and loads the persisted list.
// Loading never fails: unreadable or malformed data yields an empty list,
// and malformed data is removed from storage.
func New(kv storage.Store, logger *zap.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		kv:       kv,
		key:      DefaultKey,
		capacity: DefaultCapacity,
		logger:   logger.Named("recents"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.entries = s.load()
	return s
}

func (s *Store) load() []domain.PatientSummary {
	raw, ok, err := s.kv.Get(s.key)
	if err != nil {
		s.logger.Warn("failed to read recent searches", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	entries, err := decode(raw)
	if err != nil {
		s.logger.Warn("discarding corrupted recent searches", zap.String("key", s.key), zap.Error(err))
		if rmErr := s.kv.Remove(s.key); rmErr != nil {
			s.logger.Error("failed to purge corrupted recent searches", zap.String("key", s.key), zap.Error(rmErr))
		}
		return nil
	}
	return s.normalize(entries)
}

func decode(raw string) ([]domain.PatientSummary, error) {
	// null and scalars would otherwise decode to an empty list
	if !strings.HasPrefix(strings.TrimSpace(raw), "[") {
		return nil, errors.New("value is not a JSON array")
	}
	var entries []domain.PatientSummary
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	for i, e := range entries {
		if e.ID == "" {
			return nil, fmt.Errorf("entry %d has no id", i)
		}
	}
	return entries, nil
}

// normalize drops later duplicates and truncates to capacity
func (s *Store) normalize(entries []domain.PatientSummary) []domain.PatientSummary {
	seen := make(map[domain.PatientID]bool, len(entries))
	out := make([]domain.PatientSummary, 0, min(len(entries), s.capacity))
	for _, e := range entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		out = append(out, e)
		if len(out) == s.capacity {
			break
		}
	}
	return out
}

// RecordSelection moves p to the front, removing any older entry with the
// same id, truncates to capacity and persists the result.
// The in-memory list is updated even when persisting fails.
func (s *Store) RecordSelection(p domain.PatientSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := make([]domain.PatientSummary, 0, s.capacity)
	updated = append(updated, p)
	for _, e := range s.entries {
		if e.ID == p.ID {
			continue
		}
		if len(updated) == s.capacity {
			break
		}
		updated = append(updated, e)
	}
	s.entries = updated

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("failed to encode recent searches: %w", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("failed to persist recent searches: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current list, most recent first
func (s *Store) Snapshot() []domain.PatientSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PatientSummary, len(s.entries))
	copy(result, s.entries)
	return result
}

// Len returns the number of cached entries
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Clear empties the list and deletes the persisted key
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if err := s.kv.Remove(s.key); err != nil {
		return fmt.Errorf("failed to remove recent searches: %w", err)
	}
	return nil
}

// Capacity returns the entry cap
func (s *Store) Capacity() int {
	return s.capacity
}
