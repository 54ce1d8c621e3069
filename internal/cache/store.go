package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"homemoney/internal/log"
)

// DefaultCapacity bounds the in-process mirror.
const DefaultCapacity = 512

// Store is a namespaced key/value cache with per-entry TTL. Every entry is
// kept in an in-process mirror; when a Backend is configured it is written
// through and consulted on mirror misses. Backend failures are logged and
// never returned.
type Store struct {
	namespace string
	prefix    string
	mirror    *LRUCache[Entry]
	backend   Backend
	now       func() time.Time
	logger    *log.Logger
}

type Option func(*Store)

// WithBackend sets the platform backend; nil disables it.
func WithBackend(b Backend) Option {
	return func(s *Store) { s.backend = b }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.WithComponent(log.ComponentCache)
		}
	}
}

// WithCapacity bounds the mirror to n entries.
func WithCapacity(n int) Option {
	return func(s *Store) { s.mirror = NewLRUCache[Entry](n) }
}

// New creates a store whose keys are isolated under namespace.
func New(namespace string, opts ...Option) *Store {
	s := &Store{
		namespace: namespace,
		prefix:    namespacePrefix(namespace),
		mirror:    NewLRUCache[Entry](DefaultCapacity),
		now:       time.Now,
		logger:    log.Discard().WithComponent(log.ComponentCache),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL is a convenience for building the optional ttl argument of Set.
func TTL(d time.Duration) *time.Duration {
	return &d
}

// namespacePrefix length-prefixes ns so that a namespace containing ':'
// can never produce another namespace's keys.
func namespacePrefix(ns string) string {
	return strconv.Itoa(len(ns)) + ":" + ns + ":"
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

// Get returns the value given to Set while the entry is held in memory.
// Entries read back from the backend come in their generic JSON form
// (numbers as float64, objects as map[string]any).
func (s *Store) Get(ctx context.Context, key string) (any, bool) {
	e, ok := s.lookup(ctx, key)
	if !ok {
		return nil, false
	}
	if e.local != nil || e.Value == nil {
		return e.local, true
	}
	var v any
	if err := json.Unmarshal(e.Value, &v); err != nil {
		s.logger.Warn("Cache entry undecodable", log.FieldKey, key, log.FieldError, err.Error())
		return nil, false
	}
	return v, true
}

// GetJSON decodes the cached value into dst and reports whether it did.
func (s *Store) GetJSON(ctx context.Context, key string, dst any) bool {
	e, ok := s.lookup(ctx, key)
	if !ok || e.Value == nil {
		return false
	}
	if err := json.Unmarshal(e.Value, dst); err != nil {
		s.logger.Warn("Cache entry undecodable", log.FieldKey, key, log.FieldError, err.Error())
		return false
	}
	return true
}

// Set stores value under key. A nil ttl never expires.
func (s *Store) Set(ctx context.Context, key string, value any, ttl *time.Duration) {
	full := s.key(key)
	now := s.now()
	e := Entry{StoredAt: now.UnixMilli()}
	if ttl != nil {
		ms := ttl.Milliseconds()
		e.TTL = &ms
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("Cache value not encodable, keeping in memory only", log.FieldKey, key, log.FieldError, err.Error())
		e.local = value
		s.mirror.Set(full, e)
		s.deleteBackend(ctx, full)
		return
	}
	e.Value = raw
	e.local = value
	s.mirror.Set(full, e)

	if s.backend == nil {
		return
	}
	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Warn("Cache entry not encodable", log.FieldKey, key, log.FieldError, err.Error())
		return
	}
	if err := s.backend.Put(ctx, full, data, e.remaining(now)); err != nil {
		s.logger.Warn("Cache backend write failed, using memory", log.FieldKey, key, log.FieldError, err.Error())
	}
}

// Remove deletes key from the mirror and the backend.
func (s *Store) Remove(ctx context.Context, key string) {
	full := s.key(key)
	s.mirror.Delete(full)
	s.deleteBackend(ctx, full)
}

// Cleanup evicts every expired entry and returns how many distinct keys
// were removed.
func (s *Store) Cleanup(ctx context.Context) int {
	now := s.now()
	prefix := s.prefix
	removed := make(map[string]struct{})

	for _, k := range s.mirror.RemoveIf(func(key string, e Entry) bool {
		return strings.HasPrefix(key, prefix) && e.Expired(now)
	}) {
		removed[k] = struct{}{}
	}

	if s.backend != nil {
		keys, err := s.backend.Keys(ctx, prefix)
		if err != nil {
			s.logger.Warn("Cache backend scan failed", log.FieldOperation, log.OpCleanup, log.FieldError, err.Error())
			keys = nil
		}
		for _, k := range keys {
			e, ok, err := s.readBackend(ctx, k)
			corrupt := err != nil
			if !corrupt && !(ok && e.Expired(now)) {
				continue
			}
			s.deleteBackend(ctx, k)
			s.mirror.Delete(k)
			removed[k] = struct{}{}
		}
	}

	if len(removed) > 0 {
		s.logger.Debug("Cache cleanup", log.FieldOperation, log.OpCleanup, log.FieldCount, len(removed))
	}
	return len(removed)
}

// CleanExpired implements Cleaner for the cache Manager.
func (s *Store) CleanExpired() int {
	return s.Cleanup(context.Background())
}

// Len returns the number of entries held in memory.
func (s *Store) Len() int {
	return s.mirror.Size()
}

func (s *Store) lookup(ctx context.Context, key string) (Entry, bool) {
	full := s.key(key)
	now := s.now()

	if e, ok := s.mirror.Get(full); ok {
		if e.Expired(now) {
			s.mirror.Delete(full)
			s.deleteBackend(ctx, full)
			return Entry{}, false
		}
		return e, true
	}

	if s.backend == nil {
		return Entry{}, false
	}
	e, ok, err := s.readBackend(ctx, full)
	if err != nil {
		s.deleteBackend(ctx, full)
		return Entry{}, false
	}
	if !ok {
		return Entry{}, false
	}
	if e.Expired(now) {
		s.deleteBackend(ctx, full)
		return Entry{}, false
	}
	s.mirror.Set(full, e)
	return e, true
}

// readBackend returns ok=false with a nil error for missing keys and for
// backend I/O failures, which are logged. A non-nil error means the stored
// bytes are corrupt.
func (s *Store) readBackend(ctx context.Context, full string) (Entry, bool, error) {
	data, found, err := s.backend.Get(ctx, full)
	if err != nil {
		s.logger.Warn("Cache backend read failed, using memory", log.FieldKey, full, log.FieldError, err.Error())
		return Entry{}, false, nil
	}
	if !found {
		return Entry{}, false, nil
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.logger.Warn("Cache backend entry corrupt", log.FieldKey, full, log.FieldError, err.Error())
		return Entry{}, false, err
	}
	return e, true, nil
}

func (s *Store) deleteBackend(ctx context.Context, full string) {
	if s.backend == nil {
		return
	}
	if err := s.backend.Delete(ctx, full); err != nil {
		s.logger.Warn("Cache backend delete failed", log.FieldKey, full, log.FieldError, err.Error())
	}
}
