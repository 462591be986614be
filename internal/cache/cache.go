// Package cache implements the read cache behind every list and detail
// screen. Keys are typed (resource kind, optional id, optional filter hash)
// rather than loose strings so invalidation rules stay explicit. Guarantees:
//
//   - at most one in-flight fetch per key; concurrent readers share it
//   - a response whose key was invalidated after the request was issued is
//     discarded instead of overwriting fresher state
//   - failed fetches never satisfy later reads
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type Resource string

const (
	ResourceDelegates  Resource = "delegates"
	ResourceTrainings  Resource = "trainings"
	ResourceBanquet    Resource = "banquet"
	ResourceAttendance Resource = "attendance"
	ResourceAdmins     Resource = "admins"
)

type Key struct {
	Resource Resource
	ID       string
	Filter   string
}

func ListKey(resource Resource, filter string) Key {
	return Key{Resource: resource, Filter: filter}
}

func IDKey(resource Resource, id string) Key {
	return Key{Resource: resource, ID: id}
}

func (k Key) String() string {
	return string(k.Resource) + "|" + k.ID + "|" + k.Filter
}

type State int

const (
	StateIdle State = iota
	StateFetching
	StateSuccess
	StateError
)

type entry struct {
	data      any
	fetchedAt time.Time
	state     State
}

type Store struct {
	mu      sync.Mutex
	entries map[Key]*entry
	gens    map[Key]uint64
	group   singleflight.Group
	log     *logrus.Logger
}

func NewStore(log *logrus.Logger) *Store {
	return &Store{
		entries: make(map[Key]*entry),
		gens:    make(map[Key]uint64),
		log:     log,
	}
}

// GetOrFetch returns the cached value for key, or runs fetch exactly once
// for all concurrent callers of the same key. The fetch runs detached from
// any single caller's cancellation; the upstream client's uniform timeout
// bounds it instead.
func (s *Store) GetOrFetch(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	s.mu.Lock()
	if cached, ok := s.entries[key]; ok && cached.state == StateSuccess {
		data := cached.data
		s.mu.Unlock()
		return data, nil
	}
	// Register the key so invalidation can bump its generation while the
	// fetch is still in flight.
	if _, ok := s.gens[key]; !ok {
		s.gens[key] = 0
	}
	issuedAt := s.gens[key]
	s.entries[key] = &entry{state: StateFetching}
	s.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	value, err, _ := s.group.Do(key.String(), func() (any, error) {
		return fetch(detached)
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[key] != issuedAt {
		// Invalidated while in flight: hand the value to this caller but do
		// not apply it, the next read refetches.
		s.log.WithField("key", key.String()).Debug("discarding stale in-flight response")
		if err != nil {
			return nil, err
		}
		return value, nil
	}

	if err != nil {
		s.entries[key] = &entry{state: StateError, fetchedAt: time.Now().UTC()}
		return nil, err
	}
	s.entries[key] = &entry{data: value, fetchedAt: time.Now().UTC(), state: StateSuccess}
	return value, nil
}

// Peek reports the cached state for key without fetching.
func (s *Store) Peek(key Key) (any, State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.entries[key]
	if !ok {
		return nil, StateIdle, false
	}
	return cached.data, cached.state, true
}

// InvalidateLists marks every list entry of resource stale.
func (s *Store) InvalidateLists(resource Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(func(key Key) bool {
		return key.Resource == resource && key.ID == ""
	})
}

// InvalidateID marks the detail entry for (resource, id) stale.
func (s *Store) InvalidateID(resource Resource, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(func(key Key) bool {
		return key.Resource == resource && key.ID == id
	})
}

// InvalidateResource marks every entry of resource stale, lists and details.
func (s *Store) InvalidateResource(resource Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(func(key Key) bool {
		return key.Resource == resource
	})
}

// Reset drops everything. Called on logout so no previously cached
// authenticated data survives the session.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked(func(Key) bool { return true })
	s.entries = make(map[Key]*entry)
}

func (s *Store) invalidateLocked(match func(Key) bool) {
	for key := range s.gens {
		if match(key) {
			s.gens[key]++
			delete(s.entries, key)
			// Detach any in-flight fetch. Readers arriving after this point
			// must start a fresh one instead of adopting a response that was
			// issued before the invalidation.
			s.group.Forget(key.String())
		}
	}
}

// Fetch is a typed wrapper over Store.GetOrFetch.
func Fetch[T any](ctx context.Context, s *Store, key Key, fetch func(context.Context) (T, error)) (T, error) {
	value, err := s.GetOrFetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		var zero T
		return zero, nil
	}
	return typed, nil
}
