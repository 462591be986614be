package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestStore() *Store {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewStore(log)
}

func TestGetOrFetchCachesSuccess(t *testing.T) {
	store := newTestStore()
	key := ListKey(ResourceTrainings, "")
	var calls int32

	fetch := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "result", nil
	}

	for i := 0; i < 3; i++ {
		value, err := store.GetOrFetch(context.Background(), key, fetch)
		if err != nil {
			t.Fatalf("fetch error: %v", err)
		}
		if value != "result" {
			t.Fatalf("expected result, got %v", value)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 fetch, got %d", got)
	}
}

func TestConcurrentCallersShareOneFetch(t *testing.T) {
	store := newTestStore()
	key := ListKey(ResourceDelegates, "page=1")
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})

	fetch := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		return 42, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]any, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.GetOrFetch(context.Background(), key, fetch)
		}(i)
	}

	// Hold the fetch open long enough for every caller to join it.
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected a single shared fetch, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error: %v", i, errs[i])
		}
		if results[i] != 42 {
			t.Fatalf("caller %d got %v", i, results[i])
		}
	}
}

func TestErrorIsNotCachedAsSuccess(t *testing.T) {
	store := newTestStore()
	key := IDKey(ResourceDelegates, "d1")
	var calls int32

	_, err := store.GetOrFetch(context.Background(), key, func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected fetch error")
	}
	if _, state, ok := store.Peek(key); !ok || state != StateError {
		t.Fatalf("expected error entry, got state=%v ok=%v", state, ok)
	}

	value, err := store.GetOrFetch(context.Background(), key, func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("retry error: %v", err)
	}
	if value != "recovered" {
		t.Fatalf("expected recovered, got %v", value)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected error then retry, got %d calls", got)
	}
}

func TestInvalidateListsForcesRefetch(t *testing.T) {
	store := newTestStore()
	key := ListKey(ResourceDelegates, "page=1")
	var calls int32

	fetch := func(context.Context) (any, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}

	first, _ := store.GetOrFetch(context.Background(), key, fetch)
	store.InvalidateLists(ResourceDelegates)
	second, _ := store.GetOrFetch(context.Background(), key, fetch)

	if first == second {
		t.Fatalf("expected refetch after invalidation, got same value %v", first)
	}
}

func TestInvalidateIDLeavesOtherDetailsAlone(t *testing.T) {
	store := newTestStore()
	keyA := IDKey(ResourceDelegates, "d1")
	keyB := IDKey(ResourceDelegates, "d2")
	var callsA, callsB int32

	fetchA := func(context.Context) (any, error) { return int(atomic.AddInt32(&callsA, 1)), nil }
	fetchB := func(context.Context) (any, error) { return int(atomic.AddInt32(&callsB, 1)), nil }

	_, _ = store.GetOrFetch(context.Background(), keyA, fetchA)
	_, _ = store.GetOrFetch(context.Background(), keyB, fetchB)

	store.InvalidateID(ResourceDelegates, "d1")

	_, _ = store.GetOrFetch(context.Background(), keyA, fetchA)
	_, _ = store.GetOrFetch(context.Background(), keyB, fetchB)

	if got := atomic.LoadInt32(&callsA); got != 2 {
		t.Fatalf("expected d1 refetched, got %d calls", got)
	}
	if got := atomic.LoadInt32(&callsB); got != 1 {
		t.Fatalf("expected d2 untouched, got %d calls", got)
	}
}

func TestStaleInFlightResponseIsDiscarded(t *testing.T) {
	store := newTestStore()
	key := IDKey(ResourceDelegates, "d1")
	started := make(chan struct{})
	release := make(chan struct{})

	slowFetch := func(context.Context) (any, error) {
		close(started)
		<-release
		return "stale", nil
	}

	done := make(chan struct{})
	var slowValue any
	go func() {
		defer close(done)
		slowValue, _ = store.GetOrFetch(context.Background(), key, slowFetch)
	}()

	<-started
	store.InvalidateID(ResourceDelegates, "d1")
	close(release)
	<-done

	// The caller still receives the response it waited on.
	if slowValue != "stale" {
		t.Fatalf("expected caller to receive its response, got %v", slowValue)
	}
	// But the cache must not have applied it.
	if _, state, ok := store.Peek(key); ok && state == StateSuccess {
		t.Fatalf("stale response was applied to the cache")
	}

	value, err := store.GetOrFetch(context.Background(), key, func(context.Context) (any, error) {
		return "fresh", nil
	})
	if err != nil {
		t.Fatalf("refetch error: %v", err)
	}
	if value != "fresh" {
		t.Fatalf("expected fresh refetch, got %v", value)
	}
}

func TestReaderAfterInvalidationStartsFreshFetch(t *testing.T) {
	store := newTestStore()
	key := IDKey(ResourceDelegates, "d1")
	started := make(chan struct{})
	release := make(chan struct{})

	slowFetch := func(context.Context) (any, error) {
		close(started)
		<-release
		return "stale", nil
	}

	done := make(chan struct{})
	var slowValue any
	go func() {
		defer close(done)
		slowValue, _ = store.GetOrFetch(context.Background(), key, slowFetch)
	}()

	<-started
	store.InvalidateID(ResourceDelegates, "d1")

	// A read issued after the invalidation must not join the detached
	// fetch; it runs its own and caches the fresh value.
	freshDone := make(chan struct{})
	var freshValue any
	var freshErr error
	go func() {
		defer close(freshDone)
		freshValue, freshErr = store.GetOrFetch(context.Background(), key, func(context.Context) (any, error) {
			return "fresh", nil
		})
	}()

	select {
	case <-freshDone:
	case <-time.After(2 * time.Second):
		t.Fatalf("post-invalidation read joined the detached fetch")
	}
	if freshErr != nil {
		t.Fatalf("fresh fetch error: %v", freshErr)
	}
	if freshValue != "fresh" {
		t.Fatalf("post-invalidation read served %v", freshValue)
	}

	close(release)
	<-done
	if slowValue != "stale" {
		t.Fatalf("detached caller should still receive its response, got %v", slowValue)
	}

	value, state, ok := store.Peek(key)
	if !ok || state != StateSuccess || value != "fresh" {
		t.Fatalf("cache holds %v (state=%v ok=%v), want fresh", value, state, ok)
	}
}

func TestResetDropsEverything(t *testing.T) {
	store := newTestStore()
	var calls int32
	fetch := func(context.Context) (any, error) { return int(atomic.AddInt32(&calls, 1)), nil }

	keys := []Key{
		ListKey(ResourceDelegates, ""),
		IDKey(ResourceDelegates, "d1"),
		ListKey(ResourceTrainings, ""),
	}
	for _, key := range keys {
		_, _ = store.GetOrFetch(context.Background(), key, fetch)
	}

	store.Reset()

	for _, key := range keys {
		if _, _, ok := store.Peek(key); ok {
			t.Fatalf("expected %s dropped after reset", key.String())
		}
	}
	for _, key := range keys {
		_, _ = store.GetOrFetch(context.Background(), key, fetch)
	}
	if got := atomic.LoadInt32(&calls); got != 6 {
		t.Fatalf("expected refetch of all keys after reset, got %d calls", got)
	}
}

func TestTypedFetch(t *testing.T) {
	store := newTestStore()
	key := ListKey(ResourceBanquet, "")

	value, err := Fetch(context.Background(), store, key, func(context.Context) ([]string, error) {
		return []string{"t1", "t2"}, nil
	})
	if err != nil {
		t.Fatalf("fetch error: %v", err)
	}
	if len(value) != 2 || value[0] != "t1" {
		t.Fatalf("unexpected value: %v", value)
	}
}
