package cache

import (
	"errors"
	"testing"
	"time"
)

func TestGetInvokesFetcherOnceWithinTTL(t *testing.T) {
	c := New(time.Minute)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Get("persons", fetch)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v != "value" {
			t.Fatalf("Get = %v, want value", v)
		}
	}

	if calls != 1 {
		t.Errorf("fetcher invoked %d times, want 1", calls)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c := New(time.Minute)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	if _, err := c.Get("persons", fetch); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	c.Invalidate("persons")

	v, err := c.Get("persons", fetch)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("fetcher invoked %d times after invalidate, want 2", calls)
	}
	if v != 2 {
		t.Errorf("Get returned %v after invalidate, want the fresh value 2", v)
	}
}

func TestExpiryIsLazy(t *testing.T) {
	c := New(10 * time.Millisecond)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return calls, nil
	}

	if _, err := c.Get("persons", fetch); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	v, err := c.Get("persons", fetch)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("fetcher invoked %d times after expiry, want 2", calls)
	}
	if v != 2 {
		t.Errorf("Get returned %v after expiry, want 2", v)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	c := New(time.Minute)

	if _, err := c.Get("persons", func() (interface{}, error) { return "a", nil }); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	calls := 0
	if _, err := c.Get("settled_records", func() (interface{}, error) {
		calls++
		return "b", nil
	}); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if calls != 1 {
		t.Error("second key should not be served from the first key's entry")
	}

	c.Invalidate("persons")
	if _, err := c.Get("settled_records", func() (interface{}, error) {
		calls++
		return "b", nil
	}); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if calls != 1 {
		t.Error("invalidating one key must not evict another")
	}
}

func TestStaleFallbackOnFetchError(t *testing.T) {
	c := New(10 * time.Millisecond)

	if _, err := c.Get("persons", func() (interface{}, error) { return "good", nil }); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	storeDown := errors.New("store unavailable")
	v, err := c.Get("persons", func() (interface{}, error) { return nil, storeDown })
	if !errors.Is(err, storeDown) {
		t.Errorf("expected the fetch error to surface, got %v", err)
	}
	if v != "good" {
		t.Errorf("expected stale value alongside the error, got %v", v)
	}
}

func TestFetchErrorWithoutStaleReturnsNil(t *testing.T) {
	c := New(time.Minute)

	boom := errors.New("boom")
	v, err := c.Get("persons", func() (interface{}, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected fetch error, got %v", err)
	}
	if v != nil {
		t.Errorf("expected nil value, got %v", v)
	}

	// The failure must not be cached.
	calls := 0
	if _, err := c.Get("persons", func() (interface{}, error) {
		calls++
		return "ok", nil
	}); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if calls != 1 {
		t.Error("expected refetch after a failed fetch")
	}
}
