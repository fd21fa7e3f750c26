package acoustid

import (
	"context"
	"errors"
	"testing"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCachePutGet(t *testing.T) {
	c := openTestCache(t)

	c.Put("fp-a", 120, &Candidate{Title: "Imagine", Artist: "John Lennon"})
	cand, ok := c.Get("fp-a", 120)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if cand == nil || cand.Title != "Imagine" || cand.Artist != "John Lennon" {
		t.Errorf("candidate = %+v", cand)
	}
}

func TestCacheNegativeEntry(t *testing.T) {
	c := openTestCache(t)

	c.Put("fp-b", 60, nil)
	cand, ok := c.Get("fp-b", 60)
	if !ok {
		t.Fatal("expected hit for negative entry")
	}
	if cand != nil {
		t.Errorf("candidate = %+v, want nil", cand)
	}
}

func TestCacheMiss(t *testing.T) {
	c := openTestCache(t)

	if cand, ok := c.Get("fp-missing", 60); ok || cand != nil {
		t.Errorf("got (%+v, %v), want miss", cand, ok)
	}
}

func TestCachedLookupHitSkipsService(t *testing.T) {
	c := openTestCache(t)

	calls := 0
	lookup := c.Cached(func(context.Context, string, float64) (*Candidate, error) {
		calls++
		return &Candidate{Title: "Imagine", Artist: "John Lennon"}, nil
	})

	for i := 0; i < 2; i++ {
		cand, err := lookup(context.Background(), "fp-hit", 120)
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if cand == nil || cand.Title != "Imagine" || cand.Artist != "John Lennon" {
			t.Errorf("lookup %d candidate = %+v", i, cand)
		}
	}
	if calls != 1 {
		t.Errorf("service called %d times, want 1", calls)
	}
}

func TestCachedLookupCachesNoMatch(t *testing.T) {
	c := openTestCache(t)

	calls := 0
	lookup := c.Cached(func(context.Context, string, float64) (*Candidate, error) {
		calls++
		return nil, nil
	})

	for i := 0; i < 2; i++ {
		cand, err := lookup(context.Background(), "fp-none", 60)
		if err != nil {
			t.Fatalf("lookup %d: %v", i, err)
		}
		if cand != nil {
			t.Errorf("lookup %d candidate = %+v, want nil", i, cand)
		}
	}
	if calls != 1 {
		t.Errorf("service called %d times, want 1 (no-match cached)", calls)
	}
}

func TestCachedLookupDoesNotCacheErrors(t *testing.T) {
	c := openTestCache(t)

	calls := 0
	lookup := c.Cached(func(context.Context, string, float64) (*Candidate, error) {
		calls++
		return nil, errors.New("service unavailable")
	})

	for i := 0; i < 2; i++ {
		if _, err := lookup(context.Background(), "fp-err", 60); err == nil {
			t.Fatalf("lookup %d: expected error", i)
		}
	}
	if calls != 2 {
		t.Errorf("service called %d times, want 2 (errors retryable)", calls)
	}
}

func TestCacheKeyIncludesDuration(t *testing.T) {
	c := openTestCache(t)

	c.Put("fp-c", 60, &Candidate{Title: "A"})
	if _, ok := c.Get("fp-c", 90); ok {
		t.Error("got hit for same fingerprint with different duration")
	}
}
