package cache

import (
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestLRU(capacity int, ttl time.Duration) (*LRU[string, int], *fakeClock) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[string, int](capacity, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestLRU(2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a")
	}
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("expected a=1, got %d ok=%v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", c.Len())
	}
}

func TestLRUExpiry(t *testing.T) {
	c, clk := newTestLRU(10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	clk.t = clk.t.Add(30 * time.Second)
	c.Set("b", 3)
	clk.t = clk.t.Add(45 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if v, ok := c.Get("b"); !ok || v != 3 {
		t.Fatalf("expected refreshed b=3, got %d ok=%v", v, ok)
	}
	clk.t = clk.t.Add(time.Hour)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry, got %d", n)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
}

func TestLRUAdd(t *testing.T) {
	c, clk := newTestLRU(10, time.Minute)
	if !c.Add("id", 1) {
		t.Fatal("first add should store")
	}
	if c.Add("id", 2) {
		t.Fatal("second add should not store")
	}
	clk.t = clk.t.Add(2 * time.Minute)
	if !c.Add("id", 3) {
		t.Fatal("add after expiry should store")
	}
}

func TestLRUDeleteFunc(t *testing.T) {
	c, _ := newTestLRU(10, 0)
	c.Set("u1|month", 1)
	c.Set("u1|month_year", 2)
	c.Set("u2|month", 3)
	if n := c.DeleteFunc(func(k string) bool { return strings.HasPrefix(k, "u1|") }); n != 2 {
		t.Fatalf("expected 2 deletions, got %d", n)
	}
	if _, ok := c.Get("u2|month"); !ok {
		t.Fatal("u2 entry should remain")
	}
	c.Delete("u2|month")
	if c.Len() != 0 {
		t.Fatalf("expected empty cache, got %d", c.Len())
	}
}

func TestJanitorSweep(t *testing.T) {
	a, clk := newTestLRU(10, time.Minute)
	a.Set("x", 1)
	b, _ := newTestLRU(10, 0)
	b.Set("y", 2)
	clk.t = clk.t.Add(2 * time.Minute)

	j := NewJanitor(time.Second, nil, a, b)
	if n := j.Sweep(); n != 1 {
		t.Fatalf("expected 1 removal, got %d", n)
	}
}
