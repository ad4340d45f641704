package cache

import (
	"testing"
	"time"
)

func TestGetMissingKey(t *testing.T) {
	c := New[string](time.Hour)

	if v, ok := c.Get("absent"); ok {
		t.Errorf("expected miss for absent key, got %q", v)
	}
}

func TestSetThenGet(t *testing.T) {
	c := New[int](time.Hour)
	c.Set("answer", 42)

	v, ok := c.Get("answer")
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if v != 42 {
		t.Errorf("expected 42, got %d", v)
	}
}

func TestExpiredEntryIsAbsentAndEvicted(t *testing.T) {
	c := New[string](10 * time.Millisecond)
	c.Set("key", "value")

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("expected expired entry to be treated as absent")
	}
	if c.Len() != 0 {
		t.Errorf("expected lazy eviction on lookup, %d entries remain", c.Len())
	}
}

func TestExpiredEntryStaysUntilLookup(t *testing.T) {
	c := New[string](10 * time.Millisecond)
	c.Set("key", "value")

	time.Sleep(20 * time.Millisecond)

	// No background sweep: the entry is still stored until someone asks for it
	if c.Len() != 1 {
		t.Errorf("expected entry to remain before lookup, got %d entries", c.Len())
	}
}

func TestOverwriteResetsTimestamp(t *testing.T) {
	c := New[string](50 * time.Millisecond)
	c.Set("key", "old")

	time.Sleep(30 * time.Millisecond)
	c.Set("key", "new")
	time.Sleep(30 * time.Millisecond)

	// 60ms after the first write but only 30ms after the second
	v, ok := c.Get("key")
	if !ok {
		t.Fatal("expected hit, overwrite should reset the entry timestamp")
	}
	if v != "new" {
		t.Errorf("expected %q, got %q", "new", v)
	}
}

func TestDelete(t *testing.T) {
	c := New[int](time.Hour)
	c.Set("key", 1)
	c.Delete("key")

	if _, ok := c.Get("key"); ok {
		t.Error("expected miss after Delete")
	}
}
