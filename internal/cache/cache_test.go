package cache

import (
	"testing"
	"time"
)

type snapshot struct {
	Files []string `json:"files"`
}

func TestKey(t *testing.T) {
	a := Key("recall", "/canon", "a.md:1")
	b := Key("recall", "/canon", "a.md:2")
	if a == b {
		t.Error("Expected different parts to produce different keys")
	}
	if a != Key("recall", "/canon", "a.md:1") {
		t.Error("Expected key to be deterministic")
	}
	if Key("recall", "ab", "c") == Key("recall", "a", "bc") {
		t.Error("Expected part boundaries to matter")
	}
}

func TestLayeredCache_DiskPromotion(t *testing.T) {
	dir := t.TempDir()
	key := Key("recall", "x")

	first := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := SetJSON(first, key, snapshot{Files: []string{"a.md"}}, 0); err != nil {
		t.Fatalf("Expected set to succeed, got %v", err)
	}

	// A fresh cache only has the disk layer populated
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	var got snapshot
	if !GetJSON(second, key, &got) {
		t.Fatal("Expected disk hit")
	}
	if len(got.Files) != 1 || got.Files[0] != "a.md" {
		t.Errorf("Expected [a.md], got %v", got.Files)
	}
	if _, ok := second.memory.Get(key); !ok {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	key := Key("recall", "expired")

	if err := c.Set(key, []byte(`{"files":[]}`), -time.Second); err != nil {
		t.Fatalf("Expected set to succeed, got %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("Expected expired entry to miss")
	}
}

func TestDiskCache_RejectsNonJSON(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)
	if err := c.Set("k", []byte("not json"), 0); err == nil {
		t.Error("Expected error for non-JSON value")
	}
}

func TestLayeredCache_Delete(t *testing.T) {
	c := NewLayeredCache(time.Minute, t.TempDir(), time.Hour)
	key := Key("recall", "gone")

	if err := c.Set(key, []byte(`{}`), 0); err != nil {
		t.Fatalf("Expected set to succeed, got %v", err)
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected delete to succeed, got %v", err)
	}
	if _, ok := c.Get(key); ok {
		t.Error("Expected deleted key to miss")
	}
	if err := c.Delete(key); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	_ = c.Set("k", []byte(`{}`), 0)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected nop cache to never hit")
	}
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	value := []byte(`{"files":["a.md"]}`)

	if err := c.Set("k", value, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value[0] = 'X'

	got, found := c.Get("k")
	if !found {
		t.Fatal("Expected hit")
	}
	if got[0] != '{' {
		t.Errorf("Expected stored value to be isolated from caller, got %q", got)
	}

	got[0] = 'Y'
	again, _ := c.Get("k")
	if again[0] != '{' {
		t.Errorf("Expected returned value to be a copy, got %q", again)
	}

	if c.Len() != 1 {
		t.Errorf("Expected 1 item, got %d", c.Len())
	}
	_ = c.Clear()
	if c.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", c.Len())
	}
}
