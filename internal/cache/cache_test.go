package cache

import (
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()

	if err := c.Set("k", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "payload" {
		t.Fatalf("expected payload, got %q (found=%v)", got, ok)
	}
	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(0)
	defer c.Close()

	_ = c.Set("k", []byte("v"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Error("expired entry should not be returned")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry should be removed, len=%d", c.Len())
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	// room for roughly two small entries
	c := NewMemoryCache(2 * (64 + 10))
	defer c.Close()

	_ = c.Set("a", []byte("12345"), time.Minute)
	_ = c.Set("b", []byte("12345"), time.Minute)
	c.Get("a") // a is now most recent
	_ = c.Set("c", []byte("12345"), time.Minute)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted as least recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a should survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c should be present")
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(1 << 20)
	defer c.Close()

	_ = c.Set("k", []byte("v"), time.Minute)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	st := c.Stats()
	if st.Entries != 1 || st.Hits != 2 || st.Misses != 1 {
		t.Errorf("unexpected stats %+v", st)
	}
	if st.MaxSize != 1<<20 || st.SizeBytes <= 0 {
		t.Errorf("unexpected sizes %+v", st)
	}
	if st.HitRate < 66 || st.HitRate > 67 {
		t.Errorf("expected a 66.7%% hit rate, got %.1f", st.HitRate)
	}
}

func TestKey_StableOrdering(t *testing.T) {
	k1 := Key("GET", "https://x/suggest", map[string]string{"b": "2", "a": "1"})
	k2 := Key("GET", "https://x/suggest", map[string]string{"a": "1", "b": "2"})
	if k1 != k2 {
		t.Errorf("keys differ: %q vs %q", k1, k2)
	}
	if k1 != "GET https://x/suggest?a=1&b=2" {
		t.Errorf("unexpected key %q", k1)
	}
}
