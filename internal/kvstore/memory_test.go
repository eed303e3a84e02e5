package kvstore

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16)

	if err := s.Set(ctx, "k1", []byte("hello"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	v, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(v) != "hello" {
		t.Errorf("Get() = %q, want %q", v, "hello")
	}
}

func TestMemoryStoreGetMissingKey(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16)

	if _, err := s.Get(ctx, "missing"); err != ErrNotFound {
		t.Errorf("Get() error = %v, want %v", err, ErrNotFound)
	}
}

func TestMemoryStoreExpiresAfterTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16)

	if err := s.Set(ctx, "k1", []byte("short-lived"), 10*time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if _, err := s.Get(ctx, "k1"); err != ErrNotFound {
		t.Errorf("Get() after TTL expiry error = %v, want %v", err, ErrNotFound)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16)

	if err := s.Set(ctx, "k1", []byte("v"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "k1"); err != ErrNotFound {
		t.Errorf("Get() after Delete() error = %v, want %v", err, ErrNotFound)
	}
}

func TestMemoryStoreZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(16)

	if err := s.Set(ctx, "k1", []byte("permanent"), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	v, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get() of a zero-TTL entry error = %v", err)
	}
	if string(v) != "permanent" {
		t.Errorf("Get() = %q, want %q", v, "permanent")
	}
}
