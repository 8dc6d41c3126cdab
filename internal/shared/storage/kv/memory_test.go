package kv

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreQuota(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)

	if err := store.Set(ctx, KeyResumes, []byte("12345")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, KeyVersions, []byte("123456")); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	// Overwriting a key only counts the delta.
	if err := store.Set(ctx, KeyResumes, []byte("1234567890")); err != nil {
		t.Fatalf("overwrite within quota: %v", err)
	}
	if store.Used() != 10 {
		t.Fatalf("expected 10 bytes used, got %d", store.Used())
	}

	val, ok, err := store.Get(ctx, KeyResumes)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if string(val) != "1234567890" {
		t.Fatalf("unexpected value %q", val)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore(0)
	_, ok, err := store.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected missing key")
	}
}

func TestMemoryStoreFailWith(t *testing.T) {
	store := NewMemoryStore(0)
	boom := errors.New("boom")
	store.FailWith(func(key string) error {
		if key == KeyComments {
			return boom
		}
		return nil
	})
	if err := store.Set(context.Background(), KeyComments, []byte("[]")); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	if err := store.Set(context.Background(), KeyResumes, []byte("[]")); err != nil {
		t.Fatalf("unexpected error for other key: %v", err)
	}
}
