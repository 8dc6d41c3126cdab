package kv

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type item struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func TestCollectionLoadEmpty(t *testing.T) {
	col := NewCollection[item](NewMemoryStore(0), KeyResumes)
	items, err := col.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}
}

func TestCollectionUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	col := NewCollection[item](store, KeyResumes)

	err := col.Update(ctx, func(items []item) ([]item, error) {
		return append(items, item{ID: "a", Count: 1}), nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	raw, _, _ := store.Get(ctx, KeyResumes)
	if string(raw) != `[{"id":"a","count":1}]` {
		t.Fatalf("unexpected stored json %s", raw)
	}

	boom := errors.New("boom")
	if err := col.Update(ctx, func(items []item) ([]item, error) {
		return nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if err := col.Update(ctx, func(items []item) ([]item, error) {
		return nil, ErrNoChange
	}); err != nil {
		t.Fatalf("ErrNoChange should be swallowed: %v", err)
	}

	items, _ := col.Load(ctx)
	if len(items) != 1 {
		t.Fatalf("aborted updates must not write, got %d items", len(items))
	}
}

func TestCollectionUpdateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	col := NewCollection[item](NewMemoryStore(0), KeyATSScoreHistory)
	if err := col.Update(ctx, func([]item) ([]item, error) {
		return []item{{ID: "counter"}}, nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = col.Update(ctx, func(items []item) ([]item, error) {
				items[0].Count++
				return items, nil
			})
		}()
	}
	wg.Wait()

	items, _ := col.Load(ctx)
	if items[0].Count != 20 {
		t.Fatalf("expected 20 increments, got %d", items[0].Count)
	}
}

func TestCollectionQuotaSurfaces(t *testing.T) {
	col := NewCollection[item](NewMemoryStore(5), KeyComments)
	err := col.Update(context.Background(), func(items []item) ([]item, error) {
		return append(items, item{ID: "too-big"}), nil
	})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}
