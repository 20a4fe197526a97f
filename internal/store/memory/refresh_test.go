package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestNewRefreshStore(t *testing.T) {
	store := NewRefreshStore()
	if store == nil {
		t.Fatal("NewRefreshStore() returned nil")
	}
	if store.Count() != 0 {
		t.Errorf("NewRefreshStore() should start empty, got %v", store.Count())
	}
}

func TestAddHasRemove(t *testing.T) {
	ctx := context.Background()
	store := NewRefreshStore()

	if err := store.Add(ctx, "tok-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	ok, err := store.Has(ctx, "tok-1")
	if err != nil || !ok {
		t.Errorf("Has(tok-1) = %v, %v, want true, nil", ok, err)
	}

	if err := store.Remove(ctx, "tok-1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	ok, _ = store.Has(ctx, "tok-1")
	if ok {
		t.Error("Has(tok-1) should be false after Remove()")
	}
}

func TestRemoveAbsentIsNoop(t *testing.T) {
	store := NewRefreshStore()
	if err := store.Remove(context.Background(), "never-added"); err != nil {
		t.Errorf("Remove() on absent token error = %v, want nil", err)
	}
}

func TestIterateAllowsRemove(t *testing.T) {
	ctx := context.Background()
	store := NewRefreshStore()
	for i := range 5 {
		_ = store.Add(ctx, fmt.Sprintf("tok-%d", i), time.Now())
	}

	seen := 0
	err := store.Iterate(ctx, func(token string) bool {
		seen++
		_ = store.Remove(ctx, token)
		return true
	})
	if err != nil {
		t.Fatalf("Iterate() error = %v", err)
	}
	if seen != 5 {
		t.Errorf("Iterate() visited %v tokens, want 5", seen)
	}
	if store.Count() != 0 {
		t.Errorf("Count() = %v after removing all, want 0", store.Count())
	}
}

func TestIterateStopsEarly(t *testing.T) {
	ctx := context.Background()
	store := NewRefreshStore()
	for i := range 3 {
		_ = store.Add(ctx, fmt.Sprintf("tok-%d", i), time.Now())
	}

	seen := 0
	_ = store.Iterate(ctx, func(string) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Errorf("Iterate() visited %v tokens after fn returned false, want 1", seen)
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewRefreshStore()
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token := fmt.Sprintf("tok-%d", i)
			_ = store.Add(ctx, token, time.Now())
			_, _ = store.Has(ctx, token)
			_ = store.Iterate(ctx, func(string) bool { return true })
			if i%2 == 0 {
				_ = store.Remove(ctx, token)
			}
		}(i)
	}
	wg.Wait()

	if store.Count() != 25 {
		t.Errorf("Count() = %v, want 25", store.Count())
	}
}
