package cache

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestStore_SetGetDelete(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := context.Background()

	if _, ok := store.Get(ctx, "missing"); ok {
		t.Fatalf("unexpected hit for missing key")
	}

	store.Set(ctx, "player-1", "snapshot")
	value, ok := store.Get(ctx, "player-1")
	if !ok || value != "snapshot" {
		t.Fatalf("unexpected cached value: %v %v", value, ok)
	}

	store.Delete(ctx, "player-1")
	if _, ok := store.Get(ctx, "player-1"); ok {
		t.Fatalf("value survived delete")
	}
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := context.Background()
	store.Set(ctx, "k", 1)

	time.Sleep(5 * time.Millisecond)
	if _, ok := store.Get(ctx, "k"); !ok {
		t.Fatalf("zero-ttl entry expired")
	}
}

func TestStore_GetOrLoadCachesLoaderResult(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	ctx := context.Background()
	loads := 0

	loader := func(context.Context) (any, error) {
		loads++
		return "loaded", nil
	}

	for i := 0; i < 3; i++ {
		value, err := store.GetOrLoad(ctx, "k", loader)
		if err != nil {
			t.Fatalf("get or load: %v", err)
		}
		if value != "loaded" {
			t.Fatalf("unexpected value: %v", value)
		}
	}

	if loads != 1 {
		t.Fatalf("expected single load, got %d", loads)
	}
}

func TestStore_GetOrLoadPropagatesError(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	wantErr := fmt.Errorf("store down")

	_, err := store.GetOrLoad(context.Background(), "k", func(context.Context) (any, error) {
		return nil, wantErr
	})
	if err == nil {
		t.Fatalf("expected loader error")
	}
}
