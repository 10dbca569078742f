package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type draftPayload struct {
	Answers map[string]string `json:"answers"`
}

func newTestDraftStore(t *testing.T) (*DraftStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewDraftStore(client), mr
}

func TestDraftStore_SaveAndGet(t *testing.T) {
	store, _ := newTestDraftStore(t)
	ctx := context.Background()

	saved := draftPayload{Answers: map[string]string{"q1": "hello"}}
	if err := store.Save(ctx, "survey-1", "client-a", saved); err != nil {
		t.Fatalf("Failed to save draft: %v", err)
	}

	var loaded draftPayload
	if err := store.Get(ctx, "survey-1", "client-a", &loaded); err != nil {
		t.Fatalf("Failed to load draft: %v", err)
	}
	if loaded.Answers["q1"] != "hello" {
		t.Errorf("Expected answer to round trip, got %v", loaded.Answers)
	}

	t.Run("drafts are keyed per client", func(t *testing.T) {
		var other draftPayload
		if err := store.Get(ctx, "survey-1", "client-b", &other); err != ErrCacheNotFound {
			t.Errorf("Expected ErrCacheNotFound, got %v", err)
		}
	})

	t.Run("save resets the payload", func(t *testing.T) {
		if err := store.Save(ctx, "survey-1", "client-a", draftPayload{Answers: map[string]string{"q1": "updated"}}); err != nil {
			t.Fatalf("Failed to save draft: %v", err)
		}
		var latest draftPayload
		if err := store.Get(ctx, "survey-1", "client-a", &latest); err != nil {
			t.Fatalf("Failed to load draft: %v", err)
		}
		if latest.Answers["q1"] != "updated" {
			t.Errorf("Expected updated draft, got %v", latest.Answers)
		}
	})
}

func TestDraftStore_Expiry(t *testing.T) {
	store, mr := newTestDraftStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "survey-1", "client-a", draftPayload{}); err != nil {
		t.Fatalf("Failed to save draft: %v", err)
	}

	mr.FastForward(24*time.Hour + time.Minute)

	var loaded draftPayload
	if err := store.Get(ctx, "survey-1", "client-a", &loaded); err != ErrCacheNotFound {
		t.Errorf("Expected draft to expire, got %v", err)
	}
}

func TestDraftStore_Discard(t *testing.T) {
	store, _ := newTestDraftStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, "survey-1", "client-a", draftPayload{}); err != nil {
		t.Fatalf("Failed to save draft: %v", err)
	}
	if err := store.Discard(ctx, "survey-1", "client-a"); err != nil {
		t.Fatalf("Failed to discard draft: %v", err)
	}

	var loaded draftPayload
	if err := store.Get(ctx, "survey-1", "client-a", &loaded); err != ErrCacheNotFound {
		t.Errorf("Expected ErrCacheNotFound after discard, got %v", err)
	}

	t.Run("discarding a missing draft is fine", func(t *testing.T) {
		if err := store.Discard(ctx, "survey-1", "client-missing"); err != nil {
			t.Errorf("Expected nil, got %v", err)
		}
	})
}

func TestDraftStore_WithoutRedis(t *testing.T) {
	store := NewDraftStore(nil)
	ctx := context.Background()

	if err := store.Save(ctx, "s", "c", draftPayload{}); err != ErrCacheNotAvailable {
		t.Errorf("Expected ErrCacheNotAvailable on save, got %v", err)
	}
	var loaded draftPayload
	if err := store.Get(ctx, "s", "c", &loaded); err != ErrCacheNotAvailable {
		t.Errorf("Expected ErrCacheNotAvailable on get, got %v", err)
	}
	if err := store.Discard(ctx, "s", "c"); err != nil {
		t.Errorf("Expected discard to be a no-op, got %v", err)
	}
}
