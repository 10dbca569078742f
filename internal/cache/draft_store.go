package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftStore keeps in-progress respondent answer sets in redis so a
// respondent can resume after navigating away. Drafts are keyed by
// survey id plus an opaque client key and expire on their own; a
// successful submission discards the draft explicitly.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

const defaultDraftTTL = 24 * time.Hour

func NewDraftStore(client *redis.Client) *DraftStore {
	return &DraftStore{client: client, ttl: defaultDraftTTL}
}

func draftKey(surveyID, clientKey string) string {
	return fmt.Sprintf("draft:%s:%s", surveyID, clientKey)
}

// Save stores the draft payload, resetting its TTL.
func (d *DraftStore) Save(ctx context.Context, surveyID, clientKey string, payload interface{}) error {
	if d.client == nil {
		return ErrCacheNotAvailable
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	return d.client.Set(ctx, draftKey(surveyID, clientKey), data, d.ttl).Err()
}

// Get loads a draft into dest; ErrCacheNotFound when none exists.
func (d *DraftStore) Get(ctx context.Context, surveyID, clientKey string, dest interface{}) error {
	if d.client == nil {
		return ErrCacheNotAvailable
	}
	data, err := d.client.Get(ctx, draftKey(surveyID, clientKey)).Result()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheNotFound
		}
		return fmt.Errorf("failed to load draft: %w", err)
	}
	return json.Unmarshal([]byte(data), dest)
}

// Discard drops the draft; missing drafts are not an error.
func (d *DraftStore) Discard(ctx context.Context, surveyID, clientKey string) error {
	if d.client == nil {
		return nil
	}
	return d.client.Del(ctx, draftKey(surveyID, clientKey)).Err()
}
