package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nowen/nowen/internal/domain"
)

// DefaultHealthTTL is how long a health record survives without a new check
const DefaultHealthTTL = 7 * 24 * time.Hour

// Store keeps the last probe result of each bookmark in Redis
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		ttl:    DefaultHealthTTL,
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Save stores records in one pipeline (bulk operation)
func (s *Store) Save(ctx context.Context, records []domain.HealthRecord) error {
	if len(records) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to marshal health record %s: %w", r.BookmarkID, err)
		}
		pipe.Set(ctx, HealthKey(r.BookmarkID), data, s.ttl)
		pipe.SAdd(ctx, AllHealthKey(), r.BookmarkID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save health records: %w", err)
	}
	return nil
}

// Get returns the records of ids that have one, in the order of ids
func (s *Store) Get(ctx context.Context, ids []string) ([]domain.HealthRecord, error) {
	if len(ids) == 0 {
		return []domain.HealthRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = HealthKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get health records: %w", err)
	}

	out := make([]domain.HealthRecord, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Missing or expired
			continue
		}
		var r domain.HealthRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			// Skip records that couldn't be decoded
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// GetOne returns the record of a single bookmark
func (s *Store) GetOne(ctx context.Context, id string) (domain.HealthRecord, bool, error) {
	data, err := s.client.Get(ctx, HealthKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.HealthRecord{}, false, nil
		}
		return domain.HealthRecord{}, false, fmt.Errorf("failed to get health record: %w", err)
	}

	var r domain.HealthRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.HealthRecord{}, false, fmt.Errorf("failed to unmarshal health record: %w", err)
	}
	return r, true, nil
}

// Delete removes the record of a bookmark
func (s *Store) Delete(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, HealthKey(id))
	pipe.SRem(ctx, AllHealthKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete health record: %w", err)
	}
	return nil
}

// Flush removes every health record
func (s *Store) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, KeyPrefixHealth+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete health key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to flush health records: %w", err)
	}
	return nil
}
