package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/habitflow/domain"
	"github.com/fastygo/habitflow/repository"
)

type streakCache struct {
	client *redislib.Client
	prefix string
	maxTTL time.Duration
}

// NewStreakCache creates a Redis-backed cache of streak summaries.
// Entries remember the day they were computed for; a read on another day is a miss.
func NewStreakCache(client *redislib.Client, maxTTL time.Duration) repository.StreakCache {
	if maxTTL <= 0 {
		maxTTL = 24 * time.Hour
	}
	return &streakCache{
		client: client,
		prefix: "streak:",
		maxTTL: maxTTL,
	}
}

func (c *streakCache) Get(ctx context.Context, userID string, asOf domain.Date) (*repository.StreakSummary, error) {
	result, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var summary repository.StreakSummary
	if err := json.Unmarshal([]byte(result), &summary); err != nil {
		return nil, err
	}
	if summary.AsOf != asOf {
		return nil, nil
	}
	return &summary, nil
}

func (c *streakCache) Generation(ctx context.Context, userID string) (int64, error) {
	generation, err := c.client.Get(ctx, c.generationKey(userID)).Int64()
	if errors.Is(err, redislib.Nil) {
		return 0, nil
	}
	return generation, err
}

// Set writes the summary only while the user's generation still matches.
// The generation key is watched, so an Invalidate racing with the write aborts it.
func (c *streakCache) Set(ctx context.Context, summary *repository.StreakSummary, generation int64, ttl time.Duration) error {
	if summary == nil || summary.UserID == "" {
		return domain.ErrInvalidPayload
	}
	if ttl <= 0 || ttl > c.maxTTL {
		ttl = c.maxTTL
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	genKey := c.generationKey(summary.UserID)
	err = c.client.Watch(ctx, func(tx *redislib.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redislib.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
			pipe.Set(ctx, c.key(summary.UserID), payload, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redislib.TxFailedErr) {
		return nil
	}
	return err
}

func (c *streakCache) Invalidate(ctx context.Context, userID string) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redislib.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(userID))
		pipe.Expire(ctx, c.generationKey(userID), 2*c.maxTTL)
		pipe.Del(ctx, c.key(userID))
		return nil
	})
	return err
}

func (c *streakCache) key(userID string) string {
	return fmt.Sprintf("%s%s", c.prefix, userID)
}

func (c *streakCache) generationKey(userID string) string {
	return fmt.Sprintf("%sgen:%s", c.prefix, userID)
}
