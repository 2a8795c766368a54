package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// noRating marks a cached "title has zero reviews" result; scores are 1-10 so
// the value can never collide with a real rating.
const noRating = -1

// RatingCache memoizes computed title ratings in redis. It is strictly
// best-effort: every method is a no-op on a nil cache and callers fall back to
// the SQL aggregate on any miss or error. Review writes invalidate the entry,
// so a cached value never disagrees with floor(sum/count) in the store.
type RatingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRatingCache connects to redis and verifies the connection. An empty addr
// disables caching by returning a nil cache.
func NewRatingCache(addr, password string, ttl time.Duration) (*RatingCache, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RatingCache{client: rdb, ttl: ttl}, nil
}

func ratingKey(titleID int64) string {
	return fmt.Sprintf("rating:title:%d", titleID)
}

// Get returns the cached rating for a title. The second return tells whether
// an entry existed; a nil rating with ok=true means "no reviews yet".
func (c *RatingCache) Get(ctx context.Context, titleID int64) (*int, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, ratingKey(titleID)).Result()
	if err != nil {
		return nil, false
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed == noRating {
		return nil, err == nil
	}
	return &parsed, true
}

// Set stores a computed rating; nil means the title has no reviews.
func (c *RatingCache) Set(ctx context.Context, titleID int64, rating *int) {
	if c == nil || c.client == nil {
		return
	}
	val := noRating
	if rating != nil {
		val = *rating
	}
	// best effort, errors ignored
	c.client.Set(ctx, ratingKey(titleID), strconv.Itoa(val), c.ttl)
}

// Invalidate drops the cached rating after any review write for the title.
func (c *RatingCache) Invalidate(ctx context.Context, titleID int64) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, ratingKey(titleID))
}
