package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/reysilvaa/PBL-SportCentre-sub000/config"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/repository"
)

type RedisCache struct {
	client          *redis.Client
	availabilityTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:          redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		availabilityTTL: availabilityTTL,
	}
}

// NewRedisCacheWithClient shares an existing client, so the cache and the
// realtime publisher can ride one connection pool.
func NewRedisCacheWithClient(client *redis.Client, availabilityTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, availabilityTTL: availabilityTTL}
}

func (c *RedisCache) Client() *redis.Client { return c.client }

// GetAvailability returns the cached day view for a field, or nil on miss.
func (c *RedisCache) GetAvailability(ctx context.Context, fieldID int64, date string) ([]repository.ActiveBooking, error) {
	data, err := c.client.Get(ctx, availabilityKey(fieldID, date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var active []repository.ActiveBooking
	if err := json.Unmarshal(data, &active); err != nil {
		return nil, err
	}
	return active, nil
}

func (c *RedisCache) SetAvailability(ctx context.Context, fieldID int64, date string, active []repository.ActiveBooking) error {
	payload, err := json.Marshal(active)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, availabilityKey(fieldID, date), payload, c.availabilityTTL).Err()
}

// GetFields returns the cached field catalog, or nil on miss.
func (c *RedisCache) GetFields(ctx context.Context) ([]domain.Field, error) {
	data, err := c.client.Get(ctx, fieldsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var fields []domain.Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func (c *RedisCache) SetFields(ctx context.Context, fields []domain.Field) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fieldsKey(), payload, c.availabilityTTL).Err()
}

// InvalidatePrefix deletes every key under the given prefix. Used by the
// propagator to drop stale field, date, user and report views.
func (c *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// AcquirePaymentLock takes the cluster-wide per-payment lease that
// serializes all status transitions for one payment. The TTL bounds the
// hold time of a crashed owner; callers must release on every exit path.
func (c *RedisCache) AcquirePaymentLock(ctx context.Context, paymentID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, paymentLockKey(paymentID), "locked", ttl).Result()
}

func (c *RedisCache) ReleasePaymentLock(ctx context.Context, paymentID int64) error {
	return c.client.Del(ctx, paymentLockKey(paymentID)).Err()
}

// RecordFailedAttempt feeds the abuse-tracking counters. Thresholding and
// blocking live outside this engine.
func (c *RedisCache) RecordFailedAttempt(ctx context.Context, userID, bookingID int64, clientIP string) error {
	pipe := c.client.TxPipeline()
	userKey := fmt.Sprintf("abuse:user:%d", userID)
	pipe.Incr(ctx, userKey)
	pipe.Expire(ctx, userKey, 24*time.Hour)
	if clientIP != "" {
		ipKey := "abuse:ip:" + clientIP
		pipe.Incr(ctx, ipKey)
		pipe.Expire(ctx, ipKey, 24*time.Hour)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func fieldsKey() string {
	return "cache:fields"
}

func availabilityKey(fieldID int64, date string) string {
	return fmt.Sprintf("cache:availability:%d:%s", fieldID, date)
}

func paymentLockKey(paymentID int64) string {
	return fmt.Sprintf("lock:payment:%d", paymentID)
}
