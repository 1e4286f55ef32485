package job

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
)

const (
	attemptKeyPrefix  = "publishing:attempts:"
	fieldAttempts     = "attempts"
	fieldLastAttempt  = "last_attempt"
	defaultRetention  = 7 * 24 * time.Hour
	pruneScanPageSize = 200
)

// RedisAttemptTracker persists attempt counts so they survive worker restarts
// and are shared by every worker process.
type RedisAttemptTracker struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisAttemptTracker(client *redis.Client, retention time.Duration) *RedisAttemptTracker {
	if retention <= 0 {
		retention = defaultRetention
	}
	return &RedisAttemptTracker{client: client, retention: retention}
}

func attemptKey(id uuid.UUID) string {
	return attemptKeyPrefix + id.String()
}

func (t *RedisAttemptTracker) Get(ctx context.Context, id uuid.UUID) (AttemptRecord, bool, error) {
	fields, err := t.client.HGetAll(ctx, attemptKey(id)).Result()
	if err != nil {
		return AttemptRecord{}, false, fmt.Errorf("get attempts: %w", err)
	}
	if len(fields) == 0 {
		return AttemptRecord{}, false, nil
	}
	return parseAttemptRecord(fields), true, nil
}

func (t *RedisAttemptTracker) RecordFailure(ctx context.Context, id uuid.UUID, at time.Time) (AttemptRecord, error) {
	key := attemptKey(id)
	var incr *redis.IntCmd
	_, err := t.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, key, fieldAttempts, 1)
		pipe.HSet(ctx, key, fieldLastAttempt, at.UnixMilli())
		pipe.Expire(ctx, key, t.retention)
		return nil
	})
	if err != nil {
		return AttemptRecord{}, fmt.Errorf("record attempt: %w", err)
	}
	return AttemptRecord{Attempts: int(incr.Val()), LastAttempt: time.UnixMilli(at.UnixMilli())}, nil
}

func (t *RedisAttemptTracker) Clear(ctx context.Context, id uuid.UUID) error {
	if err := t.client.Del(ctx, attemptKey(id)).Err(); err != nil {
		return fmt.Errorf("clear attempts: %w", err)
	}
	return nil
}

func (t *RedisAttemptTracker) PruneExhausted(ctx context.Context, ceiling int, cutoff time.Time) (int, error) {
	pruned := 0
	iter := t.client.Scan(ctx, 0, attemptKeyPrefix+"*", pruneScanPageSize).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := t.client.HGetAll(ctx, key).Result()
		if err != nil {
			return pruned, fmt.Errorf("read attempts %s: %w", key, err)
		}
		rec := parseAttemptRecord(fields)
		if rec.Attempts < ceiling || !rec.LastAttempt.Before(cutoff) {
			continue
		}
		if err := t.client.Del(ctx, key).Err(); err != nil {
			return pruned, fmt.Errorf("prune attempts %s: %w", key, err)
		}
		pruned++
	}
	if err := iter.Err(); err != nil {
		return pruned, fmt.Errorf("scan attempts: %w", err)
	}
	return pruned, nil
}

func parseAttemptRecord(fields map[string]string) AttemptRecord {
	return AttemptRecord{
		Attempts:    cast.ToInt(fields[fieldAttempts]),
		LastAttempt: time.UnixMilli(cast.ToInt64(fields[fieldLastAttempt])),
	}
}
