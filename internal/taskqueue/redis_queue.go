package taskqueue

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue implements the Queue interface using Redis.
//
// Tasks live in a sorted set scored by NotBefore (unix nanoseconds):
//
//	<prefix>tasks
//
// Members are JSON-encoded Task structs. A task is claimed by whichever
// worker's ZREM removes it first.
type RedisQueue struct {
	client       *redis.Client
	key          string
	pollInterval time.Duration
}

// NewRedisQueue constructs a Redis-backed Queue.
// prefix is optional but recommended (e.g. "formflow:").
func NewRedisQueue(client *redis.Client, prefix string) *RedisQueue {
	if prefix == "" {
		prefix = "formflow:"
	}
	return &RedisQueue{
		client:       client,
		key:          prefix + "tasks",
		pollInterval: 50 * time.Millisecond,
	}
}

// Ensure RedisQueue implements Queue.
var _ Queue = (*RedisQueue)(nil)

// Enqueue adds a task to the sorted set.
func (q *RedisQueue) Enqueue(ctx context.Context, t Task) error {
	t = normalize(t)
	data, err := EncodeTask(t)
	if err != nil {
		return err
	}
	return q.client.ZAdd(ctx, q.key, redis.Z{
		Score:  float64(t.NotBefore.UnixNano()),
		Member: string(data),
	}).Err()
}

// Dequeue polls for the earliest due task until one is claimed or ctx is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Task, error) {
	tmr := newStoppedTimer()
	defer tmr.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
			Min:   "-inf",
			Max:   strconv.FormatInt(time.Now().UnixNano(), 10),
			Count: 1,
		}).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}

		if len(members) == 1 {
			removed, err := q.client.ZRem(ctx, q.key, members[0]).Result()
			if err != nil {
				return nil, err
			}
			if removed == 1 {
				return DecodeTask([]byte(members[0]))
			}
			// Another worker won the race.
			continue
		}

		if err := waitPoll(ctx, tmr, q.pollInterval); err != nil {
			return nil, err
		}
	}
}

// Len returns the approximate number of tasks queued (ZCARD).
func (q *RedisQueue) Len() int {
	n, err := q.client.ZCard(context.Background(), q.key).Result()
	if err != nil {
		slog.Warn("redis queue len failed", slog.Any("error", err))
		return 0
	}
	return int(n)
}
