package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	workQueueKey    = "queue:listening-sessions"
	delayedQueueKey = "queue:listening-sessions:delayed"
)

// Job is the message a trigger or scheduled retry puts on the queue.
type Job struct {
	SessionID uuid.UUID `json:"session_id"`
	Attempt   int       `json:"attempt"`
}

// Queue is the Redis-backed work queue. Immediate jobs go on a list the
// workers BLPOP; delayed jobs are sorted-set members scored by ready time,
// promoted onto the list by the pool's mover. Both live in Redis, so
// pending retries survive a process restart.
type Queue struct {
	redis *redis.Client
}

func NewQueue(redisClient *redis.Client) *Queue {
	return &Queue{redis: redisClient}
}

// Enqueue pushes a job for immediate processing.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	if err := q.redis.LPush(ctx, workQueueKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// RunAfter schedules a future re-invocation of the processor for a
// session. It implements the Scheduler interface the orchestrator uses.
func (q *Queue) RunAfter(ctx context.Context, delay time.Duration, sessionID uuid.UUID, attempt int) error {
	payload, err := json.Marshal(Job{SessionID: sessionID, Attempt: attempt})
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}

	readyAt := float64(time.Now().Add(delay).UnixMilli())
	if err := q.redis.ZAdd(ctx, delayedQueueKey, redis.Z{Score: readyAt, Member: string(payload)}).Err(); err != nil {
		return fmt.Errorf("failed to schedule job: %w", err)
	}
	return nil
}

// promoteDue moves every delayed job whose ready time has passed onto the
// work list. ZRem gates the push so that two movers never promote the same
// member twice.
func (q *Queue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)

	members, err := q.redis.ZRangeByScore(ctx, delayedQueueKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return err
	}

	for _, member := range members {
		removed, err := q.redis.ZRem(ctx, delayedQueueKey, member).Result()
		if err != nil || removed == 0 {
			continue
		}
		if err := q.redis.LPush(ctx, workQueueKey, member).Err(); err != nil {
			return err
		}
	}
	return nil
}
