package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// Pool runs the background workers that consume the session queue. Each
// job is one session pipeline run; a SetNX lock keyed by session id keeps
// two workers off the same session.
type Pool struct {
	redis       *redis.Client
	queue       *Queue
	processor   *Processor
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, queue *Queue, processor *Processor, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		queue:       queue,
		processor:   processor,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	go p.mover()

	log.Printf("Started %d listening-session workers", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, workQueueKey).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire the per-session lock
		lockKey := fmt.Sprintf("session_lock:%s", job.SessionID)
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this session
		}

		log.Printf("Worker %d: processing session %s (attempt %d)", id, job.SessionID, job.Attempt)
		p.runJob(ctx, job)

		p.redis.Del(ctx, lockKey)
	}
}

// runJob isolates a panic in one pipeline run from the worker loop.
func (p *Pool) runJob(ctx context.Context, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Session %s: panic during processing: %v", job.SessionID, r)
		}
	}()

	if err := p.processor.Process(ctx, job.SessionID, job.Attempt); err != nil {
		log.Printf("Session %s: processing error: %v", job.SessionID, err)
	}
}

// mover promotes due delayed jobs onto the work list once a second. The
// delayed set lives in Redis, so scheduled retries outlive restarts.
func (p *Pool) mover() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopChan:
			return
		case <-ticker.C:
			if err := p.queue.promoteDue(context.Background()); err != nil {
				log.Printf("Failed to promote delayed jobs: %v", err)
			}
		}
	}
}
