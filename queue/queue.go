// Package queue is the Redis-backed job queue and status store: submission,
// single-consumer delivery, monotonic progress, and terminal results.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrJobNotFound is returned by Status for unknown job ids.
var ErrJobNotFound = errors.New("job not found")

const (
	queueKey  = "clipforge:queue"
	jobPrefix = "clipforge:job:"

	// jobTTL bounds how long terminal job records are retained.
	jobTTL = 7 * 24 * time.Hour

	popTimeout = 5 * time.Second
)

// Queue is a Redis list plus one hash per job.
type Queue struct {
	client *redis.Client
}

// New connects to Redis with the given settings.
func New(addr, password string, db int) *Queue {
	return &Queue{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Ping verifies the Redis connection.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (q *Queue) Close() error {
	return q.client.Close()
}

func jobKey(jobID string) string { return jobPrefix + jobID }

// Submit enqueues a payload and returns the new job id. The job starts in
// the waiting state with zero progress.
func (q *Queue) Submit(ctx context.Context, payload *Payload) (string, error) {
	if err := payload.Validate(); err != nil {
		return "", err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	jobID := uuid.NewString()
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, jobKey(jobID),
		"state", string(StateWaiting),
		"progress", 0,
		"payload", raw,
		"created_at", time.Now().UTC().Format(time.RFC3339),
	)
	pipe.Expire(ctx, jobKey(jobID), jobTTL)
	pipe.LPush(ctx, queueKey, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("enqueue job: %w", err)
	}
	return jobID, nil
}

// Handler processes one delivered job payload.
type Handler func(ctx context.Context, jobID string, payload *Payload)

// Consume blocks, popping jobs and invoking the handler once per delivery.
// BRPOP guarantees a single consumer receives each job. Returns when the
// context is canceled.
func (q *Queue) Consume(ctx context.Context, handle Handler) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		vals, err := q.client.BRPop(ctx, popTimeout, queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("queue pop error: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if len(vals) < 2 {
			continue
		}
		jobID := vals[1]

		payload, err := q.payload(ctx, jobID)
		if err != nil {
			log.Printf("[job %s] dropping: %v", jobID, err)
			_ = q.Fail(ctx, jobID, fmt.Sprintf("unreadable payload: %v", err))
			continue
		}
		handle(ctx, jobID, payload)
	}
}

func (q *Queue) payload(ctx context.Context, jobID string) (*Payload, error) {
	raw, err := q.client.HGet(ctx, jobKey(jobID), "payload").Result()
	if err != nil {
		return nil, fmt.Errorf("load payload: %w", err)
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &p, nil
}

// SetActive transitions a job to the active state.
func (q *Queue) SetActive(ctx context.Context, jobID string) error {
	return q.client.HSet(ctx, jobKey(jobID), "state", string(StateActive)).Err()
}

// SetProgress raises a job's progress. Progress never decreases: a stale or
// out-of-order update below the stored value is ignored.
func (q *Queue) SetProgress(ctx context.Context, jobID string, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	current, err := q.client.HGet(ctx, jobKey(jobID), "progress").Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	if percent <= current {
		return nil
	}
	return q.client.HSet(ctx, jobKey(jobID), "progress", percent).Err()
}

// Complete records a terminal successful result.
func (q *Queue) Complete(ctx context.Context, jobID string, result *Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return q.client.HSet(ctx, jobKey(jobID),
		"state", string(StateCompleted),
		"progress", 100,
		"result", raw,
	).Err()
}

// Fail records a terminal failure with a human-readable reason.
func (q *Queue) Fail(ctx context.Context, jobID string, reason string) error {
	return q.client.HSet(ctx, jobKey(jobID),
		"state", string(StateFailed),
		"error", reason,
	).Err()
}

// Status returns the poll view of a job.
func (q *Queue) Status(ctx context.Context, jobID string) (*Status, error) {
	fields, err := q.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrJobNotFound
	}

	status := &Status{
		JobID: jobID,
		State: State(fields["state"]),
		Error: fields["error"],
	}
	if p, err := strconv.Atoi(fields["progress"]); err == nil {
		status.Progress = p
	}
	if raw := fields["result"]; raw != "" {
		var result Result
		if err := json.Unmarshal([]byte(raw), &result); err == nil {
			status.Result = &result
		}
	}
	return status, nil
}
