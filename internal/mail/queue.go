// Package mail carries OTP emails from the request path to the mailer worker.
// The request path only enqueues; delivery, retries and SMTP live in the
// worker so a slow mail server never blocks an HTTP call.
package mail

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"friendsvc/internal/config"
)

// DefaultQueueName is the Redis list holding pending mail jobs.
const DefaultQueueName = "friendsvc_mail"

// Message is one outbound OTP email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Code    int    `json:"code"`
}

// Queue publishes mail jobs onto a Redis list.
type Queue struct {
	rdb  *redis.Client
	name string
}

func NewQueue(rdb *redis.Client) *Queue {
	return &Queue{
		rdb:  rdb,
		name: config.Getenv("MAIL_QUEUE_NAME", DefaultQueueName),
	}
}

// Enqueue serializes the message and pushes it onto the queue.
func (q *Queue) Enqueue(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.name, data).Err(); err != nil {
		return fmt.Errorf("rpush to %q: %w", q.name, err)
	}
	return nil
}

// Name returns the queue's Redis list name.
func (q *Queue) Name() string { return q.name }
