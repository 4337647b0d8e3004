// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package queue is the durable hop between the inbound router and the
// transformer. The router enqueues a forwarding task to a Redis list and
// acknowledges the provider immediately; workers drain the list and deliver
// each envelope to the transformer endpoint. A task that fails delivery is
// re-queued a bounded number of times instead of being silently dropped.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gentleinbox/ingestion/internal/models"
)

// forwardTask wraps an envelope for Redis transport.
type forwardTask struct {
	ID       string                 `json:"id"`
	Retries  int                    `json:"retries"`
	Envelope models.ForwardEnvelope `json:"envelope"`
}

// Publisher enqueues forwarding tasks to Redis.
type Publisher struct {
	rdb       *redis.Client
	queueName string
}

// NewPublisher creates a publisher targeting the specified queue.
func NewPublisher(rdb *redis.Client, queueName string) *Publisher {
	return &Publisher{
		rdb:       rdb,
		queueName: queueName,
	}
}

// Publish serialises a forwarding envelope and pushes it onto the queue.
func (p *Publisher) Publish(ctx context.Context, env models.ForwardEnvelope) error {
	task := forwardTask{
		ID:       uuid.New().String(),
		Envelope: env,
	}

	taskJSON, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal forward task: %w", err)
	}

	if err := p.rdb.LPush(ctx, p.queueName, string(taskJSON)).Err(); err != nil {
		return fmt.Errorf("redis LPUSH: %w", err)
	}

	businessID := ""
	if env.Business != nil {
		businessID = env.Business.PublicID
	}
	messageID := ""
	if env.Body != nil {
		messageID = env.Body.MessageID
	}
	slog.Info("enqueued forwarding task",
		"task_id", task.ID,
		"business", businessID,
		"message_id", messageID,
		"queue", p.queueName,
	)

	return nil
}

// Ping checks the Redis connection.
func (p *Publisher) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.rdb.Ping(ctx).Err()
}
