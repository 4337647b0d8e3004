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

package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	// maxRetries bounds re-queues of a task whose delivery keeps failing.
	maxRetries = 3

	// popTimeout is the BRPOP block interval; short enough that workers
	// notice context cancellation promptly.
	popTimeout = 2 * time.Second
)

// Worker drains the forwarding queue and delivers each envelope to the
// transformer endpoint via HTTP POST.
type Worker struct {
	lister         RedisLister
	queueName      string
	transformerURL string
	httpClient     *http.Client

	wg sync.WaitGroup
}

// WorkerConfig holds worker settings.
type WorkerConfig struct {
	Redis          RedisLister
	QueueName      string
	TransformerURL string
	HTTPClient     *http.Client
}

// RedisLister is the Redis list interface the worker depends on. Satisfied by
// *redis.Client; tests substitute an in-memory implementation.
type RedisLister interface {
	BRPopResult(ctx context.Context, timeout time.Duration, key string) (string, error)
	LPushValue(ctx context.Context, key, value string) error
}

// NewWorker creates a forwarding worker.
func NewWorker(cfg WorkerConfig) *Worker {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Worker{
		lister:         cfg.Redis,
		queueName:      cfg.QueueName,
		transformerURL: cfg.TransformerURL,
		httpClient:     httpClient,
	}
}

// Start launches n worker goroutines that run until the context is cancelled.
func (w *Worker) Start(ctx context.Context, n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.run(ctx, id)
		}(i)
	}
	slog.Info("forwarding workers started", "count", n, "queue", w.queueName)
}

// Wait blocks until all worker goroutines have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		raw, err := w.lister.BRPopResult(ctx, popTimeout, w.queueName)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("queue pop failed", "worker", id, "error", err)
			time.Sleep(time.Second)
			continue
		}
		if raw == "" {
			continue // timeout, nothing queued
		}

		w.process(ctx, raw)
	}
}

// process delivers one task. Delivery failures re-queue the task until its
// retry budget is spent; after that the failure is logged and the task is
// dropped (the record is lost unless the provider redelivers the webhook).
func (w *Worker) process(ctx context.Context, raw string) {
	var task forwardTask
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		slog.Error("discarding malformed forward task", "error", err)
		return
	}

	if err := w.deliver(ctx, task); err != nil {
		slog.Error("forward delivery failed",
			"task_id", task.ID,
			"retries", task.Retries,
			"error", err,
		)
		if task.Retries >= maxRetries {
			slog.Error("forward task exhausted retries, dropping", "task_id", task.ID)
			return
		}
		task.Retries++
		requeued, err := json.Marshal(task)
		if err != nil {
			return
		}
		if err := w.lister.LPushValue(ctx, w.queueName, string(requeued)); err != nil {
			slog.Error("re-queue failed", "task_id", task.ID, "error", err)
		}
	}
}

// deliver POSTs the envelope to the transformer endpoint.
func (w *Worker) deliver(ctx context.Context, task forwardTask) error {
	body, err := json.Marshal(task.Envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.transformerURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post envelope: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// 400s are permanent: the envelope itself is bad, retrying cannot help.
	if resp.StatusCode == http.StatusBadRequest {
		slog.Error("transformer rejected envelope, dropping", "task_id", task.ID)
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("transformer returned HTTP %d", resp.StatusCode)
	}

	slog.Info("envelope delivered", "task_id", task.ID)
	return nil
}
