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
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gentleinbox/ingestion/internal/models"
)

// --- In-memory queue ---

type memLister struct {
	mu    sync.Mutex
	items []string
}

func (m *memLister) BRPopResult(ctx context.Context, timeout time.Duration, key string) (string, error) {
	m.mu.Lock()
	if len(m.items) > 0 {
		item := m.items[0]
		m.items = m.items[1:]
		m.mu.Unlock()
		return item, nil
	}
	m.mu.Unlock()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return "", nil
	}
}

func (m *memLister) LPushValue(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, value)
	return nil
}

func (m *memLister) push(t *testing.T, task forwardTask) {
	t.Helper()
	raw, err := json.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}
	if err := m.LPushValue(context.Background(), "q", string(raw)); err != nil {
		t.Fatalf("push task: %v", err)
	}
}

func (m *memLister) empty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items) == 0
}

// --- Capturing transformer server ---

type captureServer struct {
	mu       sync.Mutex
	bodies   [][]byte
	statuses []int // per-request responses; last entry repeats
}

func (c *captureServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.bodies = append(c.bodies, body)
		idx := len(c.bodies) - 1
		if idx >= len(c.statuses) {
			idx = len(c.statuses) - 1
		}
		status := c.statuses[idx]
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func (c *captureServer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bodies)
}

func (c *captureServer) body(i int) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bodies[i]
}

// --- Test helpers ---

func testTask() forwardTask {
	return forwardTask{
		ID: "task-1",
		Envelope: models.ForwardEnvelope{
			Business: &models.Business{PublicID: "abc123", Owner: "u1"},
			Body: &models.InboundMessage{
				OriginalRecipient: "feedback+abc123@gentleinbox.com",
				MessageID:         "pm-msg-1",
				TextBody:          "original text",
			},
		},
	}
}

func runWorker(t *testing.T, lister *memLister, url string, until func() bool) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWorker(WorkerConfig{
		Redis:          lister,
		QueueName:      "q",
		TransformerURL: url,
	})
	w.Start(ctx, 1)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if until() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	w.Wait()

	if !until() {
		t.Fatal("worker did not reach expected state before deadline")
	}
}

// TestWorker_DeliversEnvelope verifies a queued task is POSTed to the
// transformer with the {business, body} shape intact.
func TestWorker_DeliversEnvelope(t *testing.T) {
	srv := &captureServer{statuses: []int{http.StatusOK}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	lister := &memLister{}
	lister.push(t, testTask())

	runWorker(t, lister, ts.URL, func() bool { return srv.count() >= 1 })

	var env models.ForwardEnvelope
	if err := json.Unmarshal(srv.body(0), &env); err != nil {
		t.Fatalf("delivered body not a valid envelope: %v", err)
	}
	if env.Business == nil || env.Business.PublicID != "abc123" {
		t.Errorf("business = %+v, want id abc123", env.Business)
	}
	if env.Body == nil || env.Body.TextBody != "original text" {
		t.Errorf("body = %+v, want original text", env.Body)
	}
	if !lister.empty() {
		t.Error("queue not drained after successful delivery")
	}
}

// TestWorker_RetriesOnServerError verifies a failed delivery is re-queued
// and eventually delivered.
func TestWorker_RetriesOnServerError(t *testing.T) {
	srv := &captureServer{statuses: []int{
		http.StatusInternalServerError,
		http.StatusInternalServerError,
		http.StatusOK,
	}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	lister := &memLister{}
	lister.push(t, testTask())

	runWorker(t, lister, ts.URL, func() bool { return srv.count() >= 3 })

	if !lister.empty() {
		t.Error("queue not drained after eventual success")
	}
}

// TestWorker_DropsAfterMaxRetries verifies the retry budget is bounded.
func TestWorker_DropsAfterMaxRetries(t *testing.T) {
	srv := &captureServer{statuses: []int{http.StatusInternalServerError}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	lister := &memLister{}
	lister.push(t, testTask())

	// initial attempt + maxRetries re-queues
	wantAttempts := maxRetries + 1
	runWorker(t, lister, ts.URL, func() bool {
		return srv.count() >= wantAttempts && lister.empty()
	})

	// Give the worker a moment to prove it does not re-queue again.
	time.Sleep(100 * time.Millisecond)
	if got := srv.count(); got != wantAttempts {
		t.Errorf("delivery attempts = %d, want %d", got, wantAttempts)
	}
}

// TestWorker_BadRequestNotRetried verifies 400 responses are permanent.
func TestWorker_BadRequestNotRetried(t *testing.T) {
	srv := &captureServer{statuses: []int{http.StatusBadRequest}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	lister := &memLister{}
	lister.push(t, testTask())

	runWorker(t, lister, ts.URL, func() bool {
		return srv.count() >= 1 && lister.empty()
	})

	time.Sleep(100 * time.Millisecond)
	if got := srv.count(); got != 1 {
		t.Errorf("delivery attempts = %d, want 1 (no retry on 400)", got)
	}
}

// TestWorker_DiscardsMalformedTask verifies junk in the queue does not wedge
// the worker.
func TestWorker_DiscardsMalformedTask(t *testing.T) {
	srv := &captureServer{statuses: []int{http.StatusOK}}
	ts := httptest.NewServer(srv.handler())
	defer ts.Close()

	lister := &memLister{}
	if err := lister.LPushValue(context.Background(), "q", "not json"); err != nil {
		t.Fatalf("push junk: %v", err)
	}
	lister.push(t, testTask())

	runWorker(t, lister, ts.URL, func() bool { return srv.count() >= 1 })

	if got := srv.count(); got != 1 {
		t.Errorf("deliveries = %d, want 1 (junk discarded, real task delivered)", got)
	}
}
