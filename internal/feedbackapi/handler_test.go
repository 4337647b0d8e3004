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

package feedbackapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gentleinbox/ingestion/internal/models"
)

// --- Mock store ---

type mockReader struct {
	feedback []models.Feedback
	stats    *models.FeedbackStats

	statusCalls []string // "owner/business/id/status"
	statusFound bool
	err         error
}

func (m *mockReader) ListFeedback(_ context.Context, ownerID, businessID string) ([]models.Feedback, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.feedback, nil
}

func (m *mockReader) SetStatus(_ context.Context, ownerID, businessID, id, status string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.statusCalls = append(m.statusCalls, ownerID+"/"+businessID+"/"+id+"/"+status)
	return m.statusFound, nil
}

func (m *mockReader) Stats(_ context.Context, ownerID, businessID string) (*models.FeedbackStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

// TestServeList verifies listing within an owner/business scope.
func TestServeList(t *testing.T) {
	store := &mockReader{feedback: []models.Feedback{
		{ID: "f1", Owner: "u1", BusinessID: "abc123", TransformedText: "softened", ReceivedAt: time.Now()},
	}}
	h := NewHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/feedback?owner=u1&business=abc123", nil)
	rr := httptest.NewRecorder()
	h.ServeList(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var out []models.Feedback
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 || out[0].ID != "f1" {
		t.Errorf("records = %+v, want one record f1", out)
	}
}

// TestServeList_EmptyScopeIsList verifies an empty result encodes as [].
func TestServeList_EmptyScopeIsList(t *testing.T) {
	h := NewHandler(&mockReader{})

	req := httptest.NewRequest(http.MethodGet, "/feedback?owner=u1&business=abc123", nil)
	rr := httptest.NewRecorder()
	h.ServeList(rr, req)

	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

// TestServeList_MissingParams verifies the scope params are required.
func TestServeList_MissingParams(t *testing.T) {
	h := NewHandler(&mockReader{})

	for _, target := range []string{"/feedback", "/feedback?owner=u1", "/feedback?business=abc123"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		h.ServeList(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want %d", target, rr.Code, http.StatusBadRequest)
		}
	}
}

// TestServeStatus verifies status updates.
func TestServeStatus(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		found      bool
		wantStatus int
	}{
		{"mark read", `{"status":"read"}`, true, http.StatusNoContent},
		{"archive", `{"status":"archived"}`, true, http.StatusNoContent},
		{"back to unread", `{"status":"unread"}`, true, http.StatusNoContent},
		{"unknown status", `{"status":"starred"}`, true, http.StatusBadRequest},
		{"bad body", `nope`, true, http.StatusBadRequest},
		{"not found", `{"status":"read"}`, false, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockReader{statusFound: tt.found}
			h := NewHandler(store)

			req := httptest.NewRequest(http.MethodPatch,
				"/feedback/f1?owner=u1&business=abc123", strings.NewReader(tt.body))
			req.SetPathValue("id", "f1")
			rr := httptest.NewRecorder()
			h.ServeStatus(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

// TestServeStatus_ScopesUpdate verifies the update is scoped to owner and
// business, not just the record id.
func TestServeStatus_ScopesUpdate(t *testing.T) {
	store := &mockReader{statusFound: true}
	h := NewHandler(store)

	req := httptest.NewRequest(http.MethodPatch,
		"/feedback/f1?owner=u1&business=abc123", strings.NewReader(`{"status":"read"}`))
	req.SetPathValue("id", "f1")
	rr := httptest.NewRecorder()
	h.ServeStatus(rr, req)

	if len(store.statusCalls) != 1 || store.statusCalls[0] != "u1/abc123/f1/read" {
		t.Errorf("status calls = %v, want [u1/abc123/f1/read]", store.statusCalls)
	}
}

// TestServeStats verifies the stats endpoint.
func TestServeStats(t *testing.T) {
	store := &mockReader{stats: &models.FeedbackStats{Total: 5, Unread: 2, ThisWeek: 3}}
	h := NewHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/feedback/stats?owner=u1&business=abc123", nil)
	rr := httptest.NewRecorder()
	h.ServeStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var out models.FeedbackStats
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Total != 5 || out.Unread != 2 || out.ThisWeek != 3 {
		t.Errorf("stats = %+v", out)
	}
}
