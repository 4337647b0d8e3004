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

// Package feedbackapi exposes the read/mutate surface the dashboard uses:
// listing a business's feedback, flipping record status, and volume stats.
// The pipeline itself never calls these; records are immutable after creation
// except for status.
package feedbackapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gentleinbox/ingestion/internal/models"
)

// FeedbackReader is the store surface the dashboard API needs.
type FeedbackReader interface {
	ListFeedback(ctx context.Context, ownerID, businessID string) ([]models.Feedback, error)
	SetStatus(ctx context.Context, ownerID, businessID, id, status string) (bool, error)
	Stats(ctx context.Context, ownerID, businessID string) (*models.FeedbackStats, error)
}

// Handler serves dashboard requests.
type Handler struct {
	store FeedbackReader
}

// NewHandler creates a dashboard API handler.
func NewHandler(store FeedbackReader) *Handler {
	return &Handler{store: store}
}

// ServeList handles GET /feedback?owner=<id>&business=<id>.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	owner, business, ok := scopeParams(w, r)
	if !ok {
		return
	}

	records, err := h.store.ListFeedback(r.Context(), owner, business)
	if err != nil {
		slog.Error("list feedback failed", "owner", owner, "business", business, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.Feedback{}
	}

	writeJSON(w, records)
}

// ServeStats handles GET /feedback/stats?owner=<id>&business=<id>.
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	owner, business, ok := scopeParams(w, r)
	if !ok {
		return
	}

	stats, err := h.store.Stats(r.Context(), owner, business)
	if err != nil {
		slog.Error("feedback stats failed", "owner", owner, "business", business, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats)
}

// statusUpdate is the PATCH body for a status change.
type statusUpdate struct {
	Status string `json:"status"`
}

// ServeStatus handles PATCH /feedback/{id}?owner=<id>&business=<id>.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	owner, business, ok := scopeParams(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "missing feedback id", http.StatusBadRequest)
		return
	}

	var upd statusUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !models.ValidStatus(upd.Status) {
		http.Error(w, "unknown status", http.StatusBadRequest)
		return
	}

	found, err := h.store.SetStatus(r.Context(), owner, business, id, upd.Status)
	if err != nil {
		slog.Error("status update failed", "feedback_id", id, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "feedback not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func scopeParams(w http.ResponseWriter, r *http.Request) (owner, business string, ok bool) {
	owner = r.URL.Query().Get("owner")
	business = r.URL.Query().Get("business")
	if owner == "" || business == "" {
		http.Error(w, "owner and business are required", http.StatusBadRequest)
		return "", "", false
	}
	return owner, business, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
