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

// Package transform receives forwarded envelopes, rewrites the feedback tone,
// and persists the record. The rewrite is best-effort: any failure falls back
// to the original text so no feedback is ever lost to a model outage.
package transform

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gentleinbox/ingestion/internal/models"
	"github.com/gentleinbox/ingestion/internal/rewrite"
)

// FeedbackWriter persists new feedback records.
type FeedbackWriter interface {
	CreateFeedback(ctx context.Context, f *models.Feedback) error
}

// Handler processes forwarded envelopes from the queue.
type Handler struct {
	store    FeedbackWriter
	rewriter rewrite.Rewriter
}

// NewHandler creates a transformer handler.
func NewHandler(store FeedbackWriter, rewriter rewrite.Rewriter) *Handler {
	return &Handler{
		store:    store,
		rewriter: rewriter,
	}
}

// ServeTransform handles a forwarded envelope.
//
//   - 400 when business or body is missing (permanent, the worker drops it)
//   - 500 when persistence fails (the worker re-queues)
//   - 200 "OK" once the record is written
func (h *Handler) ServeTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var env models.ForwardEnvelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		slog.Error("failed to decode envelope", "error", err)
		http.Error(w, "Invalid request data", http.StatusBadRequest)
		return
	}

	if env.Business == nil || env.Body == nil {
		slog.Error("missing business or email data")
		http.Error(w, "Invalid request data", http.StatusBadRequest)
		return
	}

	record := h.buildRecord(r.Context(), env.Business, env.Body)

	if err := h.store.CreateFeedback(r.Context(), record); err != nil {
		slog.Error("failed to persist feedback",
			"business", env.Business.PublicID,
			"message_id", env.Body.MessageID,
			"error", err,
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	slog.Info("feedback persisted",
		"feedback_id", record.ID,
		"business", record.BusinessID,
		"owner", record.Owner,
		"was_transformed", record.Metadata.WasTransformed,
		"processing_ms", record.Metadata.ProcessingTimeMs,
	)

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// buildRecord runs the rewrite and assembles the feedback record. The record
// is always complete: rewrite failures keep the original text verbatim with
// WasTransformed false, and the intended model name is recorded either way.
func (h *Handler) buildRecord(ctx context.Context, business *models.Business, msg *models.InboundMessage) *models.Feedback {
	content := msg.Body()

	start := time.Now()
	transformed, err := h.rewriter.Rewrite(ctx, content)
	if err != nil {
		slog.Error("rewrite failed, falling back to original text",
			"business", business.PublicID,
			"message_id", msg.MessageID,
			"error", err,
		)
		transformed = content
	} else if transformed == "" {
		transformed = content
	}
	elapsed := time.Since(start).Milliseconds()

	subject := msg.Subject
	if subject == "" {
		subject = "No Subject"
	}

	now := time.Now().UTC()
	return &models.Feedback{
		Owner:           business.Owner,
		BusinessID:      business.PublicID,
		OriginalText:    content,
		TransformedText: transformed,
		SenderEmail:     msg.FromFull.Email,
		SenderName:      msg.FromFull.Name,
		Subject:         subject,
		ReceivedAt:      now,
		ProcessedAt:     now,
		Sentiment:       models.PendingSentiment(),
		Metadata: models.FeedbackMetadata{
			ProviderMessageID:   msg.MessageID,
			TransformationModel: h.rewriter.Model(),
			ProcessingTimeMs:    elapsed,
			WasTransformed:      transformed != content,
		},
		Status: models.StatusUnread,
		Tags:   []string{},
	}
}
