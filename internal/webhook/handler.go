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

// Package webhook handles inbound email notifications from Postmark. Each
// feedback alias embeds a business public id (feedback+<id>@<domain>); the
// handler resolves the business and hands the message to the forwarding
// queue. The provider is acknowledged as soon as the task is durably queued —
// transformation and persistence happen downstream.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gentleinbox/ingestion/internal/models"
)

// BusinessResolver resolves a feedback alias id to its business record.
type BusinessResolver interface {
	ResolveBusiness(ctx context.Context, publicID string) (*models.Business, error)
}

// Forwarder hands a resolved envelope to the transformer stage.
type Forwarder interface {
	Publish(ctx context.Context, env models.ForwardEnvelope) error
}

// Handler processes Postmark inbound webhooks.
type Handler struct {
	resolver  BusinessResolver
	forwarder Forwarder
}

// NewHandler creates an inbound webhook handler.
func NewHandler(resolver BusinessResolver, forwarder Forwarder) *Handler {
	return &Handler{
		resolver:  resolver,
		forwarder: forwarder,
	}
}

// ServeInbound handles inbound email webhook requests.
//
// Response semantics decide whether Postmark redelivers:
//   - 200: accepted, including the no-business-matched no-op (spam and bounces
//     to unknown aliases must not trigger provider retries)
//   - 500: resolution or enqueue failure; the provider's retry policy
//     redelivers the whole webhook
func (h *Handler) ServeInbound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("failed to read inbound webhook body", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	var msg models.InboundMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		// Not a payload we can route; acknowledge so the provider does
		// not keep redelivering junk.
		slog.Error("inbound webhook body not valid JSON", "body_len", len(body), "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	publicID, err := ExtractBusinessID(msg.OriginalRecipient)
	if err != nil {
		slog.Error("no business id in recipient",
			"recipient", msg.OriginalRecipient,
			"error", err,
		)
		w.WriteHeader(http.StatusOK)
		return
	}

	business, err := h.resolver.ResolveBusiness(r.Context(), publicID)
	if err != nil {
		slog.Error("business resolution failed", "business", publicID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if business == nil {
		slog.Error("no business found", "business", publicID, "recipient", msg.OriginalRecipient)
		w.WriteHeader(http.StatusOK)
		return
	}

	env := models.ForwardEnvelope{
		Business: business,
		Body:     &msg,
	}
	if err := h.forwarder.Publish(r.Context(), env); err != nil {
		slog.Error("failed to enqueue forwarding task",
			"business", publicID,
			"message_id", msg.MessageID,
			"error", err,
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// ExtractBusinessID extracts the business public id from a feedback alias:
// the substring strictly between the first '+' and the following '@'
// (e.g. feedback+abc123@gentleinbox.com → abc123).
func ExtractBusinessID(recipient string) (string, error) {
	at := strings.Index(recipient, "@")
	if at < 0 {
		return "", fmt.Errorf("recipient %q has no domain part", recipient)
	}
	local := recipient[:at]

	plus := strings.Index(local, "+")
	if plus < 0 {
		return "", fmt.Errorf("recipient %q has no alias delimiter", recipient)
	}

	id := local[plus+1:]
	if id == "" {
		return "", fmt.Errorf("recipient %q has an empty alias id", recipient)
	}
	return id, nil
}
