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

// Package models defines the data structures shared across the pipeline.
package models

import "time"

// Feedback status values. Status transitions (unread → read → archived) are
// driven by the dashboard, never by the pipeline itself.
const (
	StatusUnread   = "unread"
	StatusRead     = "read"
	StatusArchived = "archived"
)

// Sentiment labels. The pipeline always writes "pending"; actual scoring is
// performed by an external sentiment service that updates records in place.
const (
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentPositive = "positive"
	SentimentPending  = "pending"
)

// Business is a tenant receiving customer feedback. Its PublicID is embedded
// in the feedback email alias (feedback+<PublicID>@<domain>) and is globally
// unique across all owners.
type Business struct {
	PublicID       string     `json:"id"`
	Owner          string     `json:"businessOwner"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"createdAt"`
	FeedbackCount  int        `json:"feedbackCount"`
	LastFeedbackAt *time.Time `json:"lastFeedbackAt"`
}

// SentimentScore is a single sentiment measurement in [-1, 1].
type SentimentScore struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
}

// FeedbackSentiment holds sentiment for both versions of the text.
type FeedbackSentiment struct {
	Original    SentimentScore `json:"original"`
	Transformed SentimentScore `json:"transformed"`
}

// FeedbackMetadata records how a feedback entry was produced.
//
// TransformationModel is always the model the pipeline intended to use, even
// when the rewrite call failed and the original text was kept.
type FeedbackMetadata struct {
	ProviderMessageID   string `json:"providerMessageId"`
	TransformationModel string `json:"transformationModel"`
	ProcessingTimeMs    int64  `json:"processingTime"`
	WasTransformed      bool   `json:"wasTransformed"`
}

// Feedback is one inbound email captured as a record: the customer's original
// words plus the softened version shown to the business owner.
//
// TransformedText is always populated; on rewrite failure it equals
// OriginalText and Metadata.WasTransformed is false.
type Feedback struct {
	ID              string            `json:"id"`
	Owner           string            `json:"userId"`
	BusinessID      string            `json:"businessId"`
	OriginalText    string            `json:"originalText"`
	TransformedText string            `json:"transformedText"`
	SenderEmail     string            `json:"senderEmail"`
	SenderName      string            `json:"senderName"`
	Subject         string            `json:"subject"`
	ReceivedAt      time.Time         `json:"receivedAt"`
	ProcessedAt     time.Time         `json:"processedAt"`
	Sentiment       FeedbackSentiment `json:"sentiment"`
	Metadata        FeedbackMetadata  `json:"metadata"`
	Status          string            `json:"status"`
	Tags            []string          `json:"tags"`
}

// PendingSentiment returns the initial sentiment block for a new record.
func PendingSentiment() FeedbackSentiment {
	return FeedbackSentiment{
		Original:    SentimentScore{Score: 0, Label: SentimentPending},
		Transformed: SentimentScore{Score: 0, Label: SentimentPending},
	}
}

// ValidStatus reports whether s is a known feedback status.
func ValidStatus(s string) bool {
	switch s {
	case StatusUnread, StatusRead, StatusArchived:
		return true
	}
	return false
}

// FeedbackStats summarises a business's feedback for the dashboard.
type FeedbackStats struct {
	Total    int `json:"total"`
	Unread   int `json:"unread"`
	ThisWeek int `json:"thisWeek"`
}
