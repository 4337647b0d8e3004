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

// Package store provides the Postgres-backed storage layer for accounts,
// businesses, and feedback records.
//
// Business public ids are globally unique and carry a UNIQUE index, so
// resolving the id embedded in a feedback alias is a single point lookup
// rather than a scan across owners.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gentleinbox/ingestion/internal/models"
)

// Store provides CRUD operations for pipeline records in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a store backed by the given Postgres pool.
// It ensures the schema exists on creation.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	slog.Info("store initialised")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS accounts (
			id           TEXT PRIMARY KEY,
			email        TEXT NOT NULL,
			display_name TEXT DEFAULT '',
			created_at   TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS businesses (
			public_id        TEXT PRIMARY KEY,
			owner_id         TEXT NOT NULL REFERENCES accounts(id),
			name             TEXT NOT NULL,
			description      TEXT DEFAULT '',
			created_at       TIMESTAMPTZ DEFAULT NOW(),
			feedback_count   INTEGER DEFAULT 0,
			last_feedback_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_businesses_owner ON businesses(owner_id);
		CREATE TABLE IF NOT EXISTS feedback (
			id                    TEXT PRIMARY KEY,
			owner_id              TEXT NOT NULL,
			business_id           TEXT NOT NULL REFERENCES businesses(public_id),
			original_text         TEXT NOT NULL,
			transformed_text      TEXT NOT NULL,
			sender_email          TEXT DEFAULT '',
			sender_name           TEXT DEFAULT '',
			subject               TEXT DEFAULT '',
			received_at           TIMESTAMPTZ NOT NULL,
			processed_at          TIMESTAMPTZ NOT NULL,
			sent_original_score   DOUBLE PRECISION DEFAULT 0,
			sent_original_label   TEXT DEFAULT 'pending',
			sent_transformed_score DOUBLE PRECISION DEFAULT 0,
			sent_transformed_label TEXT DEFAULT 'pending',
			provider_message_id   TEXT DEFAULT '',
			transformation_model  TEXT DEFAULT '',
			processing_time_ms    BIGINT DEFAULT 0,
			was_transformed       BOOLEAN DEFAULT FALSE,
			status                TEXT DEFAULT 'unread',
			tags                  TEXT[] DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_scope ON feedback(owner_id, business_id, received_at DESC);
		CREATE INDEX IF NOT EXISTS idx_feedback_status ON feedback(status);
	`)
	return err
}

// CreateAccount inserts an owner account. Used by the seed tool; the pipeline
// itself only reads accounts through business resolution.
func (s *Store) CreateAccount(ctx context.Context, id, email, displayName string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accounts (id, email, display_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, id, email, displayName)
	return err
}

// CreateBusiness inserts a business under an owner account.
func (s *Store) CreateBusiness(ctx context.Context, b models.Business) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO businesses (public_id, owner_id, name, description)
		VALUES ($1, $2, $3, $4)
	`, b.PublicID, b.Owner, b.Name, b.Description)
	return err
}

// ResolveBusiness looks up a business by its globally unique public id.
// Returns nil when no business matches.
func (s *Store) ResolveBusiness(ctx context.Context, publicID string) (*models.Business, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT public_id, owner_id, name, description, created_at,
		       feedback_count, last_feedback_at
		FROM businesses
		WHERE public_id = $1
	`, publicID)

	var b models.Business
	err := row.Scan(
		&b.PublicID, &b.Owner, &b.Name, &b.Description, &b.CreatedAt,
		&b.FeedbackCount, &b.LastFeedbackAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBusinesses returns all businesses for an owner, newest first.
func (s *Store) ListBusinesses(ctx context.Context, ownerID string) ([]models.Business, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT public_id, owner_id, name, description, created_at,
		       feedback_count, last_feedback_at
		FROM businesses
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Business
	for rows.Next() {
		var b models.Business
		if err := rows.Scan(
			&b.PublicID, &b.Owner, &b.Name, &b.Description, &b.CreatedAt,
			&b.FeedbackCount, &b.LastFeedbackAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateFeedback inserts a new feedback record scoped under its owner and
// business. The record id is storage-assigned when empty. Inserts are always
// new rows; replayed webhook deliveries produce distinct records.
func (s *Store) CreateFeedback(ctx context.Context, f *models.Feedback) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Tags == nil {
		f.Tags = []string{}
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO feedback (
			id, owner_id, business_id, original_text, transformed_text,
			sender_email, sender_name, subject, received_at, processed_at,
			sent_original_score, sent_original_label,
			sent_transformed_score, sent_transformed_label,
			provider_message_id, transformation_model, processing_time_ms,
			was_transformed, status, tags
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
	`,
		f.ID, f.Owner, f.BusinessID, f.OriginalText, f.TransformedText,
		f.SenderEmail, f.SenderName, f.Subject, f.ReceivedAt, f.ProcessedAt,
		f.Sentiment.Original.Score, f.Sentiment.Original.Label,
		f.Sentiment.Transformed.Score, f.Sentiment.Transformed.Label,
		f.Metadata.ProviderMessageID, f.Metadata.TransformationModel,
		f.Metadata.ProcessingTimeMs, f.Metadata.WasTransformed,
		f.Status, f.Tags,
	)
	return err
}

const feedbackColumns = `
	id, owner_id, business_id, original_text, transformed_text,
	sender_email, sender_name, subject, received_at, processed_at,
	sent_original_score, sent_original_label,
	sent_transformed_score, sent_transformed_label,
	provider_message_id, transformation_model, processing_time_ms,
	was_transformed, status, tags`

// ListFeedback returns an owner's feedback for one business, newest first.
func (s *Store) ListFeedback(ctx context.Context, ownerID, businessID string) ([]models.Feedback, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback
		WHERE owner_id = $1 AND business_id = $2
		ORDER BY received_at DESC
	`, ownerID, businessID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFeedback(rows)
}

// GetFeedback retrieves a single feedback record within an owner/business
// scope. Returns nil when not found.
func (s *Store) GetFeedback(ctx context.Context, ownerID, businessID, id string) (*models.Feedback, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback
		WHERE owner_id = $1 AND business_id = $2 AND id = $3
	`, ownerID, businessID, id)

	f, err := scanFeedback(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// SetStatus updates a feedback record's status. The status value must already
// be validated by the caller. Returns false when no record matched.
func (s *Store) SetStatus(ctx context.Context, ownerID, businessID, id, status string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE feedback
		SET status = $1
		WHERE owner_id = $2 AND business_id = $3 AND id = $4
	`, status, ownerID, businessID, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Stats summarises feedback volume for a business.
func (s *Store) Stats(ctx context.Context, ownerID, businessID string) (*models.FeedbackStats, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'unread'),
		       COUNT(*) FILTER (WHERE received_at > NOW() - INTERVAL '7 days')
		FROM feedback
		WHERE owner_id = $1 AND business_id = $2
	`, ownerID, businessID)

	var st models.FeedbackStats
	if err := row.Scan(&st.Total, &st.Unread, &st.ThisWeek); err != nil {
		return nil, err
	}
	return &st, nil
}

// Ping checks the Postgres connection.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// scanFeedback scans a single row into a Feedback.
func scanFeedback(row pgx.Row) (*models.Feedback, error) {
	var f models.Feedback
	err := row.Scan(
		&f.ID, &f.Owner, &f.BusinessID, &f.OriginalText, &f.TransformedText,
		&f.SenderEmail, &f.SenderName, &f.Subject, &f.ReceivedAt, &f.ProcessedAt,
		&f.Sentiment.Original.Score, &f.Sentiment.Original.Label,
		&f.Sentiment.Transformed.Score, &f.Sentiment.Transformed.Label,
		&f.Metadata.ProviderMessageID, &f.Metadata.TransformationModel,
		&f.Metadata.ProcessingTimeMs, &f.Metadata.WasTransformed,
		&f.Status, &f.Tags,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// collectFeedback scans multiple rows into a slice of Feedback.
func collectFeedback(rows pgx.Rows) ([]models.Feedback, error) {
	var records []models.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *f)
	}
	return records, rows.Err()
}
