package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TimelineDescriptionMaxLen caps timeline entry descriptions. Callers should
// use TruncateDescription when populating TimelineParams.Description.
const TimelineDescriptionMaxLen = 400

// TruncateDescription trims text to maxLen, appending "..." on overflow.
// Returns nil for blank input.
func TruncateDescription(text string, maxLen int) *string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len(trimmed) > maxLen {
		trimmed = trimmed[:maxLen] + "..."
	}
	return &trimmed
}

type TimelineEntry struct {
	ID           uuid.UUID
	CandidateID  uuid.UUID
	ActivityType string
	Title        string
	Description  *string
	ActorType    string
	ActorName    string
	Metadata     map[string]any
	CreatedAt    time.Time
}

type TimelineParams struct {
	CandidateID  uuid.UUID
	ActivityType string
	Title        string
	Description  *string
	ActorType    string
	ActorName    string
	Metadata     map[string]any
}

type timelineQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// appendTimelineTx writes one timeline entry inside the caller's transaction so
// the entry commits or rolls back with the state change it describes.
//
// metadata is excluded from RETURNING: we already hold params.Metadata as a Go
// value, and re-scanning the stored JSONB would add a redundant unmarshal on
// every insert.
func appendTimelineTx(ctx context.Context, q timelineQuerier, params TimelineParams) (TimelineEntry, error) {
	metadataJSON, err := json.Marshal(params.Metadata)
	if err != nil {
		return TimelineEntry{}, err
	}

	var entry TimelineEntry
	err = q.QueryRow(ctx, `
		INSERT INTO candidate_timeline_entries (
			candidate_id,
			activity_type,
			title,
			description,
			actor_type,
			actor_name,
			metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, candidate_id, activity_type, title, description, actor_type, actor_name, created_at
	`, params.CandidateID, params.ActivityType, params.Title, params.Description, params.ActorType, params.ActorName, metadataJSON).Scan(
		&entry.ID,
		&entry.CandidateID,
		&entry.ActivityType,
		&entry.Title,
		&entry.Description,
		&entry.ActorType,
		&entry.ActorName,
		&entry.CreatedAt,
	)
	if err != nil {
		return TimelineEntry{}, err
	}
	entry.Metadata = params.Metadata
	return entry, nil
}

// AppendTimelineEntry writes a standalone timeline entry outside any mutation,
// for notes and manual annotations.
func (r *Repository) AppendTimelineEntry(ctx context.Context, params TimelineParams) (TimelineEntry, error) {
	return appendTimelineTx(ctx, r.pool, params)
}

// ListTimeline returns a candidate's timeline newest first.
func (r *Repository) ListTimeline(ctx context.Context, candidateID uuid.UUID) ([]TimelineEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, candidate_id, activity_type, title, description, actor_type, actor_name, metadata, created_at
		FROM candidate_timeline_entries
		WHERE candidate_id = $1
		ORDER BY created_at DESC`,
		candidateID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]TimelineEntry, 0)
	for rows.Next() {
		var entry TimelineEntry
		var metadataJSON []byte
		err := rows.Scan(
			&entry.ID, &entry.CandidateID, &entry.ActivityType, &entry.Title,
			&entry.Description, &entry.ActorType, &entry.ActorName, &metadataJSON, &entry.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &entry.Metadata); err != nil {
				return nil, err
			}
		}
		items = append(items, entry)
	}
	return items, rows.Err()
}
