package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("candidate not found")
	// ErrVersionConflict means a compare-and-set update lost a version race.
	ErrVersionConflict = errors.New("candidate version conflict")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Candidate is one person tracked against one job requisition. A candidate
// re-applying to a different job is a new record.
type Candidate struct {
	ID                   uuid.UUID
	JobID                uuid.UUID
	RecruiterID          uuid.UUID
	TeamID               *uuid.UUID
	FirstName            string
	LastName             string
	Email                *string
	Phone                string
	TotalExperienceYears float64
	CurrentCTC           *float64
	ExpectedCTC          *float64
	CurrentStage         string
	PlacementStatus      string
	RevenueEarned        float64
	IsRenege             bool
	RenegeDate           *time.Time
	RenegeReason         *string
	IsPlacementSafe      bool
	SourcedAt            time.Time
	ScreeningAt          *time.Time
	InterviewScheduledAt *time.Time
	InterviewCompletedAt *time.Time
	OfferMadeAt          *time.Time
	OfferAcceptedAt      *time.Time
	JoinedAt             *time.Time
	RejectedAt           *time.Time
	DroppedAt            *time.Time
	LastActivityAt       time.Time
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FullName is the display name used for timeline attribution and sorting.
func (c Candidate) FullName() string {
	return c.FirstName + " " + c.LastName
}

// stageDateColumns maps each pipeline stage to its timestamp column.
// Used to build the stage-stamp portion of the transition UPDATE; values are
// fixed identifiers, never user input.
var stageDateColumns = map[string]string{
	"sourced":             "sourced_at",
	"screening":           "screening_at",
	"interview_scheduled": "interview_scheduled_at",
	"interview_completed": "interview_completed_at",
	"offer_made":          "offer_made_at",
	"offer_accepted":      "offer_accepted_at",
	"joined":              "joined_at",
	"rejected":            "rejected_at",
	"dropped":             "dropped_at",
}

const candidateSelectCols = `
	id, job_id, recruiter_id, team_id, first_name, last_name, email, phone,
	total_experience_years, current_ctc, expected_ctc, current_stage, placement_status,
	revenue_earned, is_renege, renege_date, renege_reason, is_placement_safe,
	sourced_at, screening_at, interview_scheduled_at, interview_completed_at,
	offer_made_at, offer_accepted_at, joined_at, rejected_at, dropped_at,
	last_activity_at, version, created_at, updated_at`

type candidateRowScanner interface {
	Scan(dest ...any) error
}

func scanCandidate(s candidateRowScanner) (Candidate, error) {
	var c Candidate
	err := s.Scan(
		&c.ID, &c.JobID, &c.RecruiterID, &c.TeamID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.TotalExperienceYears, &c.CurrentCTC, &c.ExpectedCTC, &c.CurrentStage, &c.PlacementStatus,
		&c.RevenueEarned, &c.IsRenege, &c.RenegeDate, &c.RenegeReason, &c.IsPlacementSafe,
		&c.SourcedAt, &c.ScreeningAt, &c.InterviewScheduledAt, &c.InterviewCompletedAt,
		&c.OfferMadeAt, &c.OfferAcceptedAt, &c.JoinedAt, &c.RejectedAt, &c.DroppedAt,
		&c.LastActivityAt, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Candidate{}, ErrNotFound
	}
	if err != nil {
		return Candidate{}, err
	}
	return c, nil
}

type CreateCandidateParams struct {
	JobID                uuid.UUID
	RecruiterID          uuid.UUID
	TeamID               *uuid.UUID
	FirstName            string
	LastName             string
	Email                *string
	Phone                string
	TotalExperienceYears float64
	CurrentCTC           *float64
	ExpectedCTC          *float64
	Timeline             TimelineParams
}

// CreateCandidate inserts a new candidate at the sourced stage together with
// its creation timeline entry in one transaction.
func (r *Repository) CreateCandidate(ctx context.Context, params CreateCandidateParams) (Candidate, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Candidate{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO candidates (
			job_id, recruiter_id, team_id, first_name, last_name, email, phone,
			total_experience_years, current_ctc, expected_ctc
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING`+candidateSelectCols,
		params.JobID, params.RecruiterID, params.TeamID, params.FirstName, params.LastName,
		params.Email, params.Phone, params.TotalExperienceYears, params.CurrentCTC, params.ExpectedCTC,
	)
	candidate, err := scanCandidate(row)
	if err != nil {
		return Candidate{}, err
	}

	timeline := params.Timeline
	timeline.CandidateID = candidate.ID
	if _, err := appendTimelineTx(ctx, tx, timeline); err != nil {
		return Candidate{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Candidate{}, err
	}
	return candidate, nil
}

// GetCandidate returns a candidate by ID.
func (r *Repository) GetCandidate(ctx context.Context, id uuid.UUID) (Candidate, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+candidateSelectCols+` FROM candidates WHERE id = $1`, id)
	return scanCandidate(row)
}

// ListParams filters the candidate list.
type ListParams struct {
	RecruiterID *uuid.UUID
	JobID       *uuid.UUID
	Stage       *string
	Limit       int
	Offset      int
}

// ListCandidates returns candidates matching the filters, most recent activity first.
func (r *Repository) ListCandidates(ctx context.Context, params ListParams) ([]Candidate, error) {
	limit := params.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := `SELECT` + candidateSelectCols + ` FROM candidates WHERE 1=1`
	args := make([]any, 0, 5)
	if params.RecruiterID != nil {
		args = append(args, *params.RecruiterID)
		query += fmt.Sprintf(" AND recruiter_id = $%d", len(args))
	}
	if params.JobID != nil {
		args = append(args, *params.JobID)
		query += fmt.Sprintf(" AND job_id = $%d", len(args))
	}
	if params.Stage != nil {
		args = append(args, *params.Stage)
		query += fmt.Sprintf(" AND current_stage = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY last_activity_at DESC LIMIT $%d", len(args))
	args = append(args, params.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Candidate, 0)
	for rows.Next() {
		candidate, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, candidate)
	}
	return items, rows.Err()
}

// resolveUpdateFailure distinguishes a lost version race from a missing row
// after a compare-and-set UPDATE touched zero rows.
func resolveUpdateFailure(ctx context.Context, tx pgx.Tx, candidateID uuid.UUID) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM candidates WHERE id = $1)`, candidateID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrVersionConflict
}
