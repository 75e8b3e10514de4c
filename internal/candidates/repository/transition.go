package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// NewSafetyRecord asks the transition to open a guarantee-period safety record.
type NewSafetyRecord struct {
	GuaranteePeriodEnds time.Time
	GuaranteePeriodDays int
}

// TransitionParams is one atomic stage move: the candidate row update, the
// optional placement side effects and the timeline entry commit or roll back
// together.
type TransitionParams struct {
	CandidateID     uuid.UUID
	ExpectedVersion int64
	ToStage         string
	OccurredAt      time.Time
	RevenueEarned   *float64
	PlacementStatus *string
	OfferStatus     *string
	Safety          *NewSafetyRecord
	Timeline        TimelineParams
}

// ApplyTransition moves a candidate to a new stage with compare-and-set
// semantics on the version column. Returns ErrVersionConflict when another
// mutation won the race, ErrNotFound when the candidate is gone.
func (r *Repository) ApplyTransition(ctx context.Context, params TransitionParams) (Candidate, error) {
	dateCol, ok := stageDateColumns[params.ToStage]
	if !ok {
		return Candidate{}, fmt.Errorf("no date column for stage %q", params.ToStage)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Candidate{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, fmt.Sprintf(`
		UPDATE candidates SET
			current_stage = $1,
			%s = $2,
			revenue_earned = COALESCE($3, revenue_earned),
			placement_status = COALESCE($4, placement_status),
			last_activity_at = $2,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $5 AND version = $6
		RETURNING`+candidateSelectCols, dateCol),
		params.ToStage, params.OccurredAt, params.RevenueEarned, params.PlacementStatus,
		params.CandidateID, params.ExpectedVersion,
	)
	candidate, err := scanCandidate(row)
	if errors.Is(err, ErrNotFound) {
		return Candidate{}, resolveUpdateFailure(ctx, tx, params.CandidateID)
	}
	if err != nil {
		return Candidate{}, err
	}

	if params.OfferStatus != nil {
		if _, err := tx.Exec(ctx, `
			UPDATE offers SET status = $1, updated_at = NOW() WHERE candidate_id = $2`,
			*params.OfferStatus, params.CandidateID,
		); err != nil {
			return Candidate{}, err
		}
	}

	if params.Safety != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO placement_safety_records (candidate_id, placement_date, guarantee_period_days, guarantee_period_ends)
			VALUES ($1, $2, $3, $4)`,
			params.CandidateID, params.OccurredAt, params.Safety.GuaranteePeriodDays, params.Safety.GuaranteePeriodEnds,
		); err != nil {
			return Candidate{}, err
		}
	}

	timeline := params.Timeline
	timeline.CandidateID = params.CandidateID
	if _, err := appendTimelineTx(ctx, tx, timeline); err != nil {
		return Candidate{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Candidate{}, err
	}
	return candidate, nil
}

// RenegeParams reverses a placement after the candidate backs out.
type RenegeParams struct {
	CandidateID     uuid.UUID
	ExpectedVersion int64
	RenegeType      string
	RenegeDate      time.Time
	Reason          string
	Timeline        TimelineParams
}

// ApplyRenege zeroes the placement in one transaction: candidate moves to
// dropped with revenue cleared, the offer is marked renege and the safety
// record is closed as lost. Same compare-and-set contract as ApplyTransition.
func (r *Repository) ApplyRenege(ctx context.Context, params RenegeParams) (Candidate, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Candidate{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE candidates SET
			current_stage = 'dropped',
			dropped_at = $1,
			is_renege = TRUE,
			renege_date = $1,
			renege_reason = $2,
			revenue_earned = 0,
			placement_status = 'lost',
			is_placement_safe = FALSE,
			last_activity_at = $1,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $3 AND version = $4
		RETURNING`+candidateSelectCols,
		params.RenegeDate, params.Reason, params.CandidateID, params.ExpectedVersion,
	)
	candidate, err := scanCandidate(row)
	if errors.Is(err, ErrNotFound) {
		return Candidate{}, resolveUpdateFailure(ctx, tx, params.CandidateID)
	}
	if err != nil {
		return Candidate{}, err
	}

	// The renege note is appended; whatever the recruiter wrote earlier stays.
	offerNote := fmt.Sprintf("Reneged (%s): %s", params.RenegeType, params.Reason)
	if _, err := tx.Exec(ctx, `
		UPDATE offers SET
			status = 'renege',
			notes = CASE WHEN notes IS NULL OR notes = '' THEN $1 ELSE notes || E'\n' || $1 END,
			updated_at = NOW()
		WHERE candidate_id = $2`,
		offerNote, params.CandidateID,
	); err != nil {
		return Candidate{}, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE placement_safety_records SET
			safety_status = 'lost',
			risk_notes = $1,
			updated_at = NOW()
		WHERE candidate_id = $2`,
		params.Reason, params.CandidateID,
	); err != nil {
		return Candidate{}, err
	}

	timeline := params.Timeline
	timeline.CandidateID = params.CandidateID
	if _, err := appendTimelineTx(ctx, tx, timeline); err != nil {
		return Candidate{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Candidate{}, err
	}
	return candidate, nil
}
