package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrSafetyRecordNotFound = errors.New("placement safety record not found")

// SafetyRecord tracks one placement through its guarantee period.
type SafetyRecord struct {
	ID                  uuid.UUID
	CandidateID         uuid.UUID
	PlacementDate       time.Time
	GuaranteePeriodDays int
	GuaranteePeriodEnds time.Time
	SafetyStatus        string
	LastFollowupDate    *time.Time
	RiskNotes           *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

const safetySelectCols = `
	psr.id, psr.candidate_id, psr.placement_date, psr.guarantee_period_days,
	psr.guarantee_period_ends, psr.safety_status, psr.last_followup_date,
	psr.risk_notes, psr.created_at, psr.updated_at`

func scanSafetyRecord(s candidateRowScanner) (SafetyRecord, error) {
	var rec SafetyRecord
	err := s.Scan(
		&rec.ID, &rec.CandidateID, &rec.PlacementDate, &rec.GuaranteePeriodDays,
		&rec.GuaranteePeriodEnds, &rec.SafetyStatus, &rec.LastFollowupDate,
		&rec.RiskNotes, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return SafetyRecord{}, ErrSafetyRecordNotFound
	}
	if err != nil {
		return SafetyRecord{}, err
	}
	return rec, nil
}

// GetSafetyRecord returns the safety record for a candidate's placement.
func (r *Repository) GetSafetyRecord(ctx context.Context, candidateID uuid.UUID) (SafetyRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+safetySelectCols+`
		FROM placement_safety_records psr WHERE psr.candidate_id = $1`,
		candidateID,
	)
	return scanSafetyRecord(row)
}

// SafetyScope limits a dashboard query to a recruiter's or a team's placements.
type SafetyScope struct {
	RecruiterID *uuid.UUID
	TeamID      *uuid.UUID
}

// ActiveSafetyRow is a safety record joined with the candidate and job context
// the at-risk dashboard renders.
type ActiveSafetyRow struct {
	SafetyRecord
	CandidateName string
	RecruiterID   uuid.UUID
	JobTitle      string
	ClientName    string
}

// ListActiveSafety returns the open (monitoring or at_risk) safety records in
// scope. Reneged candidates are excluded; their records are already lost.
func (r *Repository) ListActiveSafety(ctx context.Context, scope SafetyScope) ([]ActiveSafetyRow, error) {
	query := `
		SELECT` + safetySelectCols + `,
			c.first_name || ' ' || c.last_name, c.recruiter_id, j.title, cl.name
		FROM placement_safety_records psr
		JOIN candidates c ON c.id = psr.candidate_id
		JOIN jobs j ON j.id = c.job_id
		JOIN clients cl ON cl.id = j.client_id
		WHERE psr.safety_status IN ('monitoring', 'at_risk') AND c.is_renege = FALSE`
	args := make([]any, 0, 2)
	if scope.RecruiterID != nil {
		args = append(args, *scope.RecruiterID)
		query += fmt.Sprintf(" AND c.recruiter_id = $%d", len(args))
	}
	if scope.TeamID != nil {
		args = append(args, *scope.TeamID)
		query += fmt.Sprintf(" AND c.team_id = $%d", len(args))
	}
	query += " ORDER BY psr.guarantee_period_ends ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ActiveSafetyRow, 0)
	for rows.Next() {
		var row ActiveSafetyRow
		err := rows.Scan(
			&row.ID, &row.CandidateID, &row.PlacementDate, &row.GuaranteePeriodDays,
			&row.GuaranteePeriodEnds, &row.SafetyStatus, &row.LastFollowupDate,
			&row.RiskNotes, &row.CreatedAt, &row.UpdatedAt,
			&row.CandidateName, &row.RecruiterID, &row.JobTitle, &row.ClientName,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

// GuaranteeOutcome identifies one placement touched by a sweep.
type GuaranteeOutcome struct {
	SafetyRecordID      uuid.UUID
	CandidateID         uuid.UUID
	CandidateName       string
	RecruiterID         uuid.UUID
	GuaranteePeriodEnds time.Time
}

// ExpireGuarantees closes every open safety record whose guarantee period has
// lapsed as of now: the record becomes safe, the candidate is stamped
// placement-safe and a timeline entry is written, all in one transaction.
func (r *Repository) ExpireGuarantees(ctx context.Context, now time.Time) ([]GuaranteeOutcome, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `
		SELECT psr.id, psr.candidate_id, c.first_name || ' ' || c.last_name, c.recruiter_id, psr.guarantee_period_ends
		FROM placement_safety_records psr
		JOIN candidates c ON c.id = psr.candidate_id
		WHERE psr.safety_status IN ('monitoring', 'at_risk')
			AND psr.guarantee_period_ends < $1
			AND c.is_renege = FALSE
		FOR UPDATE OF psr`,
		now,
	)
	if err != nil {
		return nil, err
	}
	expired, err := collectOutcomes(rows)
	if err != nil {
		return nil, err
	}
	if len(expired) == 0 {
		return nil, tx.Commit(ctx)
	}

	for _, out := range expired {
		if _, err := tx.Exec(ctx, `
			UPDATE placement_safety_records SET safety_status = 'safe', updated_at = NOW() WHERE id = $1`,
			out.SafetyRecordID,
		); err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE candidates SET is_placement_safe = TRUE, last_activity_at = $1, updated_at = NOW() WHERE id = $2`,
			now, out.CandidateID,
		); err != nil {
			return nil, err
		}
		if _, err := appendTimelineTx(ctx, tx, TimelineParams{
			CandidateID:  out.CandidateID,
			ActivityType: ActivityGuaranteeCompleted,
			Title:        TitleGuaranteeCompleted,
			Description:  strPtr("Guarantee period completed without incident. Placement revenue is secured."),
			ActorType:    ActorTypeSystem,
			ActorName:    ActorNameSystem,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return expired, nil
}

// FlagAtRisk marks monitoring records whose guarantee period ends within the
// threshold window as at_risk and writes a timeline entry for each.
func (r *Repository) FlagAtRisk(ctx context.Context, now time.Time, thresholdDays int) ([]GuaranteeOutcome, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cutoff := now.AddDate(0, 0, thresholdDays)
	rows, err := tx.Query(ctx, `
		SELECT psr.id, psr.candidate_id, c.first_name || ' ' || c.last_name, c.recruiter_id, psr.guarantee_period_ends
		FROM placement_safety_records psr
		JOIN candidates c ON c.id = psr.candidate_id
		WHERE psr.safety_status = 'monitoring'
			AND psr.guarantee_period_ends >= $1
			AND psr.guarantee_period_ends <= $2
			AND c.is_renege = FALSE
		FOR UPDATE OF psr`,
		now, cutoff,
	)
	if err != nil {
		return nil, err
	}
	flagged, err := collectOutcomes(rows)
	if err != nil {
		return nil, err
	}
	if len(flagged) == 0 {
		return nil, tx.Commit(ctx)
	}

	for _, out := range flagged {
		if _, err := tx.Exec(ctx, `
			UPDATE placement_safety_records SET safety_status = 'at_risk', updated_at = NOW() WHERE id = $1`,
			out.SafetyRecordID,
		); err != nil {
			return nil, err
		}
		if _, err := appendTimelineTx(ctx, tx, TimelineParams{
			CandidateID:  out.CandidateID,
			ActivityType: ActivityPlacementAtRisk,
			Title:        TitlePlacementAtRisk,
			Description:  strPtr(fmt.Sprintf("Guarantee period ends %s. Follow up with the candidate.", out.GuaranteePeriodEnds.Format("2 Jan 2006"))),
			ActorType:    ActorTypeSystem,
			ActorName:    ActorNameSystem,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return flagged, nil
}

func collectOutcomes(rows pgx.Rows) ([]GuaranteeOutcome, error) {
	defer rows.Close()
	items := make([]GuaranteeOutcome, 0)
	for rows.Next() {
		var out GuaranteeOutcome
		if err := rows.Scan(&out.SafetyRecordID, &out.CandidateID, &out.CandidateName, &out.RecruiterID, &out.GuaranteePeriodEnds); err != nil {
			return nil, err
		}
		items = append(items, out)
	}
	return items, rows.Err()
}

type FollowUpParams struct {
	CandidateID  uuid.UUID
	FollowUpDate time.Time
	Notes        *string
	Timeline     TimelineParams
}

// RecordFollowUp stamps a check-in on an open safety record together with its
// timeline entry. Closed records reject the follow-up.
func (r *Repository) RecordFollowUp(ctx context.Context, params FollowUpParams) (SafetyRecord, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return SafetyRecord{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		UPDATE placement_safety_records psr SET
			last_followup_date = $1,
			risk_notes = COALESCE($2, risk_notes),
			updated_at = NOW()
		WHERE psr.candidate_id = $3 AND psr.safety_status IN ('monitoring', 'at_risk')
		RETURNING`+safetySelectCols,
		params.FollowUpDate, params.Notes, params.CandidateID,
	)
	rec, err := scanSafetyRecord(row)
	if err != nil {
		return SafetyRecord{}, err
	}

	timeline := params.Timeline
	timeline.CandidateID = params.CandidateID
	if _, err := appendTimelineTx(ctx, tx, timeline); err != nil {
		return SafetyRecord{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SafetyRecord{}, err
	}
	return rec, nil
}

func strPtr(s string) *string { return &s }
