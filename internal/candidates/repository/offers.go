package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrOfferNotFound = errors.New("offer not found")

// Offer records the commercial terms extended to a candidate. FixedCTC is the
// fixed annual compensation in lakhs, the base for the placement fee.
type Offer struct {
	ID          uuid.UUID
	CandidateID uuid.UUID
	FixedCTC    float64
	Status      string
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateOfferParams struct {
	CandidateID uuid.UUID
	FixedCTC    float64
	Notes       string
	Timeline    TimelineParams
}

// CreateOffer records the offer terms and its timeline entry atomically. One
// offer per candidate; recording again revises the terms in place and resets
// the status to pending.
func (r *Repository) CreateOffer(ctx context.Context, params CreateOfferParams) (Offer, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Offer{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var offer Offer
	err = tx.QueryRow(ctx, `
		INSERT INTO offers (candidate_id, fixed_ctc, notes)
		VALUES ($1, $2, $3)
		ON CONFLICT (candidate_id) DO UPDATE SET
			fixed_ctc = EXCLUDED.fixed_ctc,
			notes = EXCLUDED.notes,
			status = 'pending',
			updated_at = NOW()
		RETURNING id, candidate_id, fixed_ctc, status, notes, created_at, updated_at`,
		params.CandidateID, params.FixedCTC, params.Notes,
	).Scan(&offer.ID, &offer.CandidateID, &offer.FixedCTC, &offer.Status, &offer.Notes, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		return Offer{}, err
	}

	timeline := params.Timeline
	timeline.CandidateID = params.CandidateID
	if _, err := appendTimelineTx(ctx, tx, timeline); err != nil {
		return Offer{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Offer{}, err
	}
	return offer, nil
}

// GetOfferByCandidate returns the offer recorded for a candidate, if any.
func (r *Repository) GetOfferByCandidate(ctx context.Context, candidateID uuid.UUID) (Offer, error) {
	var offer Offer
	err := r.pool.QueryRow(ctx, `
		SELECT id, candidate_id, fixed_ctc, status, notes, created_at, updated_at
		FROM offers WHERE candidate_id = $1`,
		candidateID,
	).Scan(&offer.ID, &offer.CandidateID, &offer.FixedCTC, &offer.Status, &offer.Notes, &offer.CreatedAt, &offer.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Offer{}, ErrOfferNotFound
	}
	if err != nil {
		return Offer{}, err
	}
	return offer, nil
}
