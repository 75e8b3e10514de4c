// Package ports defines the interfaces the candidates domain requires from
// other modules. Implementations are provided by the composition root so the
// candidates domain never imports the clients module directly.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// FeeTerms are the commercial terms that govern one job's placements. Values
// come from the client agreement, with agency-wide defaults filling gaps.
type FeeTerms struct {
	FeePercentage       float64
	GuaranteePeriodDays int
}

// FeeTermsReader resolves the fee terms for a job requisition.
type FeeTermsReader interface {
	// FeeTermsForJob returns the effective fee terms for the given job,
	// including configured defaults where the client agreement is silent.
	FeeTermsForJob(ctx context.Context, jobID uuid.UUID) (FeeTerms, error)
}
