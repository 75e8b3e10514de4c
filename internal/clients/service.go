package clients

import (
	"context"
	"errors"

	"talenttrack_backend/internal/candidates/ports"
	"talenttrack_backend/platform/apperr"
	"talenttrack_backend/platform/config"
	"talenttrack_backend/platform/logger"

	"github.com/google/uuid"
)

// store is the persistence surface the service needs; *Repository implements
// it and tests substitute a fake.
type store interface {
	CreateClient(ctx context.Context, params CreateClientParams) (Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	UpdateTerms(ctx context.Context, params UpdateTermsParams) (Client, error)
	CreateJob(ctx context.Context, params CreateJobParams) (Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (Job, error)
	ListJobs(ctx context.Context, clientID *uuid.UUID) ([]Job, error)
	GetClientByJob(ctx context.Context, jobID uuid.UUID) (Client, error)
}

type Service struct {
	repo store
	log  *logger.Logger
	cfg  config.PlacementConfig
}

func NewService(repo store, log *logger.Logger, cfg config.PlacementConfig) *Service {
	return &Service{repo: repo, log: log, cfg: cfg}
}

func (s *Service) CreateClient(ctx context.Context, params CreateClientParams) (Client, error) {
	if params.FeePercentage != nil && (*params.FeePercentage <= 0 || *params.FeePercentage > 100) {
		return Client{}, apperr.Validation("fee percentage must be between 0 and 100")
	}
	if params.GuaranteePeriodDays != nil && *params.GuaranteePeriodDays < 0 {
		return Client{}, apperr.Validation("guarantee period cannot be negative")
	}
	client, err := s.repo.CreateClient(ctx, params)
	if err != nil {
		return Client{}, apperr.Wrap(apperr.KindInternal, "failed to create client", err)
	}
	return client, nil
}

func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (Client, error) {
	client, err := s.repo.GetClient(ctx, id)
	if errors.Is(err, ErrClientNotFound) {
		return Client{}, apperr.NotFound("client not found")
	}
	if err != nil {
		return Client{}, apperr.Wrap(apperr.KindInternal, "failed to load client", err)
	}
	return client, nil
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	items, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list clients", err)
	}
	return items, nil
}

func (s *Service) UpdateTerms(ctx context.Context, params UpdateTermsParams) (Client, error) {
	if params.FeePercentage != nil && (*params.FeePercentage <= 0 || *params.FeePercentage > 100) {
		return Client{}, apperr.Validation("fee percentage must be between 0 and 100")
	}
	if params.GuaranteePeriodDays != nil && *params.GuaranteePeriodDays < 0 {
		return Client{}, apperr.Validation("guarantee period cannot be negative")
	}
	client, err := s.repo.UpdateTerms(ctx, params)
	if errors.Is(err, ErrClientNotFound) {
		return Client{}, apperr.NotFound("client not found")
	}
	if err != nil {
		return Client{}, apperr.Wrap(apperr.KindInternal, "failed to update terms", err)
	}
	return client, nil
}

func (s *Service) CreateJob(ctx context.Context, params CreateJobParams) (Job, error) {
	if _, err := s.GetClient(ctx, params.ClientID); err != nil {
		return Job{}, err
	}
	job, err := s.repo.CreateJob(ctx, params)
	if err != nil {
		return Job{}, apperr.Wrap(apperr.KindInternal, "failed to create job", err)
	}
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	job, err := s.repo.GetJob(ctx, id)
	if errors.Is(err, ErrJobNotFound) {
		return Job{}, apperr.NotFound("job not found")
	}
	if err != nil {
		return Job{}, apperr.Wrap(apperr.KindInternal, "failed to load job", err)
	}
	return job, nil
}

func (s *Service) ListJobs(ctx context.Context, clientID *uuid.UUID) ([]Job, error) {
	items, err := s.repo.ListJobs(ctx, clientID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list jobs", err)
	}
	return items, nil
}

// FeeTermsForJob resolves the effective terms for a job: the client's
// negotiated values where present, agency defaults otherwise. Implements
// the candidates module's FeeTermsReader port.
func (s *Service) FeeTermsForJob(ctx context.Context, jobID uuid.UUID) (ports.FeeTerms, error) {
	client, err := s.repo.GetClientByJob(ctx, jobID)
	if errors.Is(err, ErrJobNotFound) {
		return ports.FeeTerms{}, apperr.NotFound("job not found")
	}
	if err != nil {
		return ports.FeeTerms{}, apperr.Wrap(apperr.KindInternal, "failed to resolve fee terms", err)
	}

	terms := ports.FeeTerms{
		FeePercentage:       s.cfg.GetDefaultFeePercent(),
		GuaranteePeriodDays: s.cfg.GetGuaranteePeriodDays(),
	}
	if client.FeePercentage != nil {
		terms.FeePercentage = *client.FeePercentage
	}
	if client.GuaranteePeriodDays != nil {
		terms.GuaranteePeriodDays = *client.GuaranteePeriodDays
	}
	return terms, nil
}

var _ ports.FeeTermsReader = (*Service)(nil)
