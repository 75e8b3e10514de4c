// Package clients manages client companies and their job requisitions,
// including the contract terms that drive placement fees.
package clients

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrJobNotFound    = errors.New("job not found")
)

// Client is a hiring company. FeePercentage and GuaranteePeriodDays are the
// negotiated contract terms; nil means the agency default applies.
type Client struct {
	ID                  uuid.UUID
	Name                string
	ContactName         *string
	ContactEmail        *string
	ContactPhone        *string
	FeePercentage       *float64
	GuaranteePeriodDays *int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Job is one open requisition at a client.
type Job struct {
	ID        uuid.UUID
	ClientID  uuid.UUID
	Title     string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const (
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type CreateClientParams struct {
	Name                string
	ContactName         *string
	ContactEmail        *string
	ContactPhone        *string
	FeePercentage       *float64
	GuaranteePeriodDays *int
}

func (r *Repository) CreateClient(ctx context.Context, params CreateClientParams) (Client, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO clients (name, contact_name, contact_email, contact_phone, fee_percentage, guarantee_period_days)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, contact_name, contact_email, contact_phone, fee_percentage, guarantee_period_days, created_at, updated_at`,
		params.Name, params.ContactName, params.ContactEmail, params.ContactPhone, params.FeePercentage, params.GuaranteePeriodDays,
	)
	return scanClient(row)
}

func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, contact_name, contact_email, contact_phone, fee_percentage, guarantee_period_days, created_at, updated_at
		FROM clients WHERE id = $1`, id)
	return scanClient(row)
}

func (r *Repository) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, contact_name, contact_email, contact_phone, fee_percentage, guarantee_period_days, created_at, updated_at
		FROM clients ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, client)
	}
	return items, rows.Err()
}

type UpdateTermsParams struct {
	ClientID            uuid.UUID
	FeePercentage       *float64
	GuaranteePeriodDays *int
}

// UpdateTerms replaces the contract terms. Passing nil reverts a field to the
// agency default.
func (r *Repository) UpdateTerms(ctx context.Context, params UpdateTermsParams) (Client, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE clients SET fee_percentage = $1, guarantee_period_days = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, contact_name, contact_email, contact_phone, fee_percentage, guarantee_period_days, created_at, updated_at`,
		params.FeePercentage, params.GuaranteePeriodDays, params.ClientID,
	)
	return scanClient(row)
}

type CreateJobParams struct {
	ClientID uuid.UUID
	Title    string
}

func (r *Repository) CreateJob(ctx context.Context, params CreateJobParams) (Job, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO jobs (client_id, title)
		VALUES ($1, $2)
		RETURNING id, client_id, title, status, created_at, updated_at`,
		params.ClientID, params.Title,
	)
	return scanJob(row)
}

func (r *Repository) GetJob(ctx context.Context, id uuid.UUID) (Job, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, client_id, title, status, created_at, updated_at FROM jobs WHERE id = $1`, id)
	return scanJob(row)
}

func (r *Repository) ListJobs(ctx context.Context, clientID *uuid.UUID) ([]Job, error) {
	query := `SELECT id, client_id, title, status, created_at, updated_at FROM jobs`
	args := []any{}
	if clientID != nil {
		query += ` WHERE client_id = $1`
		args = append(args, *clientID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, job)
	}
	return items, rows.Err()
}

// GetClientByJob resolves the client owning a job, for fee terms lookups.
func (r *Repository) GetClientByJob(ctx context.Context, jobID uuid.UUID) (Client, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT c.id, c.name, c.contact_name, c.contact_email, c.contact_phone, c.fee_percentage, c.guarantee_period_days, c.created_at, c.updated_at
		FROM clients c
		JOIN jobs j ON j.client_id = c.id
		WHERE j.id = $1`, jobID)
	client, err := scanClient(row)
	if errors.Is(err, ErrClientNotFound) {
		return Client{}, ErrJobNotFound
	}
	return client, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(s rowScanner) (Client, error) {
	var c Client
	err := s.Scan(&c.ID, &c.Name, &c.ContactName, &c.ContactEmail, &c.ContactPhone,
		&c.FeePercentage, &c.GuaranteePeriodDays, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Client{}, ErrClientNotFound
	}
	if err != nil {
		return Client{}, err
	}
	return c, nil
}

func scanJob(s rowScanner) (Job, error) {
	var j Job
	err := s.Scan(&j.ID, &j.ClientID, &j.Title, &j.Status, &j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, err
	}
	return j, nil
}
