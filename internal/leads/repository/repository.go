package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID         uuid.UUID
	ExternalID string
	Name       *string
	Phone      *string
	Email      *string
	CreatedAt  time.Time
}

// LeadContact is a contact row in the context of a lead's history.
type LeadContact struct {
	ID           uuid.UUID
	SourceID     uuid.UUID
	SourceCode   string
	OperatorID   *uuid.UUID
	OperatorName *string
	Status       string
	Message      *string
	CreatedAt    time.Time
	AssignedAt   *time.Time
	ClosedAt     *time.Time
}

type GetOrCreateParams struct {
	ExternalID string
	Name       *string
	Phone      *string
	Email      *string
}

// GetOrCreate resolves an external identity to its canonical lead,
// creating one when absent. The unique constraint on external_id decides
// concurrent first-contact races; losers fall through to reading the
// winner's row. An existing lead is returned unchanged: the attributes
// recorded on first contact win.
func (r *Repository) GetOrCreate(ctx context.Context, params GetOrCreateParams) (Lead, bool, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		INSERT INTO leads (external_id, name, phone, email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id, external_id, name, phone, email, created_at
	`, params.ExternalID, params.Name, params.Phone, params.Email).Scan(
		&lead.ID, &lead.ExternalID, &lead.Name, &lead.Phone, &lead.Email, &lead.CreatedAt,
	)
	if err == nil {
		return lead, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, false, err
	}

	lead, err = r.GetByExternalID(ctx, params.ExternalID)
	if err != nil {
		return Lead{}, false, err
	}
	return lead, false, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (Lead, error) {
	return r.get(ctx, `WHERE external_id = $1`, externalID)
}

func (r *Repository) get(ctx context.Context, where string, arg interface{}) (Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, external_id, name, phone, email, created_at
		FROM leads `+where,
		arg,
	).Scan(&lead.ID, &lead.ExternalID, &lead.Name, &lead.Phone, &lead.Email, &lead.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) List(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, external_id, name, phone, email, created_at
		FROM leads
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		var lead Lead
		if err := rows.Scan(&lead.ID, &lead.ExternalID, &lead.Name, &lead.Phone, &lead.Email, &lead.CreatedAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// ListContacts returns the lead's contact history across all sources.
func (r *Repository) ListContacts(ctx context.Context, leadID uuid.UUID) ([]LeadContact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT c.id, c.source_id, s.code, c.operator_id, o.name, c.status, c.message,
			c.created_at, c.assigned_at, c.closed_at
		FROM contacts c
		JOIN sources s ON s.id = c.source_id
		LEFT JOIN operators o ON o.id = c.operator_id
		WHERE c.lead_id = $1
		ORDER BY c.created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := make([]LeadContact, 0)
	for rows.Next() {
		var lc LeadContact
		if err := rows.Scan(&lc.ID, &lc.SourceID, &lc.SourceCode, &lc.OperatorID, &lc.OperatorName,
			&lc.Status, &lc.Message, &lc.CreatedAt, &lc.AssignedAt, &lc.ClosedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, lc)
	}
	return contacts, rows.Err()
}
