package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Entry is one row in the activity trail. The id columns are nullable
// because not every event carries every identity (a lead.created has no
// contact yet).
type Entry struct {
	EventName  string
	LeadID     *uuid.UUID
	ContactID  *uuid.UUID
	OperatorID *uuid.UUID
	Detail     string
	OccurredAt time.Time
}

func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_log (event_name, lead_id, contact_id, operator_id, detail, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.EventName, entry.LeadID, entry.ContactID, entry.OperatorID, entry.Detail, entry.OccurredAt)
	return err
}
