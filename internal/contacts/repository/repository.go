package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadrouter_backend/internal/contacts/domain"
)

var (
	ErrNotFound            = errors.New("contact not found")
	ErrContactClosed       = errors.New("contact is closed")
	ErrStaleStatus         = errors.New("contact status changed concurrently")
	ErrOperatorSaturated   = errors.New("operator has no spare capacity")
	ErrOperatorUnavailable = errors.New("operator missing or inactive")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Contact is a routed inbound inquiry. OperatorID is nil when no eligible
// operator had spare capacity at ingest time.
type Contact struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	SourceID     uuid.UUID
	SourceCode   string
	OperatorID   *uuid.UUID
	OperatorName *string
	Status       domain.Status
	Message      *string
	CreatedAt    time.Time
	AssignedAt   *time.Time
	ClosedAt     *time.Time
}

type CreateParams struct {
	LeadID   uuid.UUID
	SourceID uuid.UUID
	Message  *string
}

const selectContact = `
	SELECT c.id, c.lead_id, c.source_id, s.code, c.operator_id, o.name,
	       c.status, c.message, c.created_at, c.assigned_at, c.closed_at
	FROM contacts c
	JOIN sources s ON s.id = c.source_id
	LEFT JOIN operators o ON o.id = c.operator_id`

// CreateAssigned inserts a contact bound to an operator, but only if the
// operator still has spare capacity. The operator row is locked for the
// duration of the transaction so the load check and the insert are atomic:
// two concurrent inserts against the same operator serialize here, and the
// second one sees the first one's row in its count.
func (r *Repository) CreateAssigned(ctx context.Context, params CreateParams, operatorID uuid.UUID) (Contact, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Contact{}, err
	}
	defer tx.Rollback(ctx)

	maxActive, err := lockOperatorCapacity(ctx, tx, operatorID)
	if err != nil {
		return Contact{}, err
	}

	var load int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM contacts
		WHERE operator_id = $1 AND status IN ('new', 'in_progress')
	`, operatorID).Scan(&load)
	if err != nil {
		return Contact{}, err
	}
	if load >= maxActive {
		return Contact{}, ErrOperatorSaturated
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO contacts (lead_id, source_id, operator_id, message, status, assigned_at)
		VALUES ($1, $2, $3, $4, 'new', now())
		RETURNING id
	`, params.LeadID, params.SourceID, operatorID, params.Message).Scan(&id)
	if err != nil {
		return Contact{}, err
	}

	contact, err := getContact(ctx, tx, id)
	if err != nil {
		return Contact{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Contact{}, err
	}
	return contact, nil
}

// CreateUnassigned inserts a contact with no operator. Used when the
// candidate set for the source is empty or fully saturated.
func (r *Repository) CreateUnassigned(ctx context.Context, params CreateParams) (Contact, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO contacts (lead_id, source_id, message, status)
		VALUES ($1, $2, $3, 'new')
		RETURNING id
	`, params.LeadID, params.SourceID, params.Message).Scan(&id)
	if err != nil {
		return Contact{}, err
	}
	return getContact(ctx, r.pool, id)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Contact, error) {
	return getContact(ctx, r.pool, id)
}

// List returns contacts newest-first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *domain.Status) ([]Contact, error) {
	query := selectContact
	args := []interface{}{}
	if status != nil {
		query += ` WHERE c.status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// UpdateStatus transitions a contact from one status to another with a
// compare-and-swap: the update only lands if the contact is still in the
// expected status, so concurrent transitions cannot both win.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to domain.Status) (Contact, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contacts
		SET status = $3,
		    closed_at = CASE WHEN $3 = 'closed' THEN now() ELSE closed_at END
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return Contact{}, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := getContact(ctx, r.pool, id); errors.Is(err, ErrNotFound) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, ErrStaleStatus
	}
	return getContact(ctx, r.pool, id)
}

// Assign moves a non-closed contact onto an operator, enforcing the same
// capacity gate as ingest. The contact's own row is excluded from the load
// count so reassigning to the current operator is a no-op, not a failure.
func (r *Repository) Assign(ctx context.Context, id, operatorID uuid.UUID) (Contact, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Contact{}, err
	}
	defer tx.Rollback(ctx)

	maxActive, err := lockOperatorCapacity(ctx, tx, operatorID)
	if err != nil {
		return Contact{}, err
	}

	var load int
	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM contacts
		WHERE operator_id = $1 AND status IN ('new', 'in_progress') AND id <> $2
	`, operatorID, id).Scan(&load)
	if err != nil {
		return Contact{}, err
	}
	if load >= maxActive {
		return Contact{}, ErrOperatorSaturated
	}

	tag, err := tx.Exec(ctx, `
		UPDATE contacts SET operator_id = $2, assigned_at = now()
		WHERE id = $1 AND status <> 'closed'
	`, id, operatorID)
	if err != nil {
		return Contact{}, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := getContact(ctx, tx, id); errors.Is(err, ErrNotFound) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, ErrContactClosed
	}

	contact, err := getContact(ctx, tx, id)
	if err != nil {
		return Contact{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Contact{}, err
	}
	return contact, nil
}

// Unassign detaches a non-closed contact from its operator.
func (r *Repository) Unassign(ctx context.Context, id uuid.UUID) (Contact, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE contacts SET operator_id = NULL, assigned_at = NULL
		WHERE id = $1 AND status <> 'closed'
	`, id)
	if err != nil {
		return Contact{}, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := getContact(ctx, r.pool, id); errors.Is(err, ErrNotFound) {
			return Contact{}, ErrNotFound
		}
		return Contact{}, ErrContactClosed
	}
	return getContact(ctx, r.pool, id)
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// lockOperatorCapacity takes a row lock on the operator and returns its
// capacity. Inactive operators are treated the same as missing ones.
func lockOperatorCapacity(ctx context.Context, q querier, operatorID uuid.UUID) (int, error) {
	var isActive bool
	var maxActive int
	err := q.QueryRow(ctx, `
		SELECT is_active, max_active_contacts FROM operators WHERE id = $1 FOR UPDATE
	`, operatorID).Scan(&isActive, &maxActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrOperatorUnavailable
	}
	if err != nil {
		return 0, err
	}
	if !isActive {
		return 0, ErrOperatorUnavailable
	}
	return maxActive, nil
}

func getContact(ctx context.Context, q querier, id uuid.UUID) (Contact, error) {
	row := q.QueryRow(ctx, selectContact+` WHERE c.id = $1`, id)
	c, err := scanContact(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, ErrNotFound
	}
	if err != nil {
		return Contact{}, err
	}
	return c, nil
}

func scanContact(row pgx.Row) (Contact, error) {
	var c Contact
	err := row.Scan(
		&c.ID, &c.LeadID, &c.SourceID, &c.SourceCode, &c.OperatorID, &c.OperatorName,
		&c.Status, &c.Message, &c.CreatedAt, &c.AssignedAt, &c.ClosedAt,
	)
	return c, err
}
