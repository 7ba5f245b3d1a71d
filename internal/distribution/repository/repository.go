package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("assignment not found")
	ErrDuplicate       = errors.New("assignment already exists")
	ErrEndpointMissing = errors.New("operator or source does not exist")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Assignment is a weighted eligibility edge from a source to an operator.
type Assignment struct {
	ID         uuid.UUID
	OperatorID uuid.UUID
	SourceID   uuid.UUID
	Weight     int
	CreatedAt  time.Time
}

// Candidate is an operator eligible to receive a contact from a source:
// the assignment exists, both endpoints are active, and the operator has
// spare capacity. Load is computed live from non-terminal contacts.
type Candidate struct {
	OperatorID        uuid.UUID
	OperatorName      string
	Weight            int
	CurrentLoad       int
	MaxActiveContacts int
}

func (r *Repository) Create(ctx context.Context, operatorID, sourceID uuid.UUID, weight int) (Assignment, error) {
	var a Assignment
	err := r.pool.QueryRow(ctx, `
		INSERT INTO operator_source_assignments (operator_id, source_id, weight)
		VALUES ($1, $2, $3)
		RETURNING id, operator_id, source_id, weight, created_at
	`, operatorID, sourceID, weight).Scan(&a.ID, &a.OperatorID, &a.SourceID, &a.Weight, &a.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return Assignment{}, ErrDuplicate
		case foreignKeyViolation:
			return Assignment{}, ErrEndpointMissing
		}
	}
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (r *Repository) UpdateWeight(ctx context.Context, operatorID, sourceID uuid.UUID, weight int) (Assignment, error) {
	var a Assignment
	err := r.pool.QueryRow(ctx, `
		UPDATE operator_source_assignments
		SET weight = $3
		WHERE operator_id = $1 AND source_id = $2
		RETURNING id, operator_id, source_id, weight, created_at
	`, operatorID, sourceID, weight).Scan(&a.ID, &a.OperatorID, &a.SourceID, &a.Weight, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, ErrNotFound
	}
	if err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (r *Repository) Delete(ctx context.Context, operatorID, sourceID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM operator_source_assignments
		WHERE operator_id = $1 AND source_id = $2
	`, operatorID, sourceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCandidates returns the eligible operators for a source. Eligibility is
// decided here, in one query, so capacity is part of selection rather than a
// post-selection check. The load read is a snapshot; the capacity gate
// re-verifies under a row lock at reservation time.
func (r *Repository) ListCandidates(ctx context.Context, sourceID uuid.UUID) ([]Candidate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.name, a.weight,
			(SELECT count(*) FROM contacts c WHERE c.operator_id = o.id AND c.status IN ('new', 'in_progress')) AS current_load,
			o.max_active_contacts
		FROM operator_source_assignments a
		JOIN operators o ON o.id = a.operator_id
		JOIN sources s ON s.id = a.source_id
		WHERE a.source_id = $1
			AND o.is_active
			AND s.is_active
	`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := make([]Candidate, 0)
	for rows.Next() {
		var cand Candidate
		if err := rows.Scan(&cand.OperatorID, &cand.OperatorName, &cand.Weight, &cand.CurrentLoad, &cand.MaxActiveContacts); err != nil {
			return nil, err
		}
		if cand.CurrentLoad < cand.MaxActiveContacts {
			candidates = append(candidates, cand)
		}
	}
	return candidates, rows.Err()
}
