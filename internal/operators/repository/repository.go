package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("operator not found")

// activeLoadExpr derives an operator's load from live non-terminal contacts.
// There is no stored counter to drift.
const activeLoadExpr = `(
	SELECT count(*) FROM contacts c
	WHERE c.operator_id = o.id AND c.status IN ('new', 'in_progress')
)`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Operator struct {
	ID                uuid.UUID
	Name              string
	IsActive          bool
	MaxActiveContacts int
	CurrentLoad       int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// SourceAssignment describes one source an operator is assigned to.
type SourceAssignment struct {
	SourceID   uuid.UUID
	SourceCode string
	SourceName string
	Weight     int
}

type CreateOperatorParams struct {
	Name              string
	IsActive          bool
	MaxActiveContacts int
}

type UpdateOperatorParams struct {
	Name              *string
	IsActive          *bool
	MaxActiveContacts *int
}

func (r *Repository) Create(ctx context.Context, params CreateOperatorParams) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `
		INSERT INTO operators (name, is_active, max_active_contacts)
		VALUES ($1, $2, $3)
		RETURNING id, name, is_active, max_active_contacts, created_at, updated_at
	`, params.Name, params.IsActive, params.MaxActiveContacts).Scan(
		&op.ID, &op.Name, &op.IsActive, &op.MaxActiveContacts, &op.CreatedAt, &op.UpdatedAt,
	)
	if err != nil {
		return Operator{}, err
	}
	return op, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `
		SELECT o.id, o.name, o.is_active, o.max_active_contacts, `+activeLoadExpr+`, o.created_at, o.updated_at
		FROM operators o
		WHERE o.id = $1
	`, id).Scan(
		&op.ID, &op.Name, &op.IsActive, &op.MaxActiveContacts, &op.CurrentLoad, &op.CreatedAt, &op.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Operator{}, ErrNotFound
	}
	if err != nil {
		return Operator{}, err
	}
	return op, nil
}

func (r *Repository) List(ctx context.Context) ([]Operator, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.name, o.is_active, o.max_active_contacts, `+activeLoadExpr+`, o.created_at, o.updated_at
		FROM operators o
		ORDER BY o.created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	operators := make([]Operator, 0)
	for rows.Next() {
		var op Operator
		if err := rows.Scan(&op.ID, &op.Name, &op.IsActive, &op.MaxActiveContacts, &op.CurrentLoad, &op.CreatedAt, &op.UpdatedAt); err != nil {
			return nil, err
		}
		operators = append(operators, op)
	}
	return operators, rows.Err()
}

// ListSourceAssignments returns the sources this operator is assigned to,
// with their weights.
func (r *Repository) ListSourceAssignments(ctx context.Context, operatorID uuid.UUID) ([]SourceAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.code, s.name, a.weight
		FROM operator_source_assignments a
		JOIN sources s ON s.id = a.source_id
		WHERE a.operator_id = $1
		ORDER BY s.code ASC
	`, operatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]SourceAssignment, 0)
	for rows.Next() {
		var sa SourceAssignment
		if err := rows.Scan(&sa.SourceID, &sa.SourceCode, &sa.SourceName, &sa.Weight); err != nil {
			return nil, err
		}
		assignments = append(assignments, sa)
	}
	return assignments, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateOperatorParams) (Operator, error) {
	var op Operator
	err := r.pool.QueryRow(ctx, `
		UPDATE operators o SET
			name = COALESCE($2, name),
			is_active = COALESCE($3, is_active),
			max_active_contacts = COALESCE($4, max_active_contacts),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, is_active, max_active_contacts, `+activeLoadExpr+`, created_at, updated_at
	`, id, params.Name, params.IsActive, params.MaxActiveContacts).Scan(
		&op.ID, &op.Name, &op.IsActive, &op.MaxActiveContacts, &op.CurrentLoad, &op.CreatedAt, &op.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Operator{}, ErrNotFound
	}
	if err != nil {
		return Operator{}, err
	}
	return op, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM operators WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
