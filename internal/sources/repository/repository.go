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
	ErrNotFound      = errors.New("source not found")
	ErrDuplicateCode = errors.New("source code already exists")
)

const uniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Source struct {
	ID          uuid.UUID
	Name        string
	Code        string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OperatorAssignment describes one operator assigned to a source, with its
// live load so callers can present eligibility at a glance.
type OperatorAssignment struct {
	OperatorID        uuid.UUID
	OperatorName      string
	Weight            int
	IsActive          bool
	CurrentLoad       int
	MaxActiveContacts int
}

type CreateSourceParams struct {
	Name        string
	Code        string
	Description *string
	IsActive    bool
}

type UpdateSourceParams struct {
	Name        *string
	Description *string
	IsActive    *bool
}

func (r *Repository) Create(ctx context.Context, params CreateSourceParams) (Source, error) {
	var src Source
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sources (name, code, description, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, code, description, is_active, created_at, updated_at
	`, params.Name, params.Code, params.Description, params.IsActive).Scan(
		&src.ID, &src.Name, &src.Code, &src.Description, &src.IsActive, &src.CreatedAt, &src.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Source{}, ErrDuplicateCode
	}
	if err != nil {
		return Source{}, err
	}
	return src, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Source, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetByCode(ctx context.Context, code string) (Source, error) {
	return r.get(ctx, `WHERE code = $1`, code)
}

func (r *Repository) get(ctx context.Context, where string, arg interface{}) (Source, error) {
	var src Source
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, code, description, is_active, created_at, updated_at
		FROM sources `+where,
		arg,
	).Scan(&src.ID, &src.Name, &src.Code, &src.Description, &src.IsActive, &src.CreatedAt, &src.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Source{}, ErrNotFound
	}
	if err != nil {
		return Source{}, err
	}
	return src, nil
}

func (r *Repository) List(ctx context.Context) ([]Source, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, code, description, is_active, created_at, updated_at
		FROM sources
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := make([]Source, 0)
	for rows.Next() {
		var src Source
		if err := rows.Scan(&src.ID, &src.Name, &src.Code, &src.Description, &src.IsActive, &src.CreatedAt, &src.UpdatedAt); err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// ListOperatorAssignments returns the operators assigned to a source with
// their weights and live load.
func (r *Repository) ListOperatorAssignments(ctx context.Context, sourceID uuid.UUID) ([]OperatorAssignment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.name, a.weight, o.is_active,
			(SELECT count(*) FROM contacts c WHERE c.operator_id = o.id AND c.status IN ('new', 'in_progress')),
			o.max_active_contacts
		FROM operator_source_assignments a
		JOIN operators o ON o.id = a.operator_id
		WHERE a.source_id = $1
		ORDER BY o.name ASC
	`, sourceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]OperatorAssignment, 0)
	for rows.Next() {
		var oa OperatorAssignment
		if err := rows.Scan(&oa.OperatorID, &oa.OperatorName, &oa.Weight, &oa.IsActive, &oa.CurrentLoad, &oa.MaxActiveContacts); err != nil {
			return nil, err
		}
		assignments = append(assignments, oa)
	}
	return assignments, rows.Err()
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateSourceParams) (Source, error) {
	var src Source
	err := r.pool.QueryRow(ctx, `
		UPDATE sources SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			is_active = COALESCE($4, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING id, name, code, description, is_active, created_at, updated_at
	`, id, params.Name, params.Description, params.IsActive).Scan(
		&src.ID, &src.Name, &src.Code, &src.Description, &src.IsActive, &src.CreatedAt, &src.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Source{}, ErrNotFound
	}
	if err != nil {
		return Source{}, err
	}
	return src, nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sources WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
