package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSourceNotFound = errors.New("source not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SystemSnapshot is a consistent point-in-time view of the whole engine.
type SystemSnapshot struct {
	TotalOperators   int
	ActiveOperators  int
	TotalSources     int
	ActiveSources    int
	TotalLeads       int
	TotalContacts    int
	ActiveContacts   int
	ContactsByStatus map[string]int
	UnassignedActive int
	Operators        []OperatorLoad
	TakenAt          time.Time
}

// OperatorLoad is one operator's live load against its capacity.
type OperatorLoad struct {
	OperatorID        uuid.UUID
	Name              string
	IsActive          bool
	CurrentLoad       int
	MaxActiveContacts int
}

// SourceSnapshot describes one source's routing table and traffic.
type SourceSnapshot struct {
	SourceID         uuid.UUID
	SourceName       string
	SourceCode       string
	IsActive         bool
	TotalContacts    int
	UnassignedActive int
	Operators        []SourceOperatorShare
	TakenAt          time.Time
}

// SourceOperatorShare is one assigned operator's weight and traffic for a
// source.
type SourceOperatorShare struct {
	OperatorID        uuid.UUID
	OperatorName      string
	IsActive          bool
	Weight            int
	CurrentLoad       int
	MaxActiveContacts int
	ContactsReceived  int
}

// SystemSnapshot reads all system-wide counters inside one repeatable-read
// transaction so the totals agree with each other even under concurrent
// ingest.
func (r *Repository) SystemSnapshot(ctx context.Context) (SystemSnapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return SystemSnapshot{}, err
	}
	defer tx.Rollback(ctx)

	snap := SystemSnapshot{
		ContactsByStatus: map[string]int{},
		Operators:        []OperatorLoad{},
		TakenAt:          time.Now().UTC(),
	}

	err = tx.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE is_active) FROM operators
	`).Scan(&snap.TotalOperators, &snap.ActiveOperators)
	if err != nil {
		return SystemSnapshot{}, err
	}

	err = tx.QueryRow(ctx, `
		SELECT count(*), count(*) FILTER (WHERE is_active) FROM sources
	`).Scan(&snap.TotalSources, &snap.ActiveSources)
	if err != nil {
		return SystemSnapshot{}, err
	}

	if err := tx.QueryRow(ctx, `SELECT count(*) FROM leads`).Scan(&snap.TotalLeads); err != nil {
		return SystemSnapshot{}, err
	}

	rows, err := tx.Query(ctx, `SELECT status, count(*) FROM contacts GROUP BY status`)
	if err != nil {
		return SystemSnapshot{}, err
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			rows.Close()
			return SystemSnapshot{}, err
		}
		snap.ContactsByStatus[status] = count
		snap.TotalContacts += count
		if status != "closed" {
			snap.ActiveContacts += count
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return SystemSnapshot{}, err
	}

	err = tx.QueryRow(ctx, `
		SELECT count(*) FROM contacts
		WHERE operator_id IS NULL AND status IN ('new', 'in_progress')
	`).Scan(&snap.UnassignedActive)
	if err != nil {
		return SystemSnapshot{}, err
	}

	rows, err = tx.Query(ctx, `
		SELECT o.id, o.name, o.is_active, o.max_active_contacts,
		       (SELECT count(*) FROM contacts c
		        WHERE c.operator_id = o.id AND c.status IN ('new', 'in_progress'))
		FROM operators o
		ORDER BY o.name
	`)
	if err != nil {
		return SystemSnapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var op OperatorLoad
		if err := rows.Scan(&op.OperatorID, &op.Name, &op.IsActive, &op.MaxActiveContacts, &op.CurrentLoad); err != nil {
			return SystemSnapshot{}, err
		}
		snap.Operators = append(snap.Operators, op)
	}
	if err := rows.Err(); err != nil {
		return SystemSnapshot{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SystemSnapshot{}, err
	}
	return snap, nil
}

// SourceSnapshot reads one source's assignment table and traffic counters
// under the same isolation as SystemSnapshot.
func (r *Repository) SourceSnapshot(ctx context.Context, sourceID uuid.UUID) (SourceSnapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return SourceSnapshot{}, err
	}
	defer tx.Rollback(ctx)

	snap := SourceSnapshot{
		Operators: []SourceOperatorShare{},
		TakenAt:   time.Now().UTC(),
	}

	err = tx.QueryRow(ctx, `
		SELECT id, name, code, is_active FROM sources WHERE id = $1
	`, sourceID).Scan(&snap.SourceID, &snap.SourceName, &snap.SourceCode, &snap.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return SourceSnapshot{}, ErrSourceNotFound
	}
	if err != nil {
		return SourceSnapshot{}, err
	}

	err = tx.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE operator_id IS NULL AND status IN ('new', 'in_progress'))
		FROM contacts WHERE source_id = $1
	`, sourceID).Scan(&snap.TotalContacts, &snap.UnassignedActive)
	if err != nil {
		return SourceSnapshot{}, err
	}

	rows, err := tx.Query(ctx, `
		SELECT o.id, o.name, o.is_active, a.weight, o.max_active_contacts,
		       (SELECT count(*) FROM contacts c
		        WHERE c.operator_id = o.id AND c.status IN ('new', 'in_progress')),
		       (SELECT count(*) FROM contacts c
		        WHERE c.operator_id = o.id AND c.source_id = a.source_id)
		FROM operator_source_assignments a
		JOIN operators o ON o.id = a.operator_id
		WHERE a.source_id = $1
		ORDER BY o.name
	`, sourceID)
	if err != nil {
		return SourceSnapshot{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var share SourceOperatorShare
		err := rows.Scan(&share.OperatorID, &share.OperatorName, &share.IsActive,
			&share.Weight, &share.MaxActiveContacts, &share.CurrentLoad, &share.ContactsReceived)
		if err != nil {
			return SourceSnapshot{}, err
		}
		snap.Operators = append(snap.Operators, share)
	}
	if err := rows.Err(); err != nil {
		return SourceSnapshot{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SourceSnapshot{}, err
	}
	return snap, nil
}
