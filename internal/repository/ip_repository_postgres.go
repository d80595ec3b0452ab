package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ip-manager/internal/domain"
)

const ipColumns = `id, ip, subnet, status, category, description, hostname, mac_address, assigned_to, notes, created_at, updated_at`

type ipRepository struct {
	pool  *pgxpool.Pool
	ids   *IDGenerator
	clock Clock
}

// NewIPRepository returns a Postgres-backed implementation.
func NewIPRepository(pool *pgxpool.Pool, ids *IDGenerator, clock Clock) IPRepository {
	if clock == nil {
		clock = SystemClock
	}
	if ids == nil {
		ids = NewIDGenerator(clock)
	}
	return &ipRepository{pool: pool, ids: ids, clock: clock}
}

func (r *ipRepository) List(ctx context.Context) ([]domain.IPEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ipColumns+` FROM ip_entries ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.IPEntry{}
	for rows.Next() {
		entry, err := scanIPEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func (r *ipRepository) Append(ctx context.Context, entry *domain.IPEntry) error {
	const query = `
        INSERT INTO ip_entries (` + ipColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	now := r.clock()
	entry.ID = r.ids.Next()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := r.pool.Exec(ctx, query, ipArgs(entry)...)
	return err
}

func (r *ipRepository) ReplaceByID(ctx context.Context, id string, mutate func(*domain.IPEntry) error) (*domain.IPEntry, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	current, err := scanIPEntry(tx.QueryRow(ctx, `SELECT `+ipColumns+` FROM ip_entries WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	next := *current
	if err := mutate(&next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = nextUpdatedAt(r.clock(), current.UpdatedAt)

	const update = `
        UPDATE ip_entries SET ip=$2, subnet=$3, status=$4, category=$5, description=$6,
            hostname=$7, mac_address=$8, assigned_to=$9, notes=$10, created_at=$11, updated_at=$12
        WHERE id=$1`
	if _, err := tx.Exec(ctx, update, ipArgs(&next)...); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &next, nil
}

func (r *ipRepository) RemoveByID(ctx context.Context, id string) (*domain.IPEntry, error) {
	removed, err := scanIPEntry(r.pool.QueryRow(ctx, `DELETE FROM ip_entries WHERE id=$1 RETURNING `+ipColumns, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return removed, nil
}

func ipArgs(e *domain.IPEntry) []any {
	return []any{
		e.ID,
		e.IP,
		e.Subnet,
		string(e.Status),
		e.Category,
		e.Description,
		e.Hostname,
		e.MACAddress,
		e.AssignedTo,
		e.Notes,
		e.CreatedAt,
		e.UpdatedAt,
	}
}

func scanIPEntry(row pgx.Row) (*domain.IPEntry, error) {
	var e domain.IPEntry
	var status string
	if err := row.Scan(
		&e.ID,
		&e.IP,
		&e.Subnet,
		&status,
		&e.Category,
		&e.Description,
		&e.Hostname,
		&e.MACAddress,
		&e.AssignedTo,
		&e.Notes,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Status = domain.IPStatus(status)
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return &e, nil
}
