package repository

import (
	"context"

	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/persistence"
)

// IPRepository persists IP entries.
type IPRepository interface {
	List(ctx context.Context) ([]domain.IPEntry, error)
	// Append assigns the id and both timestamps, then stores the entry.
	Append(ctx context.Context, entry *domain.IPEntry) error
	// ReplaceByID applies mutate to the stored entry and refreshes updatedAt.
	// The id and createdAt cannot be changed by mutate.
	ReplaceByID(ctx context.Context, id string, mutate func(*domain.IPEntry) error) (*domain.IPEntry, error)
	// RemoveByID deletes the entry and returns it as it was stored.
	RemoveByID(ctx context.Context, id string) (*domain.IPEntry, error)
}

type jsonIPRepository struct {
	col   *persistence.JSONCollection[domain.IPEntry]
	ids   *IDGenerator
	clock Clock
}

// NewJSONIPRepository stores IP entries in a JSON document.
func NewJSONIPRepository(col *persistence.JSONCollection[domain.IPEntry], ids *IDGenerator, clock Clock) IPRepository {
	if clock == nil {
		clock = SystemClock
	}
	if ids == nil {
		ids = NewIDGenerator(clock)
	}
	return &jsonIPRepository{col: col, ids: ids, clock: clock}
}

func (r *jsonIPRepository) List(ctx context.Context) ([]domain.IPEntry, error) {
	return r.col.Read(ctx)
}

func (r *jsonIPRepository) Append(ctx context.Context, entry *domain.IPEntry) error {
	return r.col.Mutate(ctx, func(entries []domain.IPEntry) ([]domain.IPEntry, error) {
		now := r.clock()
		entry.ID = r.ids.Next()
		entry.CreatedAt = now
		entry.UpdatedAt = now
		return append(entries, *entry), nil
	})
}

func (r *jsonIPRepository) ReplaceByID(ctx context.Context, id string, mutate func(*domain.IPEntry) error) (*domain.IPEntry, error) {
	var updated domain.IPEntry
	err := r.col.Mutate(ctx, func(entries []domain.IPEntry) ([]domain.IPEntry, error) {
		for i := range entries {
			if entries[i].ID != id {
				continue
			}
			next := entries[i]
			if err := mutate(&next); err != nil {
				return nil, err
			}
			next.ID = entries[i].ID
			next.CreatedAt = entries[i].CreatedAt
			next.UpdatedAt = nextUpdatedAt(r.clock(), entries[i].UpdatedAt)
			entries[i] = next
			updated = next
			return entries, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *jsonIPRepository) RemoveByID(ctx context.Context, id string) (*domain.IPEntry, error) {
	var removed *domain.IPEntry
	err := r.col.Mutate(ctx, func(entries []domain.IPEntry) ([]domain.IPEntry, error) {
		kept := make([]domain.IPEntry, 0, len(entries))
		for i := range entries {
			if entries[i].ID == id {
				e := entries[i]
				removed = &e
				continue
			}
			kept = append(kept, entries[i])
		}
		if removed == nil {
			return nil, ErrNotFound
		}
		return kept, nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
