package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/persistence"
)

type jsonUserRepository struct {
	col   *persistence.JSONCollection[domain.User]
	clock Clock
}

// NewJSONUserRepository stores users in a JSON document.
func NewJSONUserRepository(col *persistence.JSONCollection[domain.User], clock Clock) UserRepository {
	if clock == nil {
		clock = SystemClock
	}
	return &jsonUserRepository{col: col, clock: clock}
}

func (r *jsonUserRepository) Count(ctx context.Context) (int, error) {
	users, err := r.col.Read(ctx)
	if err != nil {
		return 0, err
	}
	return len(users), nil
}

func (r *jsonUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(ctx, func(u domain.User) bool { return u.Email == email })
}

func (r *jsonUserRepository) Append(ctx context.Context, user *domain.User) error {
	return r.col.Mutate(ctx, func(users []domain.User) ([]domain.User, error) {
		for _, existing := range users {
			if existing.Email == user.Email {
				return nil, ErrDuplicateEmail
			}
		}
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		if user.CreatedAt.IsZero() {
			user.CreatedAt = r.clock()
		}
		return append(users, *user), nil
	})
}

func (r *jsonUserRepository) find(ctx context.Context, match func(domain.User) bool) (*domain.User, error) {
	users, err := r.col.Read(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if match(users[i]) {
			user := users[i]
			return &user, nil
		}
	}
	return nil, ErrNotFound
}
