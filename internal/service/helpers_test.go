package service

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/persistence"
	"github.com/spec-kit/ip-manager/internal/repository"
)

var fixedNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func strPtr(s string) *string { return &s }

func newIPRepo(t *testing.T) repository.IPRepository {
	t.Helper()
	col := persistence.NewJSONCollection[domain.IPEntry](t.TempDir(), "ips", zaptest.NewLogger(t))
	return repository.NewJSONIPRepository(col, repository.NewIDGenerator(fixedClock), fixedClock)
}

func newUserRepo(t *testing.T) repository.UserRepository {
	t.Helper()
	col := persistence.NewJSONCollection[domain.User](t.TempDir(), "users", zaptest.NewLogger(t))
	return repository.NewJSONUserRepository(col, fixedClock)
}
