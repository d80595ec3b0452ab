package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ip-manager/internal/auth"
	"github.com/spec-kit/ip-manager/internal/config"
	"github.com/spec-kit/ip-manager/internal/domain"
	"github.com/spec-kit/ip-manager/internal/repository"
	apperrors "github.com/spec-kit/ip-manager/pkg/util"
)

// DefaultAdminID is the id given to the account seeded into an empty user store.
const DefaultAdminID = "1"

// AuthService coordinates registration, login and the bootstrap account.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	adminEmail string
	adminPass  string
	logger     *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tokens == nil {
		tokens = auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL(), nil)
	}
	return &AuthService{
		users:      users,
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
		adminEmail: cfg.AdminEmail,
		adminPass:  cfg.AdminPassword,
		logger:     logger.Named("auth"),
	}
}

// Login authenticates a user by email and password and issues a session token.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	if email == "" || password == "" {
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, "", time.Time{}, err
		}
		// keep the unknown-email path as expensive as a real comparison
		_ = auth.ComparePassword(s.dummy(), password)
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewInvalidCredentials()
	}

	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return user, token, exp, nil
}

// RegisterInput captures a new account request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Register creates a new account on behalf of an authenticated requester.
func (s *AuthService) Register(ctx context.Context, requester domain.Principal, in RegisterInput) (*domain.User, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return nil, apperrors.NewValidationError("name, email and password are required")
	}

	role := in.Role
	switch role {
	case "":
		role = domain.RoleUser
	case domain.RoleUser:
	case domain.RoleAdmin:
		if !requester.IsAdmin() {
			return nil, apperrors.NewDomainError("FORBIDDEN", "only admins can grant the admin role", http.StatusForbidden)
		}
	default:
		return nil, apperrors.NewValidationError("unknown role")
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperrors.NewDuplicateUser()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Append(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewDuplicateUser()
		}
		return nil, err
	}
	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("registered_by", requester.UserID))
	return user, nil
}

// EnsureDefaultAdmin seeds the bootstrap administrator into an empty user store.
// It reports whether an account was created.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context) (bool, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := auth.HashPassword(s.adminPass, s.bcryptCost)
	if err != nil {
		return false, err
	}
	admin := &domain.User{
		ID:           DefaultAdminID,
		Name:         "Administrator",
		Email:        s.adminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Append(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return false, nil
		}
		return false, err
	}
	s.logger.Warn("seeded default admin account; change its password",
		zap.String("email", admin.Email))
	return true, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("ip-manager-dummy-password", s.bcryptCost)
		if err != nil {
			s.logger.Error("failed to build dummy hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
