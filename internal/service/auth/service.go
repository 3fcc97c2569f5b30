package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/ybthummar/MathFlowAI/internal/domain"
	"github.com/ybthummar/MathFlowAI/internal/repository"
	"github.com/ybthummar/MathFlowAI/pkg/config"
	"github.com/ybthummar/MathFlowAI/pkg/crypto"
	jwtpkg "github.com/ybthummar/MathFlowAI/pkg/jwt"
)

// ErrInvalidCredentials hides whether the email or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Service handles admin authentication workflows.
type Service struct {
	admins repository.AdminRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(admins repository.AdminRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{admins: admins, logger: logger, cfg: cfg}
}

// Session is an issued admin session token.
type Session struct {
	Token     string        `json:"token"`
	ExpiresIn time.Duration `json:"expiresIn"`
}

// Login authenticates an admin and returns a session token.
func (s Service) Login(ctx context.Context, email, password string) (*domain.Admin, Session, error) {
	admin, err := s.admins.GetAdminByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, Session{}, ErrInvalidCredentials
		}
		return nil, Session{}, err
	}
	if err := crypto.ComparePassword(admin.PasswordHash, password); err != nil {
		return nil, Session{}, ErrInvalidCredentials
	}
	token, err := jwtpkg.GenerateToken(admin.ID, admin.Email, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return nil, Session{}, err
	}
	s.logger.Info("admin logged in", "admin_id", admin.ID)
	return admin, Session{Token: token, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}

// Authorize validates a bearer token and returns the associated admin.
func (s Service) Authorize(ctx context.Context, token string) (*domain.Admin, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	admin, err := s.admins.GetAdminByID(ctx, claims.AdminID)
	if err != nil {
		return nil, nil, err
	}
	return admin, claims, nil
}

// EnsureBootstrapAdmin creates the configured admin account when it does not
// exist yet, so a fresh deployment has a dashboard login.
func (s Service) EnsureBootstrapAdmin(ctx context.Context) error {
	email := strings.TrimSpace(s.cfg.AdminEmail)
	if email == "" || s.cfg.AdminPassword == "" {
		s.logger.Warn("bootstrap admin not configured, skipping")
		return nil
	}
	if _, err := s.admins.GetAdminByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hash, err := crypto.HashPassword(s.cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &domain.Admin{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         s.cfg.AdminName,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.admins.CreateAdmin(ctx, admin); err != nil {
		// Concurrent boot of another instance may have created it first.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
	s.logger.Info("bootstrap admin created", "admin_id", admin.ID, "email", admin.Email)
	return nil
}
