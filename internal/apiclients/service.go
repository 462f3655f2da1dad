package apiclients

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Service issues and verifies API credentials.
type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a new Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, validate: validator.New(), logger: logger, now: time.Now}
}

// CreateInput describes a new API client request.
type CreateInput struct {
	Name   string   `json:"name" validate:"required,min=3"`
	Scopes []string `json:"scopes" validate:"required,min=1,dive,required"`
}

// Create registers a client and returns the plaintext secret exactly once.
func (s *Service) Create(ctx context.Context, input CreateInput) (APIClient, string, error) {
	if err := s.validate.Struct(input); err != nil {
		return APIClient{}, "", fmt.Errorf("apiclients: invalid client: %w", err)
	}
	if err := validateScopes(input.Scopes); err != nil {
		return APIClient{}, "", err
	}
	secret := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return APIClient{}, "", err
	}
	client := APIClient{
		Name:       strings.TrimSpace(input.Name),
		KeyID:      "lk_" + strings.ReplaceAll(uuid.NewString(), "-", ""),
		SecretHash: string(hash),
		Scopes:     input.Scopes,
		Active:     true,
		CreatedAt:  s.now(),
	}
	created, err := s.repo.Insert(ctx, client)
	if err != nil {
		return APIClient{}, "", err
	}
	return created, secret, nil
}

// Verify checks the key id and secret, returning the granted scopes. A stale
// last-used timestamp is refreshed best effort.
func (s *Service) Verify(ctx context.Context, keyID, secret string) (APIClient, error) {
	client, err := s.repo.FindByKeyID(ctx, keyID)
	if err != nil {
		return APIClient{}, ErrInvalidCredentials
	}
	if !client.Active {
		return APIClient{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(client.SecretHash), []byte(secret)); err != nil {
		return APIClient{}, ErrInvalidCredentials
	}
	if err := s.repo.TouchLastUsed(ctx, client.ID, s.now()); err != nil {
		s.logger.Warn("touch api client", slog.Any("error", err))
	}
	return client, nil
}

// List returns all registered clients.
func (s *Service) List(ctx context.Context) ([]APIClient, error) {
	return s.repo.List(ctx)
}

// Deactivate revokes a client.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}

// validateScopes rejects scopes outside the known permission catalog.
func validateScopes(scopes []string) error {
	known := map[string]struct{}{}
	for _, p := range shared.FinanceScopes() {
		known[p] = struct{}{}
	}
	for _, p := range shared.AdminScopes() {
		known[p] = struct{}{}
	}
	for _, scope := range scopes {
		if _, ok := known[scope]; !ok {
			return fmt.Errorf("%w: unknown scope %q", httpx.ErrValidation, scope)
		}
	}
	return nil
}
