package apiclients

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

type memClientRepo struct {
	clients map[string]*APIClient
	nextID  int64
}

func newMemClientRepo() *memClientRepo {
	return &memClientRepo{clients: map[string]*APIClient{}}
}

func (m *memClientRepo) Insert(_ context.Context, client APIClient) (APIClient, error) {
	m.nextID++
	client.ID = m.nextID
	copied := client
	m.clients[client.KeyID] = &copied
	return client, nil
}

func (m *memClientRepo) FindByKeyID(_ context.Context, keyID string) (APIClient, error) {
	c, ok := m.clients[keyID]
	if !ok {
		return APIClient{}, ErrClientNotFound
	}
	return *c, nil
}

func (m *memClientRepo) List(context.Context) ([]APIClient, error) {
	var out []APIClient
	for _, c := range m.clients {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memClientRepo) Deactivate(_ context.Context, id int64) error {
	for _, c := range m.clients {
		if c.ID == id {
			c.Active = false
			return nil
		}
	}
	return ErrClientNotFound
}

func (m *memClientRepo) TouchLastUsed(_ context.Context, id int64, at time.Time) error {
	for _, c := range m.clients {
		if c.ID == id {
			c.LastUsedAt = &at
		}
	}
	return nil
}

func TestCreateAndVerify(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewService(repo, slog.Default())

	client, secret, err := svc.Create(context.Background(), CreateInput{
		Name:   "reporting bot",
		Scopes: []string{shared.PermLedgerView, shared.PermBudgetView},
	})
	require.NoError(t, err)
	require.NotEmpty(t, secret)
	require.NotEqual(t, secret, client.SecretHash)
	require.True(t, client.Active)

	verified, err := svc.Verify(context.Background(), client.KeyID, secret)
	require.NoError(t, err)
	require.Equal(t, client.Scopes, verified.Scopes)
	require.NotNil(t, repo.clients[client.KeyID].LastUsedAt)

	_, err = svc.Verify(context.Background(), client.KeyID, "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Verify(context.Background(), "lk_missing", secret)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateRejectsUnknownScope(t *testing.T) {
	svc := NewService(newMemClientRepo(), slog.Default())
	_, _, err := svc.Create(context.Background(), CreateInput{
		Name:   "shady bot",
		Scopes: []string{"superuser.everything"},
	})
	require.Error(t, err)
}

func TestDeactivatedClientFailsVerify(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewService(repo, slog.Default())

	client, secret, err := svc.Create(context.Background(), CreateInput{
		Name:   "old bot",
		Scopes: []string{shared.PermLedgerView},
	})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), client.ID))

	_, err = svc.Verify(context.Background(), client.KeyID, secret)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateMiddleware(t *testing.T) {
	repo := newMemClientRepo()
	svc := NewService(repo, slog.Default())
	client, secret, err := svc.Create(context.Background(), CreateInput{
		Name:   "reporting bot",
		Scopes: []string{shared.PermLedgerView},
	})
	require.NoError(t, err)

	var gotScopes []string
	handler := svc.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotScopes = shared.APIScopesFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Valid credentials inject scopes.
	req := httptest.NewRequest(http.MethodGet, "/ledger/trial-balance", nil)
	req.Header.Set("X-API-Key", client.KeyID+":"+secret)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{shared.PermLedgerView}, gotScopes)

	// Bad secret is rejected.
	req = httptest.NewRequest(http.MethodGet, "/ledger/trial-balance", nil)
	req.Header.Set("X-API-Key", client.KeyID+":nope")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// No header passes through without scopes.
	gotScopes = nil
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, gotScopes)
}
