package apiclients

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Repository defines API client persistence.
type Repository interface {
	Insert(ctx context.Context, client APIClient) (APIClient, error)
	FindByKeyID(ctx context.Context, keyID string) (APIClient, error)
	List(ctx context.Context) ([]APIClient, error)
	Deactivate(ctx context.Context, id int64) error
	TouchLastUsed(ctx context.Context, id int64, at time.Time) error
}

var _ Repository = (*pgRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

const clientColumns = `id, name, key_id, secret_hash, scopes, active, created_at, last_used_at`

func (r *pgRepository) Insert(ctx context.Context, client APIClient) (APIClient, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO api_clients (name, key_id, secret_hash, scopes, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`, client.Name, client.KeyID, client.SecretHash, client.Scopes, client.Active, client.CreatedAt).Scan(&client.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return APIClient{}, httpx.ErrDuplicate
		}
		return APIClient{}, err
	}
	return client, nil
}

func (r *pgRepository) FindByKeyID(ctx context.Context, keyID string) (APIClient, error) {
	var c APIClient
	err := r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM api_clients WHERE key_id = $1`, keyID).
		Scan(&c.ID, &c.Name, &c.KeyID, &c.SecretHash, &c.Scopes, &c.Active, &c.CreatedAt, &c.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return APIClient{}, ErrClientNotFound
		}
		return APIClient{}, err
	}
	return c, nil
}

func (r *pgRepository) List(ctx context.Context) ([]APIClient, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+clientColumns+` FROM api_clients ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var clients []APIClient
	for rows.Next() {
		var c APIClient
		if err := rows.Scan(&c.ID, &c.Name, &c.KeyID, &c.SecretHash, &c.Scopes, &c.Active, &c.CreatedAt, &c.LastUsedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *pgRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `UPDATE api_clients SET active = false WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClientNotFound
	}
	return nil
}

func (r *pgRepository) TouchLastUsed(ctx context.Context, id int64, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_clients SET last_used_at = $2 WHERE id = $1`, id, at)
	return err
}
