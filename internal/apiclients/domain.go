// Package apiclients manages machine credentials for the JSON API.
package apiclients

import (
	"errors"
	"time"
)

// APIClient is a registered machine consumer. The secret is stored only as a
// bcrypt hash; the plaintext is shown once at creation time.
type APIClient struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	KeyID      string     `json:"key_id"`
	SecretHash string     `json:"-"`
	Scopes     []string   `json:"scopes"`
	Active     bool       `json:"active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

var (
	// ErrClientNotFound occurs when the key id does not resolve.
	ErrClientNotFound = errors.New("apiclients: client not found")
	// ErrInvalidCredentials occurs when the secret does not match or the
	// client is deactivated. Callers must not distinguish the two.
	ErrInvalidCredentials = errors.New("apiclients: invalid credentials")
)
