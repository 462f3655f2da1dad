package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionManager reads cookie based sessions backed by Redis. Sessions are
// written by the external auth service; this side only resolves them to a
// user identity, so there is no create/login path here.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
}

// Session holds per-request session data.
type Session struct {
	ID     string
	userID string
	values map[string]string
}

type sessionPayload struct {
	UserID string            `json:"user_id"`
	Values map[string]string `json:"values"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration) *SessionManager {
	return &SessionManager{client: client, cookieName: cookieName, ttl: ttl}
}

// Load resolves the request cookie into a session. A missing cookie or an
// expired session yields (nil, nil): the request proceeds unauthenticated and
// RBAC decides what it may reach.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookieName)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return nil, nil
		}
		return nil, err
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(cookie.Value)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	return &Session{ID: cookie.Value, userID: stored.UserID, values: stored.Values}, nil
}

// Touch extends the session lifetime after successful use.
func (sm *SessionManager) Touch(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return nil
	}
	return sm.client.Expire(ctx, sm.redisKey(sess.ID), sm.ttl).Err()
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Get retrieves a stored value.
func (s *Session) Get(key string) string {
	if s == nil || s.values == nil {
		return ""
	}
	return s.values[key]
}

// User returns the raw user identifier.
func (s *Session) User() string {
	if s == nil {
		return ""
	}
	return s.userID
}

// UserID returns the numeric user id, or zero when unparsable.
func (s *Session) UserID() int64 {
	if s == nil {
		return 0
	}
	id, err := strconv.ParseInt(s.userID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}
