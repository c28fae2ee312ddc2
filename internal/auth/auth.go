// Package auth resolves opaque bearer tokens into an actor identity. The
// core trusts this resolution and performs no credential logic itself;
// sessions and user profiles are written by the account service.
package auth

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/example/foodshare/internal/apperr"
	"github.com/example/foodshare/internal/models"
)

// Identity is what the platform knows about the caller. DisplayName is the
// organization name with the personal name as fallback, precomputed by the
// account service.
type Identity struct {
	UserID      string
	Role        models.Role
	DisplayName string
}

// Resolver turns a bearer token into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (Identity, error)
}

// Directory resolves a user id into an Identity, read-only. Used where an
// operation references another user, e.g. the restaurant on a new order.
type Directory interface {
	Lookup(ctx context.Context, userID string) (Identity, error)
}

// RedisResolver reads session and user hashes maintained by the account
// service.
type RedisResolver struct {
	client *redis.Client
}

func NewRedisResolver(addr, password string) *RedisResolver {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisResolver{client: c}
}

func (r *RedisResolver) Resolve(ctx context.Context, token string) (Identity, error) {
	m, err := r.client.HGetAll(ctx, "session:"+token).Result()
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.Internal, "session lookup failed", err)
	}
	return identityFromHash(m, apperr.New(apperr.Unauthorized, "invalid token"))
}

func (r *RedisResolver) Lookup(ctx context.Context, userID string) (Identity, error) {
	m, err := r.client.HGetAll(ctx, "user:"+userID).Result()
	if err != nil {
		return Identity{}, apperr.Wrap(apperr.Internal, "user lookup failed", err)
	}
	return identityFromHash(m, apperr.New(apperr.NotFound, "user not found"))
}

func identityFromHash(m map[string]string, missing error) (Identity, error) {
	if len(m) == 0 {
		return Identity{}, missing
	}
	id := Identity{
		UserID:      m["user_id"],
		Role:        models.Role(m["role"]),
		DisplayName: m["display_name"],
	}
	if id.UserID == "" || !id.Role.Valid() {
		return Identity{}, apperr.New(apperr.Internal, "malformed identity record")
	}
	return id, nil
}

// MemoryResolver backs local runs and tests; it doubles as a Directory.
type MemoryResolver struct {
	mu       sync.RWMutex
	sessions map[string]Identity
	users    map[string]Identity
}

func NewMemoryResolver() *MemoryResolver {
	return &MemoryResolver{
		sessions: make(map[string]Identity),
		users:    make(map[string]Identity),
	}
}

// Put registers a token for id and makes id resolvable by user id.
func (m *MemoryResolver) Put(token string, id Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[token] = id
	m.users[id.UserID] = id
}

func (m *MemoryResolver) Resolve(ctx context.Context, token string) (Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.sessions[token]
	if !ok {
		return Identity{}, apperr.New(apperr.Unauthorized, "invalid token")
	}
	return id, nil
}

func (m *MemoryResolver) Lookup(ctx context.Context, userID string) (Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.users[userID]
	if !ok {
		return Identity{}, apperr.New(apperr.NotFound, "user not found")
	}
	return id, nil
}
