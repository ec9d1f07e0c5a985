package http

import (
	"context"
	"time"

	"github.com/cartify-api/internal/application/notification"
	"github.com/cartify-api/internal/domain"
	jwtinfra "github.com/cartify-api/internal/infrastructure/jwt"
	"github.com/cartify-api/internal/infrastructure/password"
	"github.com/cartify-api/internal/observability"
	"github.com/rs/zerolog"
)

// AccountRepository is the minimal interface the router requires from the account store.
type AccountRepository interface {
	Put(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, accountID, hash string) error
}

// EphemeralStore is the minimal interface the router requires from the TTL key/value store.
type EphemeralStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	Accounts    AccountRepository
	Store       EphemeralStore
	JWTProvider *jwtinfra.Provider
	Passwords   *password.Hasher
	Notifier    notification.Notifier
	Metrics     *observability.Metrics
	Logger      zerolog.Logger
}
