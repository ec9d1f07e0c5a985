package session

import (
	"context"
	"time"

	"github.com/cartify-api/internal/domain"
	redisinfra "github.com/cartify-api/internal/infrastructure/redis"
)

// KV is the ephemeral key/value store the token pair lives in.
type KV interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// TokenStore mirrors an account's current token pair.
type TokenStore interface {
	Save(ctx context.Context, accountID string, pair domain.TokenPair) error
	Load(ctx context.Context, accountID string) (domain.Session, error)
	Delete(ctx context.Context, accountID string) error
}

type tokenStore struct {
	kv         KV
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenStore(kv KV, accessTTL, refreshTTL time.Duration) TokenStore {
	return &tokenStore{kv: kv, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *tokenStore) Save(ctx context.Context, accountID string, pair domain.TokenPair) error {
	if err := s.kv.Put(ctx, redisinfra.AccessTokenKey(accountID), pair.AccessToken, s.accessTTL); err != nil {
		return err
	}
	return s.kv.Put(ctx, redisinfra.RefreshTokenKey(accountID), pair.RefreshToken, s.refreshTTL)
}

// Load treats the refresh entry as authoritative. Without it the session is
// absent and a leftover access entry is purged.
func (s *tokenStore) Load(ctx context.Context, accountID string) (domain.Session, error) {
	sess := domain.Session{AccountID: accountID, State: domain.SessionAbsent}

	refresh, found, err := s.kv.Get(ctx, redisinfra.RefreshTokenKey(accountID))
	if err != nil {
		return sess, err
	}
	if !found {
		if err := s.kv.Delete(ctx, redisinfra.AccessTokenKey(accountID)); err != nil {
			return sess, err
		}
		return sess, nil
	}
	sess.Pair.RefreshToken = refresh

	access, found, err := s.kv.Get(ctx, redisinfra.AccessTokenKey(accountID))
	if err != nil {
		return sess, err
	}
	if !found {
		sess.State = domain.SessionPartial
		return sess, nil
	}
	sess.Pair.AccessToken = access
	sess.State = domain.SessionActive
	return sess, nil
}

func (s *tokenStore) Delete(ctx context.Context, accountID string) error {
	return s.kv.Delete(ctx, redisinfra.AccessTokenKey(accountID), redisinfra.RefreshTokenKey(accountID))
}
