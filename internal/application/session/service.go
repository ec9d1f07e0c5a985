package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/cartify-api/internal/domain"
	jwtinfra "github.com/cartify-api/internal/infrastructure/jwt"
	"github.com/cartify-api/internal/observability"
	"github.com/cartify-api/internal/pkg/logging"
	"github.com/rs/zerolog"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AccountStore is the account lookup login needs.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, accountID, hash string) error
}

// TokenIssuer signs and checks access/refresh tokens.
type TokenIssuer interface {
	SignAccess(c jwtinfra.AccessClaims) (string, error)
	SignRefresh(c jwtinfra.RefreshClaims) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	Supported(hash string) bool
	NeedsUpgrade(hash string) bool
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (*domain.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	Lookup(ctx context.Context, accountID string) (domain.Session, error)
}

type ServiceDeps struct {
	Accounts  AccountStore
	Tokens    TokenStore
	Issuer    TokenIssuer
	Passwords PasswordHasher
	Metrics   observability.Recorder
	Logger    zerolog.Logger
}

type service struct {
	accounts  AccountStore
	tokens    TokenStore
	issuer    TokenIssuer
	passwords PasswordHasher
	metrics   observability.Recorder
	logger    zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.Nop{}
	}
	return &service{
		accounts:  deps.Accounts,
		tokens:    deps.Tokens,
		issuer:    deps.Issuer,
		passwords: deps.Passwords,
		metrics:   metrics,
		logger:    deps.Logger.With().Str("service", "session").Logger(),
	}
}

// Login authenticates by email and password. Unknown email, unusable hash
// and wrong password all fail with the same ErrInvalidCredentials. A live
// stored pair is returned as is; otherwise a new pair is minted.
//
// Two concurrent logins for one account may both mint; the last Save wins.
func (s *service) Login(ctx context.Context, req LoginRequest) (pair *domain.TokenPair, err error) {
	defer func() { s.record("login", err) }()

	a, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(req.Email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.reject(domain.ErrInvalidCredentials, "unknown email")
	}
	if err != nil {
		return nil, s.internal("ACCOUNT_LOOKUP_FAILED", "login", err)
	}
	if a.PasswordHash == "" || !s.passwords.Supported(a.PasswordHash) {
		s.logger.Error().Str("account_id", a.AccountID).Msg("account has an unusable password hash")
		return nil, s.reject(domain.ErrInvalidCredentials, "missing or malformed password hash")
	}
	if !s.passwords.Verify(req.Password, a.PasswordHash) {
		return nil, s.reject(domain.ErrInvalidCredentials, "password mismatch")
	}
	s.upgradeHash(ctx, a, req.Password)

	sess, err := s.tokens.Load(ctx, a.AccountID)
	if err != nil {
		return nil, s.internal("TOKEN_STORE_FAILED", "login", err)
	}
	if sess.State == domain.SessionActive && s.stillValid(sess.Pair) {
		s.logger.Info().Str("account_id", a.AccountID).Msg("login reused existing tokens")
		return &sess.Pair, nil
	}

	pair, err = s.mint(a)
	if err != nil {
		return nil, s.internal("TOKEN_SIGN_FAILED", "login", err)
	}
	if err := s.tokens.Save(ctx, a.AccountID, *pair); err != nil {
		return nil, s.internal("TOKEN_STORE_FAILED", "login", err)
	}
	s.logger.Info().Str("account_id", a.AccountID).Str("previous_state", sess.State.String()).Msg("login issued new tokens")
	return pair, nil
}

// Logout deletes the stored pair of the token's subject. Repeating it is
// harmless.
func (s *service) Logout(ctx context.Context, accessToken string) (err error) {
	defer func() { s.record("logout", err) }()

	claims, err := s.issuer.Verify(accessToken)
	if err != nil {
		return s.reject(domain.ErrUnauthorized, "token rejected: "+err.Error())
	}
	if claims.Subject == "" {
		return s.reject(domain.ErrUnauthorized, "token has no subject")
	}
	if err := s.tokens.Delete(ctx, claims.Subject); err != nil {
		return s.internal("TOKEN_STORE_FAILED", "logout", err)
	}
	s.logger.Info().Str("account_id", claims.Subject).Msg("logged out")
	return nil
}

func (s *service) Lookup(ctx context.Context, accountID string) (domain.Session, error) {
	sess, err := s.tokens.Load(ctx, accountID)
	if err != nil {
		return sess, s.internal("TOKEN_STORE_FAILED", "lookup", err)
	}
	return sess, nil
}

func (s *service) mint(a *domain.Account) (*domain.TokenPair, error) {
	access, err := s.issuer.SignAccess(jwtinfra.AccessClaims{Subject: a.AccountID, Email: a.Email, Role: a.Role})
	if err != nil {
		return nil, err
	}
	refresh, err := s.issuer.SignRefresh(jwtinfra.RefreshClaims{Subject: a.AccountID, Email: a.Email, Role: a.Role})
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) stillValid(pair domain.TokenPair) bool {
	if _, err := s.issuer.Verify(pair.AccessToken); err != nil {
		return false
	}
	_, err := s.issuer.Verify(pair.RefreshToken)
	return err == nil
}

// upgradeHash replaces a legacy hash after a successful verify. Failure
// leaves the old hash in place.
func (s *service) upgradeHash(ctx context.Context, a *domain.Account, password string) {
	if !s.passwords.NeedsUpgrade(a.PasswordHash) {
		return
	}
	hash, err := s.passwords.Hash(password)
	if err == nil {
		err = s.accounts.UpdatePasswordHash(ctx, a.AccountID, hash)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("account_id", a.AccountID).Msg("password hash upgrade failed")
		return
	}
	s.logger.Info().Str("account_id", a.AccountID).Msg("password hash upgraded")
}

func (s *service) reject(kind error, reason string) error {
	err := domain.Reject(kind, reason)
	s.logger.Info().Str("reason", reason).Msg(kind.Error())
	return err
}

func (s *service) internal(code, op string, err error) error {
	wrapped := domain.Internal(code, op, err)
	logging.Error(s.logger, fmt.Sprintf("%s failed", op), wrapped)
	return wrapped
}

func (s *service) record(event string, err error) {
	s.metrics.Record(event, observability.Outcome(err, domain.IsRejection))
}
