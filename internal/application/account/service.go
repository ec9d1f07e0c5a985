package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cartify-api/internal/domain"
	"github.com/cartify-api/internal/observability"
	"github.com/cartify-api/internal/pkg/id"
	"github.com/cartify-api/internal/pkg/logging"
	"github.com/rs/zerolog"
)

// Uniqueness violations. Both match domain.ErrConflict.
var (
	ErrEmailTaken = fmt.Errorf("email already registered: %w", domain.ErrConflict)
	ErrPhoneTaken = fmt.Errorf("phone number already registered: %w", domain.ErrConflict)
)

type Store interface {
	Put(ctx context.Context, a *domain.Account) error
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, accountID, hash string) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Notifier interface {
	SendWelcome(ctx context.Context, a *domain.Account)
}

// ProvisionRequest describes an account created out of band, e.g. by the
// seeder. Unlike Register it may set the role and verified flag.
type ProvisionRequest struct {
	Email     string
	Password  string
	Role      string
	FirstName string
	LastName  string
	Verified  bool
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error)
	// Provision creates the account or, if the email exists, resets its
	// password. It reports whether an account was created.
	Provision(ctx context.Context, req ProvisionRequest) (*domain.Account, bool, error)
}

type ServiceDeps struct {
	Store     Store
	Passwords PasswordHasher
	Notifier  Notifier
	Now       func() time.Time
	Metrics   observability.Recorder
	Logger    zerolog.Logger
}

type service struct {
	store     Store
	passwords PasswordHasher
	notifier  Notifier
	now       func() time.Time
	metrics   observability.Recorder
	logger    zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:     deps.Store,
		passwords: deps.Passwords,
		notifier:  deps.Notifier,
		now:       deps.Now,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With().Str("service", "account").Logger(),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.metrics == nil {
		s.metrics = observability.Nop{}
	}
	return s
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (a *domain.Account, err error) {
	defer func() { s.metrics.Record("register", observability.Outcome(err, domain.IsRejection)) }()

	email := domain.NormalizeEmail(req.Email)
	if err := s.ensureFree(ctx, email, req.Phone); err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, s.internal("PASSWORD_HASH_FAILED", "register", err)
	}

	now := s.now().UTC()
	a = &domain.Account{
		AccountID:    id.New(),
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// Put is conditional on the id only; a concurrent registration of the
	// same email can still slip between ensureFree and Put.
	if err := s.store.Put(ctx, a); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, s.internal("ACCOUNT_PUT_FAILED", "register", err)
	}
	s.logger.Info().Str("account_id", a.AccountID).Msg("account registered")

	s.notifier.SendWelcome(ctx, a)
	return a, nil
}

func (s *service) Provision(ctx context.Context, req ProvisionRequest) (*domain.Account, bool, error) {
	email := domain.NormalizeEmail(req.Email)
	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, false, s.internal("PASSWORD_HASH_FAILED", "provision", err)
	}

	existing, err := s.store.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.store.UpdatePasswordHash(ctx, existing.AccountID, hash); err != nil {
			return nil, false, s.internal("ACCOUNT_UPDATE_FAILED", "provision", err)
		}
		existing.PasswordHash = hash
		s.logger.Info().Str("account_id", existing.AccountID).Msg("provisioned account password reset")
		return existing, false, nil
	case !errors.Is(err, domain.ErrNotFound):
		return nil, false, s.internal("ACCOUNT_LOOKUP_FAILED", "provision", err)
	}

	role := req.Role
	if role == "" {
		role = domain.RoleCustomer
	}
	now := s.now().UTC()
	a := &domain.Account{
		AccountID:    id.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Verified:     req.Verified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Put(ctx, a); err != nil {
		return nil, false, s.internal("ACCOUNT_PUT_FAILED", "provision", err)
	}
	s.logger.Info().Str("account_id", a.AccountID).Str("role", role).Msg("account provisioned")
	return a, true, nil
}

func (s *service) ensureFree(ctx context.Context, email string, phone *string) error {
	_, err := s.store.GetByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return s.internal("ACCOUNT_LOOKUP_FAILED", "register", err)
	}
	if phone == nil || *phone == "" {
		return nil
	}
	_, err = s.store.GetByPhone(ctx, *phone)
	if err == nil {
		return ErrPhoneTaken
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return s.internal("ACCOUNT_LOOKUP_FAILED", "register", err)
	}
	return nil
}

func (s *service) internal(code, op string, err error) error {
	wrapped := domain.Internal(code, op, err)
	logging.Error(s.logger, fmt.Sprintf("%s failed", op), wrapped)
	return wrapped
}
