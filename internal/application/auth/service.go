package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/cartify-api/internal/domain"
	jwtinfra "github.com/cartify-api/internal/infrastructure/jwt"
	"github.com/cartify-api/internal/observability"
	"github.com/cartify-api/internal/pkg/logging"
	"github.com/cartify-api/internal/pkg/otp"
	"github.com/rs/zerolog"
)

// GenericForgotMessage is returned for every forgot-password request so the
// response never reveals whether an email is registered.
const GenericForgotMessage = "If the email exists, an OTP has been sent"

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	OTPVerificationToken string `json:"otp_verification_token" validate:"required"`
	OTP                  string `json:"otp" validate:"required,len=6"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"reset_token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// ForgotPasswordResult carries a verification token only when the email
// belongs to an account.
type ForgotPasswordResult struct {
	Message           string
	VerificationToken string
}

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, accountID, hash string) error
}

// TokenIssuer signs and checks the two single-purpose reset tokens.
type TokenIssuer interface {
	SignOTPVerify(c jwtinfra.OTPVerifyClaims) (string, error)
	VerifyOTPVerify(token string) (*jwtinfra.OTPVerifyClaims, error)
	SignReset(c jwtinfra.ResetClaims) (string, error)
	VerifyReset(token string) (*jwtinfra.ResetClaims, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type Notifier interface {
	SendPasswordResetOTP(ctx context.Context, a *domain.Account, code string)
	SendPasswordResetSuccess(ctx context.Context, a *domain.Account)
}

type Service interface {
	ForgotPassword(ctx context.Context, email string) (*ForgotPasswordResult, error)
	VerifyOTP(ctx context.Context, verificationToken, code string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type ServiceDeps struct {
	Accounts    AccountStore
	OTPs        OTPStore
	Tokens      TokenIssuer
	Passwords   PasswordHasher
	Notifier    Notifier
	GenerateOTP func() (string, error) // defaults to otp.Generate
	Now         func() time.Time
	Metrics     observability.Recorder
	Logger      zerolog.Logger
}

type service struct {
	accounts    AccountStore
	otps        OTPStore
	tokens      TokenIssuer
	passwords   PasswordHasher
	notifier    Notifier
	generateOTP func() (string, error)
	now         func() time.Time
	metrics     observability.Recorder
	logger      zerolog.Logger
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		accounts:    deps.Accounts,
		otps:        deps.OTPs,
		tokens:      deps.Tokens,
		passwords:   deps.Passwords,
		notifier:    deps.Notifier,
		generateOTP: deps.GenerateOTP,
		now:         deps.Now,
		metrics:     deps.Metrics,
		logger:      deps.Logger.With().Str("service", "password_reset").Logger(),
	}
	if s.generateOTP == nil {
		s.generateOTP = otp.Generate
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.metrics == nil {
		s.metrics = observability.Nop{}
	}
	return s
}

// ForgotPassword starts a reset. Unknown emails get the same message and
// leave no trace in the store.
func (s *service) ForgotPassword(ctx context.Context, email string) (res *ForgotPasswordResult, err error) {
	defer func() { s.record("forgot_password", err) }()

	a, err := s.accounts.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info().Msg("forgot password for unknown email")
		return &ForgotPasswordResult{Message: GenericForgotMessage}, nil
	}
	if err != nil {
		return nil, s.internal("ACCOUNT_LOOKUP_FAILED", "forgot_password", err)
	}

	code, err := s.generateOTP()
	if err != nil {
		return nil, s.internal("OTP_GENERATION_FAILED", "forgot_password", err)
	}
	token, err := s.tokens.SignOTPVerify(jwtinfra.OTPVerifyClaims{Subject: a.AccountID, Email: a.Email})
	if err != nil {
		return nil, s.internal("TOKEN_SIGN_FAILED", "forgot_password", err)
	}
	rec := domain.OTPRecord{AccountID: a.AccountID, Code: code, CreatedAt: s.now().UTC()}
	if err := s.otps.Save(ctx, a.Email, rec); err != nil {
		return nil, s.internal("OTP_STORE_FAILED", "forgot_password", err)
	}
	s.logger.Info().Str("account_id", a.AccountID).Msg("password reset otp issued")

	s.notifier.SendPasswordResetOTP(ctx, a, code)
	return &ForgotPasswordResult{Message: GenericForgotMessage, VerificationToken: token}, nil
}

// VerifyOTP exchanges a verification token plus the emailed code for a
// reset token. A matching record is consumed before the reset token exists,
// so a code works at most once.
func (s *service) VerifyOTP(ctx context.Context, verificationToken, code string) (resetToken string, err error) {
	defer func() { s.record("verify_otp", err) }()

	claims, err := s.tokens.VerifyOTPVerify(verificationToken)
	if err != nil {
		return "", s.reject(domain.ErrInvalidOrExpiredToken, "verification token rejected: "+err.Error())
	}
	a, err := s.account(ctx, claims.Subject, "verify_otp")
	if err != nil {
		return "", err
	}

	rec, ok, err := s.otps.Load(ctx, a.Email)
	if err != nil {
		return "", s.internal("OTP_STORE_FAILED", "verify_otp", err)
	}
	if !ok {
		return "", s.reject(domain.ErrInvalidOrExpiredOTP, "no pending otp")
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return "", s.reject(domain.ErrInvalidOTP, "code mismatch")
	}
	if rec.AccountID != a.AccountID {
		return "", s.reject(domain.ErrInvalidOTP, "otp belongs to another account")
	}

	if err := s.otps.Delete(ctx, a.Email); err != nil {
		return "", s.internal("OTP_STORE_FAILED", "verify_otp", err)
	}
	resetToken, err = s.tokens.SignReset(jwtinfra.ResetClaims{Subject: a.AccountID, Email: a.Email})
	if err != nil {
		return "", s.internal("TOKEN_SIGN_FAILED", "verify_otp", err)
	}
	s.logger.Info().Str("account_id", a.AccountID).Msg("otp verified, reset token issued")
	return resetToken, nil
}

// ResetPassword replaces the account's hash. The reset token stays valid
// until it expires; a second use fails only if the password is unchanged.
func (s *service) ResetPassword(ctx context.Context, resetToken, newPassword string) (err error) {
	defer func() { s.record("reset_password", err) }()

	claims, err := s.tokens.VerifyReset(resetToken)
	if err != nil {
		return s.reject(domain.ErrInvalidOrExpiredToken, "reset token rejected: "+err.Error())
	}
	a, err := s.account(ctx, claims.Subject, "reset_password")
	if err != nil {
		return err
	}
	if a.PasswordHash != "" && s.passwords.Verify(newPassword, a.PasswordHash) {
		return s.reject(domain.ErrSamePassword, "new password matches current hash")
	}

	hash, err := s.passwords.Hash(newPassword)
	if err != nil {
		return s.internal("PASSWORD_HASH_FAILED", "reset_password", err)
	}
	err = s.accounts.UpdatePasswordHash(ctx, a.AccountID, hash)
	if errors.Is(err, domain.ErrNotFound) {
		return s.reject(domain.ErrInvalidRequest, "account removed during reset")
	}
	if err != nil {
		return s.internal("ACCOUNT_UPDATE_FAILED", "reset_password", err)
	}
	s.logger.Info().Str("account_id", a.AccountID).Msg("password reset")

	s.notifier.SendPasswordResetSuccess(ctx, a)
	return nil
}

func (s *service) account(ctx context.Context, accountID, op string) (*domain.Account, error) {
	if accountID == "" {
		return nil, s.reject(domain.ErrInvalidRequest, "token has no subject")
	}
	a, err := s.accounts.Get(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, s.reject(domain.ErrInvalidRequest, "account not found")
	}
	if err != nil {
		return nil, s.internal("ACCOUNT_LOOKUP_FAILED", op, err)
	}
	return a, nil
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
