package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/cartify-api/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	OTPVerifyTTL = 10 * time.Minute
	ResetTTL     = 5 * time.Minute
)

// Purpose values carried in the "type" claim. Access tokens carry none.
const (
	PurposeAccess    = ""
	PurposeRefresh   = "refresh"
	PurposeOTPVerify = "otp_verify"
	PurposeReset     = "reset"
)

var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrPurposeMismatch = errors.New("token purpose mismatch")
)

// Claims is the decoded payload of any token this package signs.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Type  string `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// AccessClaims are the fields of a bearer access token.
type AccessClaims struct {
	Subject string
	Email   string
	Role    string
}

// RefreshClaims are the fields of a refresh token.
type RefreshClaims struct {
	Subject string
	Email   string
	Role    string
}

// OTPVerifyClaims bind step two of a password reset to the account that
// requested the code.
type OTPVerifyClaims struct {
	Subject string
	Email   string
}

// ResetClaims authorise exactly one password overwrite.
type ResetClaims struct {
	Subject string
	Email   string
}

// Option customises a Provider.
type Option func(*Provider)

// WithClock replaces time.Now for signing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) { p.now = now }
}

// Provider signs and verifies HMAC JWTs with a process-wide secret.
type Provider struct {
	secret     []byte
	method     jwt.SigningMethod
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewProvider(cfg *config.Config, opts ...Option) (*Provider, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	method := jwt.GetSigningMethod(cfg.JWTAlgorithm)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported jwt algorithm %q", cfg.JWTAlgorithm)
	}
	p := &Provider{
		secret:     []byte(cfg.JWTSecret),
		method:     method,
		accessTTL:  cfg.AccessTokenTTL(),
		refreshTTL: cfg.RefreshTokenTTL(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AccessTTL is the lifetime given to access tokens.
func (p *Provider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL is the lifetime given to refresh tokens.
func (p *Provider) RefreshTTL() time.Duration { return p.refreshTTL }

func (p *Provider) SignAccess(c AccessClaims) (string, error) {
	return p.sign(c.Subject, c.Email, c.Role, PurposeAccess, p.accessTTL)
}

func (p *Provider) SignRefresh(c RefreshClaims) (string, error) {
	return p.sign(c.Subject, c.Email, c.Role, PurposeRefresh, p.refreshTTL)
}

func (p *Provider) SignOTPVerify(c OTPVerifyClaims) (string, error) {
	return p.sign(c.Subject, c.Email, "", PurposeOTPVerify, OTPVerifyTTL)
}

func (p *Provider) SignReset(c ResetClaims) (string, error) {
	return p.sign(c.Subject, c.Email, "", PurposeReset, ResetTTL)
}

func (p *Provider) sign(subject, email, role, purpose string, ttl time.Duration) (string, error) {
	now := p.now()
	claims := Claims{
		Email: email,
		Role:  role,
		Type:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(p.method, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purposeName(purpose), err)
	}
	return signed, nil
}

// Verify checks signature, algorithm and expiry without constraining the
// purpose. Malformed input is reported as an error, never a panic.
func (p *Provider) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *Provider) VerifyOTPVerify(tokenStr string) (*OTPVerifyClaims, error) {
	c, err := p.verifyPurpose(tokenStr, PurposeOTPVerify)
	if err != nil {
		return nil, err
	}
	return &OTPVerifyClaims{Subject: c.Subject, Email: c.Email}, nil
}

func (p *Provider) VerifyReset(tokenStr string) (*ResetClaims, error) {
	c, err := p.verifyPurpose(tokenStr, PurposeReset)
	if err != nil {
		return nil, err
	}
	return &ResetClaims{Subject: c.Subject, Email: c.Email}, nil
}

func (p *Provider) verifyPurpose(tokenStr, purpose string) (*Claims, error) {
	c, err := p.Verify(tokenStr)
	if err != nil {
		return nil, err
	}
	if c.Type != purpose {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrPurposeMismatch, purposeName(purpose), purposeName(c.Type))
	}
	return c, nil
}

func purposeName(purpose string) string {
	if purpose == PurposeAccess {
		return "access"
	}
	return purpose
}
