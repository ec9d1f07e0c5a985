package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/cartify-api/internal/config"
	"github.com/cartify-api/internal/domain"
	jwtinfra "github.com/cartify-api/internal/infrastructure/jwt"
	"github.com/cartify-api/internal/infrastructure/password"
	redisinfra "github.com/cartify-api/internal/infrastructure/redis"
	"github.com/cartify-api/internal/observability"
	"github.com/matthewhartstonge/argon2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]domain.Account
}

func (m *memAccounts) Put(_ context.Context, a *domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[a.AccountID]; ok {
		return domain.ErrConflict
	}
	m.byID[a.AccountID] = *a
	return nil
}

func (m *memAccounts) Get(_ context.Context, id string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

func (m *memAccounts) find(match func(domain.Account) bool) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if match(a) {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	return m.find(func(a domain.Account) bool { return a.Email == email })
}

func (m *memAccounts) GetByPhone(_ context.Context, phone string) (*domain.Account, error) {
	return m.find(func(a domain.Account) bool { return a.Phone != nil && *a.Phone == phone })
}

func (m *memAccounts) UpdatePasswordHash(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = hash
	m.byID[id] = a
	return nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	codes   []string
	welcome int
}

func (n *recordingNotifier) SendWelcome(context.Context, *domain.Account) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.welcome++
}
func (n *recordingNotifier) SendPasswordResetOTP(_ context.Context, _ *domain.Account, code string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.codes = append(n.codes, code)
}
func (n *recordingNotifier) SendPasswordResetSuccess(context.Context, *domain.Account) {}
func (n *recordingNotifier) Wait()                                                    {}

// --- fixture ---

type testServer struct {
	handler  http.Handler
	notifier *recordingNotifier
	mr       *miniredis.Miniredis
	issuer   *jwtinfra.Provider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		AppName:                  "Cartify",
		JWTSecret:                "router-test-secret-0123456789abcdef",
		JWTAlgorithm:             "HS256",
		AccessTokenExpireMinutes: 60,
		RefreshTokenExpireDays:   7,
		AllowedOrigins:           []string{"*"},
		RateLimitRPS:             1000,
		RateLimitBurst:           1000,
	}
	issuer, err := jwtinfra.NewProvider(cfg)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	argonCfg := argon2.DefaultConfig()
	argonCfg.MemoryCost = 8 * 1024
	argonCfg.TimeCost = 1
	argonCfg.Parallelism = 1

	notifier := &recordingNotifier{}
	h := NewRouter(cfg, &Deps{
		Accounts:    &memAccounts{byID: map[string]domain.Account{}},
		Store:       redisinfra.NewStore(client),
		JWTProvider: issuer,
		Passwords:   password.NewHasherWithConfig(argonCfg),
		Notifier:    notifier,
		Metrics:     observability.NewMetrics(),
		Logger:      zerolog.Nop(),
	})
	return &testServer{handler: h, notifier: notifier, mr: mr, issuer: issuer}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, bearer string) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)

	out := map[string]interface{}{}
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	}
	return rr.Code, out
}

func (s *testServer) register(t *testing.T, email, pw string) {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": email, "password": pw, "first_name": "John", "last_name": "Doe",
	}, "")
	require.Equal(t, http.StatusCreated, code, body)
}

// --- tests ---

func TestRouter_WelcomeAndHealth(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Welcome to Cartify", body["message"])

	code, body = s.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["redis_connected"])
}

func TestRouter_Register(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "Jane@X.com", "password": "Passw0rd!", "first_name": "Jane", "last_name": "Smith",
	}, "")
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "User registered successfully", body["message"])
	assert.Equal(t, "jane@x.com", body["email"])
	assert.Equal(t, "Jane", body["first_name"])
	assert.NotEmpty(t, body["user_id"])
	assert.Equal(t, 1, s.notifier.welcome)

	code, body = s.do(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "jane@x.com", "password": "Passw0rd!", "first_name": "Jane", "last_name": "Smith",
	}, "")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email already registered", body["error"])

	code, _ = s.do(t, http.MethodPost, "/v1/auth/register", map[string]string{
		"email": "short@x.com", "password": "short", "first_name": "J", "last_name": "S",
	}, "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestRouter_LoginLogoutSession(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com", "Passw0rd!")

	code, body := s.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "a@x.com", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", body["error"])

	code, body = s.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "ghost@x.com", "password": "wrong-pass"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", body["error"])

	code, body = s.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "a@x.com", "password": "Passw0rd!"}, "")
	require.Equal(t, http.StatusOK, code)
	access, _ := body["access_token"].(string)
	require.NotEmpty(t, access)
	assert.NotEmpty(t, body["refresh_token"])

	code, again := s.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "a@x.com", "password": "Passw0rd!"}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, body, again)

	code, body = s.do(t, http.MethodGet, "/v1/auth/session", nil, access)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "active", body["state"])

	code, body = s.do(t, http.MethodPost, "/v1/auth/logout", nil, access)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logged out successfully", body["message"])

	code, _ = s.do(t, http.MethodPost, "/v1/auth/logout", nil, access)
	assert.Equal(t, http.StatusOK, code)

	code, body = s.do(t, http.MethodGet, "/v1/auth/session", nil, access)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "absent", body["state"])
}

func TestRouter_LogoutHeaderErrors(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid authorization header format", body["error"])

	code, body = s.do(t, http.MethodPost, "/v1/auth/logout", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid or expired token", body["error"])
}

func TestRouter_PasswordResetFlow(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com", "Passw0rd!")

	code, body := s.do(t, http.MethodPost, "/v1/auth/forgot-password", map[string]string{"email": "ghost@x.com"}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "If the email exists, an OTP has been sent", body["message"])
	assert.NotContains(t, body, "otp_verification_token")

	code, body = s.do(t, http.MethodPost, "/v1/auth/forgot-password", map[string]string{"email": "a@x.com"}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "If the email exists, an OTP has been sent", body["message"])
	verification, _ := body["otp_verification_token"].(string)
	require.NotEmpty(t, verification)
	require.Len(t, s.notifier.codes, 1)
	otp := s.notifier.codes[0]

	code, body = s.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{"otp_verification_token": "bad", "otp": otp}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired verification token", body["error"])

	wrong := "000000"
	if otp == wrong {
		wrong = "111111"
	}
	code, body = s.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{"otp_verification_token": verification, "otp": wrong}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid OTP", body["error"])

	code, body = s.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{"otp_verification_token": verification, "otp": otp}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OTP verified successfully", body["message"])
	reset, _ := body["reset_token"].(string)
	require.NotEmpty(t, reset)

	code, body = s.do(t, http.MethodPost, "/v1/auth/verify-otp", map[string]string{"otp_verification_token": verification, "otp": otp}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired OTP", body["error"])

	code, body = s.do(t, http.MethodPost, "/v1/auth/reset-password", map[string]string{"reset_token": reset, "new_password": "Passw0rd!"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "New password cannot be the same as the old password", body["error"])

	code, body = s.do(t, http.MethodPost, "/v1/auth/reset-password", map[string]string{"reset_token": verification, "new_password": "NewPassw0rd!"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid or expired reset token", body["error"])

	code, body = s.do(t, http.MethodPost, "/v1/auth/reset-password", map[string]string{"reset_token": reset, "new_password": "NewPassw0rd!"}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Password reset successfully", body["message"])

	code, _ = s.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "a@x.com", "password": "Passw0rd!"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "a@x.com", "password": "NewPassw0rd!"}, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_AdminMetrics(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "a@x.com", "Passw0rd!")
	_, body := s.do(t, http.MethodPost, "/v1/auth/login", map[string]string{"email": "a@x.com", "password": "Passw0rd!"}, "")
	customer, _ := body["access_token"].(string)

	code, _ := s.do(t, http.MethodGet, "/v1/admin/metrics", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodGet, "/v1/admin/metrics", nil, customer)
	assert.Equal(t, http.StatusForbidden, code)

	admin, err := s.issuer.SignAccess(jwtinfra.AccessClaims{Subject: "admin-1", Role: domain.RoleAdmin})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/metrics", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "cartify_auth_events_total")
}
