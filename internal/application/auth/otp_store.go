package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cartify-api/internal/domain"
	redisinfra "github.com/cartify-api/internal/infrastructure/redis"
)

// OTPTTL bounds how long a password-reset code stays usable.
const OTPTTL = 600 * time.Second

// KV is the ephemeral key/value store OTP records live in.
type KV interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// OTPStore keeps at most one pending code per email. Saving replaces the
// previous record.
type OTPStore interface {
	Save(ctx context.Context, email string, rec domain.OTPRecord) error
	Load(ctx context.Context, email string) (*domain.OTPRecord, bool, error)
	Delete(ctx context.Context, email string) error
}

type otpStore struct {
	kv  KV
	ttl time.Duration
}

func NewOTPStore(kv KV) OTPStore {
	return &otpStore{kv: kv, ttl: OTPTTL}
}

func (s *otpStore) Save(ctx context.Context, email string, rec domain.OTPRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode otp record: %w", err)
	}
	return s.kv.Put(ctx, redisinfra.OTPKey(domain.NormalizeEmail(email)), string(raw), s.ttl)
}

func (s *otpStore) Load(ctx context.Context, email string) (*domain.OTPRecord, bool, error) {
	raw, ok, err := s.kv.Get(ctx, redisinfra.OTPKey(domain.NormalizeEmail(email)))
	if err != nil || !ok {
		return nil, false, err
	}
	var rec domain.OTPRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, false, fmt.Errorf("decode otp record: %w", err)
	}
	return &rec, true, nil
}

func (s *otpStore) Delete(ctx context.Context, email string) error {
	return s.kv.Delete(ctx, redisinfra.OTPKey(domain.NormalizeEmail(email)))
}
