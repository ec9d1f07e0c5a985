package password

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

var legacyPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// Hasher hashes passwords with argon2id and verifies both argon2id and
// legacy bcrypt hashes. It holds no mutable state and is safe for
// concurrent use.
type Hasher struct {
	cfg argon2.Config
}

// NewHasher returns a Hasher using the library's argon2id defaults.
func NewHasher() *Hasher {
	cfg := argon2.DefaultConfig()
	cfg.Mode = argon2.ModeArgon2id
	return &Hasher{cfg: cfg}
}

// NewHasherWithConfig is for callers that need different cost parameters,
// mostly tests.
func NewHasherWithConfig(cfg argon2.Config) *Hasher {
	return &Hasher{cfg: cfg}
}

// Hash returns the PHC-encoded argon2id hash of password. The whole input
// is significant regardless of length.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	encoded, err := h.cfg.HashEncoded([]byte(password))
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(encoded), nil
}

// Verify reports whether password matches hash. Empty, malformed or
// unknown-format hashes never match.
func (h *Hasher) Verify(password, hash string) bool {
	switch {
	case hash == "":
		return false
	case isLegacy(hash):
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	case strings.HasPrefix(hash, "$argon2"):
		ok, err := argon2.VerifyEncoded([]byte(password), []byte(hash))
		return err == nil && ok
	default:
		return false
	}
}

// Supported reports whether hash is in a format Verify understands.
func (h *Hasher) Supported(hash string) bool {
	if isLegacy(hash) {
		_, err := bcrypt.Cost([]byte(hash))
		return err == nil
	}
	if strings.HasPrefix(hash, "$argon2") {
		_, err := argon2.Decode([]byte(hash))
		return err == nil
	}
	return false
}

// NeedsUpgrade reports whether hash should be replaced by a fresh argon2id
// hash after the next successful Verify.
func (h *Hasher) NeedsUpgrade(hash string) bool {
	return isLegacy(hash)
}

func isLegacy(hash string) bool {
	for _, p := range legacyPrefixes {
		if strings.HasPrefix(hash, p) {
			return true
		}
	}
	return false
}
