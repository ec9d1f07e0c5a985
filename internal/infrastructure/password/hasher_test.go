package password

import (
	"strings"
	"sync"
	"testing"

	"github.com/matthewhartstonge/argon2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testHasher() *Hasher {
	cfg := argon2.DefaultConfig()
	cfg.Mode = argon2.ModeArgon2id
	cfg.MemoryCost = 8 * 1024
	cfg.TimeCost = 1
	cfg.Parallelism = 1
	return NewHasherWithConfig(cfg)
}

func TestHash_VerifyRoundTrip(t *testing.T) {
	h := testHasher()
	for _, pw := range []string{"Passw0rd!", "ünïcödé-pässwörd", strings.Repeat("x", 200)} {
		hash, err := h.Hash(pw)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"), hash)
		assert.True(t, h.Verify(pw, hash))
		assert.False(t, h.Verify(pw+"!", hash))
	}
}

func TestHash_Salted(t *testing.T) {
	h := testHasher()
	a, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	b, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHash_NoTruncationPast72Bytes(t *testing.T) {
	h := testHasher()
	base := strings.Repeat("a", 80)
	hash, err := h.Hash(base + "1")
	require.NoError(t, err)

	assert.False(t, h.Verify(base+"2", hash))
	assert.True(t, h.Verify(base+"1", hash))
}

func TestHash_EmptyPassword(t *testing.T) {
	_, err := testHasher().Hash("")
	assert.Error(t, err)
}

func TestVerify_MalformedHashes(t *testing.T) {
	h := testHasher()
	for _, hash := range []string{"", "plain", "$argon2id$garbage", "$2b$10$short", "$unknown$x"} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("Passw0rd!", hash), hash)
		})
		assert.False(t, h.Supported(hash), hash)
	}
}

func TestVerify_LegacyBcrypt(t *testing.T) {
	h := testHasher()
	legacy, err := bcrypt.GenerateFromPassword([]byte("customerpassword123"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, h.Verify("customerpassword123", string(legacy)))
	assert.False(t, h.Verify("wrong", string(legacy)))
	assert.True(t, h.Supported(string(legacy)))
	assert.True(t, h.NeedsUpgrade(string(legacy)))
}

func TestNeedsUpgrade_Argon2(t *testing.T) {
	h := testHasher()
	hash, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	assert.True(t, h.Supported(hash))
	assert.False(t, h.NeedsUpgrade(hash))
}

func TestHasher_Concurrent(t *testing.T) {
	h := testHasher()
	hash, err := h.Hash("Passw0rd!")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, h.Verify("Passw0rd!", hash))
		}()
	}
	wg.Wait()
}
