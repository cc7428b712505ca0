package password

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testParams keeps the suite fast; the algorithm and encoding are the same as
// in production.
var testParams = Params{Iterations: 1, Parallelism: 1, MemoryKiB: 64, KeyLen: 32, SaltLen: 16}

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := New(testParams)
	require.NoError(t, err)
	return h
}

func TestDefaultParams(t *testing.T) {
	assert.Equal(t, uint32(3), DefaultParams.Iterations)
	assert.Equal(t, uint8(8), DefaultParams.Parallelism)
	assert.Equal(t, uint32(512*1024), DefaultParams.MemoryKiB)
	assert.Equal(t, uint32(32), DefaultParams.KeyLen)
	require.NoError(t, DefaultParams.Validate())
}

func TestHasher_VerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)
	for _, pw := range []string{"hunter2", "", "pässwörd", strings.Repeat("x", 200)} {
		secret := h.Hash(pw)
		assert.True(t, h.Verify(pw, secret), "password %q should verify", pw)
	}
}

func TestHasher_RejectsOtherPassword(t *testing.T) {
	h := newTestHasher(t)
	secret := h.Hash("correct horse")
	assert.False(t, h.Verify("correct horse ", secret))
	assert.False(t, h.Verify("Correct horse", secret))
	assert.False(t, h.Verify("", secret))
}

func TestHasher_SaltedOutputDiffers(t *testing.T) {
	h := newTestHasher(t)
	a := h.Hash("same input")
	b := h.Hash("same input")
	assert.False(t, bytes.Equal(a, b), "two hashes of one password must differ")
	assert.True(t, h.Verify("same input", a))
	assert.True(t, h.Verify("same input", b))
}

func TestHasher_EncodingCarriesParams(t *testing.T) {
	h := newTestHasher(t)
	secret := string(h.Hash("pw"))
	assert.True(t, strings.HasPrefix(secret, "$argon2id$v=19$m=64,t=1,p=1$"), secret)
}

func TestHasher_VerifiesSecretsFromOtherParams(t *testing.T) {
	old, err := New(Params{Iterations: 2, Parallelism: 2, MemoryKiB: 128, KeyLen: 32, SaltLen: 16})
	require.NoError(t, err)
	secret := old.Hash("rotate me")

	current := newTestHasher(t)
	assert.True(t, current.Verify("rotate me", secret))
}

func TestHasher_MalformedSecret(t *testing.T) {
	h := newTestHasher(t)
	valid := string(h.Hash("pw"))

	cases := map[string]string{
		"empty":          "",
		"raw bytes":      "\x00\x01\x02",
		"wrong variant":  strings.Replace(valid, "argon2id", "argon2i", 1),
		"wrong version":  strings.Replace(valid, "v=19", "v=16", 1),
		"bad params":     strings.Replace(valid, "m=64", "m=x", 1),
		"zero memory":    strings.Replace(valid, "m=64", "m=0", 1),
		"bad salt":       strings.Replace(valid, "$argon2id$v=19$m=64,t=1,p=1$", "$argon2id$v=19$m=64,t=1,p=1$!!", 1),
		"missing fields": "$argon2id$v=19$m=64,t=1,p=1",
	}
	for name, secret := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, h.Verify("pw", []byte(secret)))
		})
	}
}

func TestNew_InvalidParams(t *testing.T) {
	bad := []Params{
		{Iterations: 0, Parallelism: 1, MemoryKiB: 64, KeyLen: 32, SaltLen: 16},
		{Iterations: 1, Parallelism: 0, MemoryKiB: 64, KeyLen: 32, SaltLen: 16},
		{Iterations: 1, Parallelism: 8, MemoryKiB: 32, KeyLen: 32, SaltLen: 16},
		{Iterations: 1, Parallelism: 1, MemoryKiB: 64, KeyLen: 8, SaltLen: 16},
		{Iterations: 1, Parallelism: 1, MemoryKiB: 64, KeyLen: 32, SaltLen: 4},
	}
	for _, p := range bad {
		_, err := New(p)
		assert.ErrorIs(t, err, ErrInvalidParams, "%+v", p)
	}
}
