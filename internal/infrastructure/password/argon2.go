// Package password derives and verifies Argon2id password secrets.
//
// Secrets are self-describing PHC strings:
//
//	$argon2id$v=19$m=<KiB>,t=<iterations>,p=<lanes>$<b64 salt>$<b64 key>
//
// Every call to Hash draws a fresh random salt and stores it, together with
// the cost parameters, in the returned secret. Verify reads both back, so
// secrets stay verifiable after DefaultParams changes.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Params are the Argon2id cost parameters.
type Params struct {
	Iterations  uint32
	Parallelism uint8
	MemoryKiB   uint32
	KeyLen      uint32
	SaltLen     uint32
}

// DefaultParams: 3 passes, 8 lanes, 512 MiB, 32-byte output.
var DefaultParams = Params{
	Iterations:  3,
	Parallelism: 8,
	MemoryKiB:   512 * 1024,
	KeyLen:      32,
	SaltLen:     16,
}

const minSaltLen = 8

var (
	ErrInvalidParams = errors.New("invalid argon2 parameters")
	ErrInvalidSecret = errors.New("invalid password secret")
)

// Validate rejects parameter sets argon2 cannot run with or that would make
// the salt meaningless.
func (p Params) Validate() error {
	switch {
	case p.Iterations == 0:
		return fmt.Errorf("%w: iterations must be positive", ErrInvalidParams)
	case p.Parallelism == 0:
		return fmt.Errorf("%w: parallelism must be positive", ErrInvalidParams)
	case p.MemoryKiB < 8*uint32(p.Parallelism):
		return fmt.Errorf("%w: memory must be at least 8 KiB per lane", ErrInvalidParams)
	case p.KeyLen < 16:
		return fmt.Errorf("%w: key length must be at least 16 bytes", ErrInvalidParams)
	case p.SaltLen < minSaltLen:
		return fmt.Errorf("%w: salt length must be at least %d bytes", ErrInvalidParams, minSaltLen)
	}
	return nil
}

// Hasher is safe for concurrent use. Each Hash or Verify allocates
// Params.MemoryKiB of working memory for its duration.
type Hasher struct {
	params Params
}

// New returns a Hasher for p. An error here is a configuration error and
// should stop the process at startup.
func New(p Params) (*Hasher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Hasher{params: p}, nil
}

// Params returns the parameters new secrets are derived with.
func (h *Hasher) Params() Params {
	return h.params
}

// Hash derives a new secret for plaintext.
func (h *Hasher) Hash(plaintext string) []byte {
	salt := make([]byte, h.params.SaltLen)
	// crypto/rand.Read never returns an error; it aborts the process if the
	// system randomness source is unavailable.
	_, _ = rand.Read(salt)

	key := argon2.IDKey([]byte(plaintext), salt, h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLen)
	return encode(h.params, salt, key)
}

// Verify reports whether plaintext matches secret. Malformed secrets never
// match.
func (h *Hasher) Verify(plaintext string, secret []byte) bool {
	p, salt, want, err := decode(secret)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(plaintext), salt, p.Iterations, p.MemoryKiB, p.Parallelism, p.KeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func encode(p Params, salt, key []byte) []byte {
	return fmt.Appendf(nil, "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.MemoryKiB, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func decode(secret []byte) (Params, []byte, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(string(secret), "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, nil, ErrInvalidSecret
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return Params{}, nil, nil, ErrInvalidSecret
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Iterations, &p.Parallelism); err != nil {
		return Params{}, nil, nil, ErrInvalidSecret
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidSecret
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return Params{}, nil, nil, ErrInvalidSecret
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	if err := p.Validate(); err != nil {
		return Params{}, nil, nil, ErrInvalidSecret
	}
	return p, salt, key, nil
}
