package queue

import "context"

// SecretDeriver is the synchronous hashing primitive the pool schedules.
type SecretDeriver interface {
	Hash(plaintext string) []byte
	Verify(plaintext string, secret []byte) bool
}

// PooledHasher runs every derivation of a SecretDeriver on a Pool, keeping
// the slow key derivation off request goroutines and bounding how much
// working memory concurrent logins can claim.
type PooledHasher struct {
	pool    *Pool
	deriver SecretDeriver
}

func NewPooledHasher(pool *Pool, deriver SecretDeriver) *PooledHasher {
	return &PooledHasher{pool: pool, deriver: deriver}
}

func (h *PooledHasher) Hash(ctx context.Context, plaintext string) ([]byte, error) {
	var secret []byte
	if err := h.pool.Do(ctx, "hash", func() { secret = h.deriver.Hash(plaintext) }); err != nil {
		return nil, err
	}
	return secret, nil
}

func (h *PooledHasher) Verify(ctx context.Context, plaintext string, secret []byte) (bool, error) {
	var ok bool
	if err := h.pool.Do(ctx, "verify", func() { ok = h.deriver.Verify(plaintext, secret) }); err != nil {
		return false, err
	}
	return ok, nil
}
