package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/postly/postly-api/internal/core/domain"
)

// ── principals ────────────────────────────────────────────────────────────────

type stubPrincipalRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*domain.Principal
	err    error

	// deleteErr fails Delete only.
	deleteErr error
}

func newStubPrincipalRepo() *stubPrincipalRepo {
	return &stubPrincipalRepo{byID: make(map[int64]*domain.Principal)}
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	if p == nil {
		return nil
	}
	c := *p
	c.PasswordSecret = append([]byte(nil), p.PasswordSecret...)
	return &c
}

// seed stores p directly and returns the stored copy.
func (r *stubPrincipalRepo) seed(username string, role domain.Role, password string) *domain.Principal {
	p, _ := r.Create(context.Background(), &domain.Principal{
		Username:       username,
		Role:           role,
		PasswordSecret: fakeSecret(password),
	})
	return p
}

func (r *stubPrincipalRepo) findByName(username string) *domain.Principal {
	for _, p := range r.byID {
		if p.Username == username {
			return p
		}
	}
	return nil
}

func (r *stubPrincipalRepo) Create(_ context.Context, p *domain.Principal) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if r.findByName(p.Username) != nil {
		return nil, domain.ErrUsernameConflict
	}
	r.nextID++
	c := clonePrincipal(p)
	c.ID = r.nextID
	r.byID[c.ID] = c
	return clonePrincipal(c), nil
}

func (r *stubPrincipalRepo) FindByID(_ context.Context, id int64) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

func (r *stubPrincipalRepo) FindByUsername(_ context.Context, username string) (*domain.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p := r.findByName(username)
	if p == nil {
		return nil, domain.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

func (r *stubPrincipalRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.findByName(username) != nil, r.err
}

func (r *stubPrincipalRepo) update(id int64, fn func(*domain.Principal)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return domain.ErrPrincipalNotFound
	}
	fn(p)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *stubPrincipalRepo) UpdateUsername(_ context.Context, id int64, username string) error {
	r.mu.Lock()
	if other := r.findByName(username); other != nil && other.ID != id {
		r.mu.Unlock()
		return domain.ErrUsernameConflict
	}
	r.mu.Unlock()
	return r.update(id, func(p *domain.Principal) { p.Username = username })
}

func (r *stubPrincipalRepo) UpdatePasswordSecret(_ context.Context, id int64, secret []byte) error {
	return r.update(id, func(p *domain.Principal) { p.PasswordSecret = secret })
}

func (r *stubPrincipalRepo) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	return r.update(id, func(p *domain.Principal) { p.Role = role })
}

func (r *stubPrincipalRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.byID[id]; !ok {
		return domain.ErrPrincipalNotFound
	}
	delete(r.byID, id)
	return nil
}

// ── follows ───────────────────────────────────────────────────────────────────

type edge struct{ from, to int64 }

type stubFollowRepo struct {
	edges map[edge]struct{}
}

func newStubFollowRepo() *stubFollowRepo {
	return &stubFollowRepo{edges: make(map[edge]struct{})}
}

func (r *stubFollowRepo) Follow(_ context.Context, from, to int64) error {
	r.edges[edge{from, to}] = struct{}{}
	return nil
}

func (r *stubFollowRepo) Unfollow(_ context.Context, from, to int64) error {
	delete(r.edges, edge{from, to})
	return nil
}

func (r *stubFollowRepo) DeleteAllFor(_ context.Context, id int64) error {
	for e := range r.edges {
		if e.from == id || e.to == id {
			delete(r.edges, e)
		}
	}
	return nil
}

func (r *stubFollowRepo) has(from, to int64) bool {
	_, ok := r.edges[edge{from, to}]
	return ok
}

// ── content ───────────────────────────────────────────────────────────────────

type stubContentRepo struct {
	posts    map[int64]int64
	comments map[int64]int64
}

func newStubContentRepo() *stubContentRepo {
	return &stubContentRepo{posts: make(map[int64]int64), comments: make(map[int64]int64)}
}

func (r *stubContentRepo) FindPost(_ context.Context, id int64) (*domain.ContentRef, error) {
	author, ok := r.posts[id]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	return &domain.ContentRef{Kind: domain.ContentPost, ID: id, AuthorID: author}, nil
}

func (r *stubContentRepo) DeletePost(_ context.Context, id int64) error {
	delete(r.posts, id)
	return nil
}

func (r *stubContentRepo) FindComment(_ context.Context, id int64) (*domain.ContentRef, error) {
	author, ok := r.comments[id]
	if !ok {
		return nil, domain.ErrContentNotFound
	}
	return &domain.ContentRef{Kind: domain.ContentComment, ID: id, AuthorID: author}, nil
}

func (r *stubContentRepo) DeleteComment(_ context.Context, id int64) error {
	delete(r.comments, id)
	return nil
}

// ── security ──────────────────────────────────────────────────────────────────

// fakeHasher stands in for the Argon2id pool; real derivations are covered by
// the password package.
type fakeHasher struct {
	hashCalls int
	err       error
}

func fakeSecret(plaintext string) []byte { return []byte("fake$" + plaintext) }

func (h *fakeHasher) Hash(_ context.Context, plaintext string) ([]byte, error) {
	h.hashCalls++
	if h.err != nil {
		return nil, h.err
	}
	return fakeSecret(plaintext), nil
}

func (h *fakeHasher) Verify(_ context.Context, plaintext string, secret []byte) (bool, error) {
	if h.err != nil {
		return false, h.err
	}
	if !strings.HasPrefix(string(secret), "fake$") {
		return false, nil
	}
	return string(secret) == string(fakeSecret(plaintext)), nil
}

type fakeIssuer struct {
	issued []string
}

func (i *fakeIssuer) Issue(p *domain.Principal) (string, time.Time, error) {
	if p == nil {
		return "", time.Time{}, errors.New("nil principal")
	}
	i.issued = append(i.issued, p.Username)
	return "token-for-" + p.Username, time.Now().Add(24 * time.Hour), nil
}

type stubThrottle struct {
	limit    int
	failures map[string]int
	err      error
}

func newStubThrottle(limit int) *stubThrottle {
	return &stubThrottle{limit: limit, failures: make(map[string]int)}
}

func (t *stubThrottle) Allowed(_ context.Context, username string) (bool, error) {
	if t.err != nil {
		return false, t.err
	}
	return t.failures[username] < t.limit, nil
}

func (t *stubThrottle) RecordFailure(_ context.Context, username string) error {
	t.failures[username]++
	return nil
}

func (t *stubThrottle) Reset(_ context.Context, username string) error {
	delete(t.failures, username)
	return nil
}
