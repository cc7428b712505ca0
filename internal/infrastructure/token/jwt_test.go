package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postly/postly-api/internal/core/domain"
)

var testCfg = Config{
	Secret:   "0123456789abcdef0123456789abcdef",
	Issuer:   "postly-test",
	Audience: "postly-clients",
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func issueAt(t *testing.T, cfg Config, at time.Time, p *domain.Principal) (string, time.Time) {
	t.Helper()
	iss, err := NewIssuer(cfg)
	require.NoError(t, err)
	tok, exp, err := iss.WithClock(fixedClock(at)).Issue(p)
	require.NoError(t, err)
	return tok, exp
}

func TestIssue_ClaimsAndExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p := &domain.Principal{ID: 7, Username: "alice", Role: domain.RoleModerator}

	tok, exp := issueAt(t, testCfg, now, p)
	assert.Equal(t, now.Add(24*time.Hour), exp)

	v, err := NewValidator(testCfg)
	require.NoError(t, err)
	claims, err := v.WithClock(fixedClock(now.Add(time.Minute))).Validate(tok)
	require.NoError(t, err)

	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "Moderator", claims.Role)
	assert.Equal(t, "postly-test", claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{"postly-clients"}, claims.Audience)
	assert.Equal(t, exp, claims.ExpiresAt.Time.UTC())
	assert.Equal(t, now, claims.IssuedAt.Time.UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestIssue_NilPrincipal(t *testing.T) {
	iss, err := NewIssuer(testCfg)
	require.NoError(t, err)
	_, _, err = iss.Issue(nil)
	assert.Error(t, err)
}

func TestValidate_Expired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tok, _ := issueAt(t, testCfg, now, &domain.Principal{Username: "bob"})

	v, err := NewValidator(testCfg)
	require.NoError(t, err)

	_, err = v.WithClock(fixedClock(now.Add(24*time.Hour + time.Second))).Validate(tok)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidate_Rejections(t *testing.T) {
	now := time.Now()
	p := &domain.Principal{Username: "carol", Role: domain.RoleUser}

	wrongSecret := testCfg
	wrongSecret.Secret = "ffffffffffffffffffffffffffffffff"
	wrongIssuer := testCfg
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := testCfg
	wrongAudience.Audience = "other-app"

	tests := []struct {
		name  string
		token string
	}{
		{"wrong secret", mustIssue(t, wrongSecret, now, p)},
		{"wrong issuer", mustIssue(t, wrongIssuer, now, p)},
		{"wrong audience", mustIssue(t, wrongAudience, now, p)},
		{"garbage", "not.a.token"},
		{"empty", ""},
		{"alg none", unsignedToken(t, now)},
	}

	v, err := NewValidator(testCfg)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestValidate_MissingSubject(t *testing.T) {
	tok := mustIssue(t, testCfg, time.Now(), &domain.Principal{})
	v, err := NewValidator(testCfg)
	require.NoError(t, err)

	_, err = v.Validate(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfigValidation(t *testing.T) {
	_, err := NewIssuer(Config{Issuer: "a", Audience: "b"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewValidator(Config{Secret: "s"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func mustIssue(t *testing.T, cfg Config, at time.Time, p *domain.Principal) string {
	tok, _ := issueAt(t, cfg, at, p)
	return tok
}

func unsignedToken(t *testing.T, at time.Time) string {
	t.Helper()
	claims := Claims{
		Role: "Admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "mallory",
			Issuer:    testCfg.Issuer,
			Audience:  jwt.ClaimStrings{testCfg.Audience},
			IssuedAt:  jwt.NewNumericDate(at),
			ExpiresAt: jwt.NewNumericDate(at.Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return tok
}
