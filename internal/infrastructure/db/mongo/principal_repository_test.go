package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postly/postly-api/internal/core/domain"
)

func TestUserDoc_ToDomain(t *testing.T) {
	created := time.Date(2026, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	doc := userDoc{
		ID:             12,
		Username:       "alice",
		Role:           "Moderator",
		PasswordSecret: []byte("$argon2id$v=19$..."),
		CreatedAt:      created,
		UpdatedAt:      created,
	}

	p, err := doc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.ID)
	assert.Equal(t, domain.RoleModerator, p.Role)
	assert.Equal(t, time.UTC, p.CreatedAt.Location())
	assert.True(t, p.CreatedAt.Equal(created))
}

func TestUserDoc_ToDomain_UnknownRole(t *testing.T) {
	_, err := userDoc{ID: 1, Role: "Owner"}.toDomain()
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestOrNow(t *testing.T) {
	now := time.Now().UTC()
	assert.Equal(t, now, orNow(time.Time{}, now))

	earlier := now.Add(-time.Hour)
	assert.Equal(t, earlier, orNow(earlier, now))
}
