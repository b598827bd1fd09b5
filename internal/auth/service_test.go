package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/collegeconnect/backend/internal/models"
)

func TestValidPassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		want     bool
	}{
		{"valid", "passw0rd!", true},
		{"valid with mixed specials", "Abc123$%&x", true},
		{"too short", "a1!bcde", false},
		{"no digit", "password!", false},
		{"no letter", "12345678!", false},
		{"no special", "password1", false},
		{"disallowed character", "passw0rd! ", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, validPassword(tc.password))
		})
	}
}

func TestNamePattern(t *testing.T) {
	assert.True(t, namePattern.MatchString("Ada Lovelace"))
	assert.True(t, namePattern.MatchString("Ada"))
	assert.False(t, namePattern.MatchString(" Ada"))
	assert.False(t, namePattern.MatchString("Ada  Lovelace"))
	assert.False(t, namePattern.MatchString("Ada1"))
	assert.False(t, namePattern.MatchString(""))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService([]byte("test-secret"), nil, nil, nil)

	user := &models.User{
		ID:      primitive.NewObjectID(),
		Email:   "ada@mit.edu",
		College: "MIT",
		Role:    models.RoleModerator,
	}

	resp, err := svc.issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), resp.ExpiresAt, time.Minute)

	claims, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.UserID)
	assert.Equal(t, "ada@mit.edu", claims.Email)
	assert.Equal(t, "MIT", claims.College)
	assert.Equal(t, models.RoleModerator, claims.Role)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewService([]byte("secret-a"), nil, nil, nil)
	verifier := NewService([]byte("secret-b"), nil, nil, nil)

	resp, err := issuer.issue(&models.User{
		ID:    primitive.NewObjectID(),
		Email: "ada@mit.edu",
	})
	require.NoError(t, err)

	_, err = verifier.ParseToken(resp.Token)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc := NewService([]byte("test-secret"), nil, nil, nil)
	_, err := svc.ParseToken("not-a-token")
	assert.Error(t, err)
}
