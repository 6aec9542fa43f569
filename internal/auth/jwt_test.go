package auth

import (
	"testing"
	"time"

	"github.com/Freeeeeet/mentorship_service/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	a := NewAuthenticator("secret")
	actor := model.Actor{UserID: uuid.New(), Role: model.RoleMentor}

	token, err := a.Issue(actor, time.Minute)
	require.NoError(t, err)

	parsed, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, actor, parsed)
}

func TestParse_Rejects(t *testing.T) {
	a := NewAuthenticator("secret")
	actor := model.Actor{UserID: uuid.New(), Role: model.RoleStudent}

	expired, err := a.Issue(actor, -time.Minute)
	require.NoError(t, err)

	foreign, err := NewAuthenticator("other").Issue(actor, time.Minute)
	require.NoError(t, err)

	unknownRole, err := a.Issue(model.Actor{UserID: uuid.New(), Role: "admin"}, time.Minute)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             string(model.RoleStudent),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "42"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	wrongAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Role:             string(model.RoleStudent),
		RegisteredClaims: jwt.RegisteredClaims{Subject: actor.UserID.String()},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"expired":      expired,
		"foreign key":  foreign,
		"unknown role": unknownRole,
		"bad subject":  badSubject,
		"wrong alg":    wrongAlg,
		"garbage":      "not-a-token",
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := a.Parse(token)
			assert.Error(t, err)
		})
	}
}
