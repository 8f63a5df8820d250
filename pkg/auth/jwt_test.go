package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	authn := New("test_secret")

	token, err := authn.GenerateToken("alice")
	require.NoError(t, err)

	claims, err := authn.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.UserID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := New("secret_a").GenerateToken("alice")
	require.NoError(t, err)

	_, err = New("secret_b").ValidateToken(token)
	require.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := New("secret").ValidateToken("not.a.token")
	require.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	require.Equal(t, "abc123", BearerToken(r))

	r = httptest.NewRequest("GET", "/ws?token=xyz", nil)
	require.Equal(t, "xyz", BearerToken(r))

	r = httptest.NewRequest("GET", "/ws", nil)
	require.Empty(t, BearerToken(r))
}
