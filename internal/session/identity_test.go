package session

import (
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestUserIDFromTokenClaimFallback(t *testing.T) {
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   string
	}{
		{"userId preferred", jwt.MapClaims{"userId": "u1", "id": "u2", "_id": "u3"}, "u1"},
		{"id fallback", jwt.MapClaims{"id": "u2", "_id": "u3"}, "u2"},
		{"_id fallback", jwt.MapClaims{"_id": "u3"}, "u3"},
		{"numeric id stringified", jwt.MapClaims{"userId": float64(42)}, "42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := UserIDFromToken(signedToken(t, tc.claims))
			require.True(t, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestUserIDFromTokenMalformed(t *testing.T) {
	for _, tok := range []string{"", "garbage", "a.b", "a.!!!.c"} {
		got, ok := UserIDFromToken(tok)
		require.False(t, ok, "token %q", tok)
		require.Equal(t, "", got)
	}
}

func TestUserIDFromTokenNoIDClaim(t *testing.T) {
	got, ok := UserIDFromToken(signedToken(t, jwt.MapClaims{"email": "a@example.com"}))
	require.False(t, ok)
	require.Equal(t, "", got)
}

func TestStoreIdentity(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "credentials.json"))
	_, ok := s.Identity()
	require.False(t, ok)

	tok := signedToken(t, jwt.MapClaims{"userId": "u9"})
	require.NoError(t, s.Set(Credentials{Token: tok, User: User{ID: "u9"}}))
	id, ok := s.Identity()
	require.True(t, ok)
	require.Equal(t, "u9", id)
}
