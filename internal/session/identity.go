package session

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// UserIDFromToken decodes the unverified payload of the bearer token and
// returns the acting user's id, trying the userId, id, and _id claims in
// that order. The signature is deliberately not checked: the result is a
// display/authorization hint only, every real decision is re-validated by
// the backend. Malformed or missing tokens yield ("", false).
func UserIDFromToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", false
	}
	for _, key := range []string{"userId", "id", "_id"} {
		if v, ok := claims[key]; ok {
			if s := claimString(v); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// Identity returns the acting user id derived from the stored token.
func (s *Store) Identity() (string, bool) {
	return UserIDFromToken(s.Token())
}

func claimString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
