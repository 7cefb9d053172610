package auth

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

const localUserID = "local-user"

type NoneAuthenticator struct{}

func NewNoneAuthenticator() (*NoneAuthenticator, error) {
	return &NoneAuthenticator{}, nil
}

// Authenticator trusts X-User-Id when present so several local users can be
// simulated, and falls back to a fixed identity.
func (n *NoneAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-User-Id")
		if id == "" {
			id = localUserID
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": id})
		token.Raw = "fake-raw-token"

		ctx := NewTokenContext(r.Context(), User{ID: id, Username: id, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
