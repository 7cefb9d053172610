package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// JWTAuthenticator validates bearer tokens and puts the caller in the
// request context.
type JWTAuthenticator struct {
	keyFn   jwt.Keyfunc
	methods []string
	options []jwt.ParserOption
}

func NewJWTAuthenticatorWithKeyFn(keyFn jwt.Keyfunc, methods []string, issuer, audience string) *JWTAuthenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods(methods),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &JWTAuthenticator{keyFn: keyFn, methods: methods, options: opts}
}

// NewJWKSAuthenticator verifies RS256 tokens against a remote key set.
func NewJWKSAuthenticator(ctx context.Context, jwksURL, issuer, audience string) (*JWTAuthenticator, error) {
	if jwksURL == "" {
		return nil, errors.New("jwks authentication requires a key set url")
	}
	k, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to get public keys: %w", err)
	}
	return NewJWTAuthenticatorWithKeyFn(k.Keyfunc, []string{jwt.SigningMethodRS256.Name}, issuer, audience), nil
}

// NewHMACAuthenticator verifies HS256 tokens signed with a shared secret.
func NewHMACAuthenticator(secret, issuer, audience string) (*JWTAuthenticator, error) {
	if secret == "" {
		return nil, errors.New("hmac authentication requires a secret")
	}
	key := []byte(secret)
	keyFn := func(_ *jwt.Token) (any, error) {
		return key, nil
	}
	return NewJWTAuthenticatorWithKeyFn(keyFn, []string{jwt.SigningMethodHS256.Name}, issuer, audience), nil
}

func (a *JWTAuthenticator) Authenticate(token string) (User, error) {
	parser := jwt.NewParser(a.options...)
	t, err := parser.Parse(token, a.keyFn)
	if err != nil {
		return User{}, fmt.Errorf("failed to authenticate token: %w", err)
	}
	if !t.Valid {
		return User{}, errors.New("failed to parse or validate token")
	}
	return parseToken(t)
}

func parseToken(t *jwt.Token) (User, error) {
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return User{}, errors.New("failed to parse jwt token claims")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return User{}, errors.New("token is missing 'sub' claim")
	}

	username, _ := claims["preferred_username"].(string)
	if username == "" {
		username, _ = claims["email"].(string)
	}
	if username == "" {
		username = sub
	}

	return User{ID: sub, Username: username, Token: t}, nil
}

func (a *JWTAuthenticator) Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken, ok := bearerToken(r)
		if !ok {
			http.Error(w, "No token provided", http.StatusUnauthorized)
			return
		}

		user, err := a.Authenticate(accessToken)
		if err != nil {
			zap.S().Named("auth").Debugw("authentication failed", "error", err)
			http.Error(w, "authentication failed", http.StatusUnauthorized)
			return
		}

		ctx := NewTokenContext(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
