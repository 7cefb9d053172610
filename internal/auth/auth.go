package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/reelforge/reelforge/internal/config"
	"go.uber.org/zap"
)

type Authenticator interface {
	Authenticator(next http.Handler) http.Handler
}

const (
	JWKSAuthentication string = "jwks"
	HMACAuthentication string = "hmac"
	NoneAuthentication string = "none"
)

func NewAuthenticator(authConfig config.Auth) (Authenticator, error) {
	zap.S().Named("auth").Infof("authentication: '%s'", authConfig.AuthenticationType)

	switch authConfig.AuthenticationType {
	case JWKSAuthentication:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return NewJWKSAuthenticator(ctx, authConfig.JwkCertURL, authConfig.Issuer, authConfig.Audience)
	case HMACAuthentication:
		return NewHMACAuthenticator(authConfig.LocalSecret, authConfig.Issuer, authConfig.Audience)
	case NoneAuthentication, "":
		return NewNoneAuthenticator()
	default:
		return nil, fmt.Errorf("unknown authentication type %q", authConfig.AuthenticationType)
	}
}
