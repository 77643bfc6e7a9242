package auth

import (
	"context"
	"fmt"

	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/ports/adapter"

	"github.com/golang-jwt/jwt/v5"
)

// Compile-time checks
var (
	_ adapter.CallerAuthorizer = (*JWTAuthorizer)(nil)
	_ adapter.CallerAuthorizer = (*StaticAuthorizer)(nil)
)

// JWTAuthorizer resolves the caller identity from the subject claim of an
// HMAC-signed bearer token. This stands in for the platform's payment gate,
// which hands callers a signed token once their payment clears.
type JWTAuthorizer struct {
	secret []byte
}

func NewJWTAuthorizer(secret string) *JWTAuthorizer {
	return &JWTAuthorizer{secret: []byte(secret)}
}

func (a *JWTAuthorizer) Authorize(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", domain.ErrUnauthorized
	}
	token, err := jwt.Parse(credential, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !token.Valid {
		return "", domain.ErrUnauthorized
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", domain.ErrUnauthorized
	}
	return sub, nil
}

// StaticAuthorizer maps every request to a fixed caller id. Dev mode only.
type StaticAuthorizer struct {
	callerID string
}

func NewStaticAuthorizer(callerID string) *StaticAuthorizer {
	if callerID == "" {
		callerID = "anonymous"
	}
	return &StaticAuthorizer{callerID: callerID}
}

func (a *StaticAuthorizer) Authorize(ctx context.Context, credential string) (string, error) {
	return a.callerID, nil
}
