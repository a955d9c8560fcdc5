package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// StaticVerifier validates HS256 tokens signed with a shared secret.
// Used for local development and tests, where no external identity
// provider is reachable.
type StaticVerifier struct {
	secret []byte
}

func NewStaticVerifier(secret string) *StaticVerifier {
	return &StaticVerifier{
		secret: []byte(secret),
	}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}
	email, _ := claims["email"].(string)
	username, _ := claims["username"].(string)
	if username == "" {
		username = UsernameFallback(email)
	}

	return &Principal{
		UID:      sub,
		Email:    email,
		Username: username,
	}, nil
}
