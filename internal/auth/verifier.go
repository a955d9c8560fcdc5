package auth

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// TokenVerifier resolves a bearer token to the principal it belongs to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// OIDCVerifier checks bearer tokens against an external OIDC identity
// provider (e.g. firebase / keycloak).
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, providerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, providerURL)
	if err != nil {
		return nil, fmt.Errorf("query oidc provider: %w", err)
	}

	// access tokens often carry an `aud` different from the client id
	oidcConfig := &oidc.Config{
		ClientID:          clientID,
		SkipClientIDCheck: clientID == "",
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(oidcConfig),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	var claims struct {
		Sub               string `json:"sub"`
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: read claims: %s", ErrInvalidToken, err)
	}
	if claims.Sub == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	username := claims.Name
	if username == "" {
		username = claims.PreferredUsername
	}
	if username == "" {
		username = UsernameFallback(claims.Email)
	}

	return &Principal{
		UID:      claims.Sub,
		Email:    claims.Email,
		Username: username,
	}, nil
}
