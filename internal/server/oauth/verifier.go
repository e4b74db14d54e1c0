package oauth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Provider describes one identity provider: where its signing keys live and
// which issuer strings its tokens may carry. Google kept issuing bare
// "accounts.google.com" long after introducing the https form, so both are
// accepted.
type Provider struct {
	Name    models.Provider
	JwksURL string
	Issuers []string
}

var (
	Google = Provider{
		Name:    models.ProviderGoogle,
		JwksURL: "https://www.googleapis.com/oauth2/v3/certs",
		Issuers: []string{"accounts.google.com", "https://accounts.google.com"},
	}

	Apple = Provider{
		Name:    models.ProviderApple,
		JwksURL: "https://appleid.apple.com/auth/keys",
		Issuers: []string{"https://appleid.apple.com"},
	}
)

type idTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Verifier validates provider-issued ID tokens using a shared key cache.
type Verifier struct {
	cache *KeyCache
}

// NewVerifier constructs a Verifier over the given key cache.
func NewVerifier(cache *KeyCache) *Verifier {
	return &Verifier{cache: cache}
}

// Verify checks an ID token's RS256 signature against the provider's
// published keys, then its claims in order: exact audience, unexpired, exact
// issuer. Every verification failure collapses to common.ErrInvalidToken.
// Only a key fetch failure with a cold cache surfaces as
// common.ErrUpstreamUnavailable, which callers may treat as retryable.
func (v *Verifier) Verify(ctx context.Context, idToken, audience string, p Provider) (*models.ExternalIdentity, error) {
	claims := &idTokenClaims{}

	var fetchErr error
	token, err := jwt.ParseWithClaims(idToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid in token header")
		}

		keys, err := v.cache.Keys(ctx, p.JwksURL)
		if err != nil {
			fetchErr = err
			return nil, err
		}

		// An unknown kid after a (possibly forced) refresh means the token
		// was not signed by this provider's current or cached keys.
		key, ok := keys[kid]
		if !ok {
			return nil, fmt.Errorf("no key matches kid %q", kid)
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		if fetchErr != nil && errors.Is(fetchErr, common.ErrUpstreamUnavailable) {
			return nil, fetchErr
		}
		return nil, common.ErrInvalidToken
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}

	// Claims are validated only after the signature held, so a forged token
	// never reaches this point.
	if len(claims.Audience) != 1 || claims.Audience[0] != audience {
		return nil, common.ErrInvalidToken
	}
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return nil, common.ErrInvalidToken
	}
	if !slices.Contains(p.Issuers, claims.Issuer) {
		return nil, common.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return &models.ExternalIdentity{
		Provider: p.Name,
		Sub:      claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
	}, nil
}
