// Package oauth verifies ID tokens issued by external identity providers
// (Google and Apple) against their published signing keys.
package oauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/common"
)

const (
	jwksTTL          = time.Hour
	jwksFetchTimeout = 10 * time.Second
)

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type keySet struct {
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// KeyCache caches each provider's published signing keys for an hour.
// The clock and fetch function are injectable so tests can control freshness
// and network behavior. One instance is shared by all verifications; a stale
// entry is refreshed on the next use and still served if the refresh fails.
type KeyCache struct {
	mu      sync.Mutex
	entries map[string]*keySet
	ttl     time.Duration
	now     func() time.Time
	fetch   func(ctx context.Context, url string) (map[string]*rsa.PublicKey, error)
}

// NewKeyCache constructs an empty cache with the default TTL, clock and
// HTTP fetcher.
func NewKeyCache() *KeyCache {
	return &KeyCache{
		entries: make(map[string]*keySet),
		ttl:     jwksTTL,
		now:     time.Now,
		fetch:   fetchKeys,
	}
}

// Keys returns the key set published at jwksURL, keyed by kid. A fresh cached
// entry is served without network access. An absent or stale entry triggers a
// fetch; if the fetch fails and a stale entry exists it is served anyway, and
// only a cold cache propagates common.ErrUpstreamUnavailable.
//
// Concurrent misses may fetch redundantly; the published key sets are public
// and eventually consistent, so last write wins.
func (c *KeyCache) Keys(ctx context.Context, jwksURL string) (map[string]*rsa.PublicKey, error) {
	c.mu.Lock()
	entry := c.entries[jwksURL]
	fresh := entry != nil && c.now().Sub(entry.fetchedAt) < c.ttl
	c.mu.Unlock()

	if fresh {
		return entry.keys, nil
	}

	keys, err := c.fetch(ctx, jwksURL)
	if err != nil {
		if entry != nil {
			// Stale fallback: a rotated-out key will simply not match.
			return entry.keys, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrUpstreamUnavailable, err)
	}

	c.mu.Lock()
	c.entries[jwksURL] = &keySet{keys: keys, fetchedAt: c.now()}
	c.mu.Unlock()

	return keys, nil
}

func fetchKeys(ctx context.Context, jwksURL string) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jwksURL, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: jwksFetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks fetch returned status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAPublicKey(k)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks document at %s contains no usable RSA keys", jwksURL)
	}

	return keys, nil
}

// parseRSAPublicKey converts a JWK's base64url modulus and exponent into an
// rsa.PublicKey.
func parseRSAPublicKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("failed to decode N: %w", err)
	}

	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("failed to decode E: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}
