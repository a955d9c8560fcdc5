package auth

import (
	"context"
	"encoding/json"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const verifiedTokenCacheSize = 10 * 1024 * 1024 // 10 MB

// CachedVerifier remembers already verified tokens for a while, so that
// repeated requests skip the identity provider round trip.
type CachedVerifier struct {
	inner TokenVerifier
	cache *freecache.Cache
	ttl   time.Duration
}

func NewCachedVerifier(inner TokenVerifier, ttl time.Duration) *CachedVerifier {
	return &CachedVerifier{
		inner: inner,
		cache: freecache.NewCache(verifiedTokenCacheSize),
		ttl:   ttl,
	}
}

func (v *CachedVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, ErrMissingToken
	}

	key := []byte(token)
	if cached, err := v.cache.Get(key); err == nil {
		var p Principal
		if err := json.Unmarshal(cached, &p); err == nil {
			return &p, nil
		}
		log.Errorf("cached verifier: unmarshal cached principal: %s", err)
	}

	principal, err := v.inner.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	principalBytes, err := json.Marshal(principal)
	if err != nil {
		log.Errorf("cached verifier: marshal principal: %s", err)
		return principal, nil
	}
	if err := v.cache.Set(key, principalBytes, int(v.ttl.Seconds())); err != nil {
		log.Tracef("cached verifier: cache set: %s", err)
	}

	return principal, nil
}
