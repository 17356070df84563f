package oauth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"
)

type discoveryDoc struct {
	Issuer  string `json:"issuer"`
	JWKSURI string `json:"jwks_uri"`
}

type jwk struct {
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"` // base64url
	E   string `json:"e"` // base64url
}

type jwkSet struct {
	Keys []jwk `json:"keys"`
}

// KeySource resuelve claves RSA de firma vía OIDC discovery + JWKS,
// con cache en memoria (discovery 24h, JWKS 1h, revalidación por ETag).
type KeySource struct {
	discoveryURL string
	http         *http.Client

	mu     sync.RWMutex
	disc   *discoveryDoc
	discAt time.Time

	jwks     *jwkSet
	jwksAt   time.Time
	jwksETag string
}

func NewKeySource(discoveryURL string) *KeySource {
	return &KeySource{
		discoveryURL: discoveryURL,
		http:         &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *KeySource) discovery(ctx context.Context) (*discoveryDoc, error) {
	s.mu.RLock()
	disc := s.disc
	stale := time.Since(s.discAt) > 24*time.Hour
	s.mu.RUnlock()
	if disc != nil && !stale {
		return disc, nil
	}

	req, _ := http.NewRequestWithContext(ctx, "GET", s.discoveryURL, nil)
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("discovery http %d", resp.StatusCode)
	}
	var dd discoveryDoc
	if err := json.NewDecoder(resp.Body).Decode(&dd); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.disc = &dd
	s.discAt = time.Now()
	s.mu.Unlock()
	return &dd, nil
}

func (s *KeySource) getJWKS(ctx context.Context, uri string) (*jwkSet, error) {
	s.mu.RLock()
	j := s.jwks
	age := time.Since(s.jwksAt)
	s.mu.RUnlock()
	if j != nil && age < time.Hour {
		return j, nil
	}

	req, _ := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if s.jwksETag != "" {
		req.Header.Set("If-None-Match", s.jwksETag)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		s.mu.Lock()
		out := s.jwks
		s.jwksAt = time.Now()
		s.mu.Unlock()
		return out, nil
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("jwks http %d", resp.StatusCode)
	}
	var set jwkSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.jwks = &set
	s.jwksAt = time.Now()
	s.jwksETag = resp.Header.Get("ETag")
	s.mu.Unlock()
	return &set, nil
}

// RSAKey devuelve la clave pública para el kid dado.
func (s *KeySource) RSAKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	disc, err := s.discovery(ctx)
	if err != nil {
		return nil, err
	}
	set, err := s.getJWKS(ctx, disc.JWKSURI)
	if err != nil {
		return nil, err
	}
	for _, k := range set.Keys {
		if k.Kid != kid || !strings.EqualFold(k.Kty, "RSA") {
			continue
		}
		nb, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, err
		}
		eb, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, err
		}
		e := 0
		for _, b := range eb {
			e = (e << 8) | int(b)
		}
		if e == 0 {
			e = 65537
		}
		return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
	}
	return nil, errors.New("kid not found")
}
