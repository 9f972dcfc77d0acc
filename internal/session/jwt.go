package session

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// subjectIdentity is the trivial Identity every successful token
// validation produces: a session authenticated as nothing more than a
// validated subject string.
type subjectIdentity string

func (s subjectIdentity) Subject() string { return string(s) }

// NewIdentity wraps subject as an Identity, for callers (Impersonate,
// tests) that already hold a trusted subject string.
func NewIdentity(subject string) Identity { return subjectIdentity(subject) }

// JWTConfig holds the session identity layer's token validation settings:
// an HS256 shared secret for dev/internal tokens, or an upstream IdP's
// issuer/JWKS for RS256 tokens.
type JWTConfig struct {
	HS256Secret string
	Issuer      string
	JWKSURL     string
	Audience    string
}

// jwksCache caches an upstream IdP's RSA signing keys by kid, refreshing
// on a TTL or when an unknown kid is seen (key rotation).
type jwksCache struct {
	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	lastFetch  time.Time
	cacheTTL   time.Duration
	jwksURL    string
	httpClient *http.Client
}

type jwksResponse struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func newJWKSCache(url string) *jwksCache {
	return &jwksCache{
		keys:       make(map[string]*rsa.PublicKey),
		cacheTTL:   time.Hour,
		jwksURL:    url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *jwksCache) fetch(forceRefresh bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !forceRefresh && time.Since(c.lastFetch) < c.cacheTTL && len(c.keys) > 0 {
		return nil
	}

	resp, err := c.httpClient.Get(c.jwksURL)
	if err != nil {
		return fmt.Errorf("fetching jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading jwks response: %w", err)
	}

	var parsed jwksResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("parsing jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, k := range parsed.Keys {
		if k.Kty != "RSA" || k.Use != "sig" {
			continue
		}
		nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			log.Warn().Err(err).Str("kid", k.Kid).Msg("decoding jwks modulus")
			continue
		}
		eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			log.Warn().Err(err).Str("kid", k.Kid).Msg("decoding jwks exponent")
			continue
		}
		var e int
		for _, b := range eBytes {
			e = e<<8 | int(b)
		}
		keys[k.Kid] = &rsa.PublicKey{N: new(big.Int).SetBytes(nBytes), E: e}
	}
	if len(keys) == 0 {
		return errors.New("no usable RSA signing keys in jwks")
	}

	c.keys = keys
	c.lastFetch = time.Now()
	return nil
}

func (c *jwksCache) key(kid string) (*rsa.PublicKey, error) {
	c.mu.RLock()
	expired := time.Since(c.lastFetch) >= c.cacheTTL
	c.mu.RUnlock()
	if expired {
		if err := c.fetch(false); err != nil {
			log.Warn().Err(err).Msg("refreshing expired jwks cache, using stale keys")
		}
	}

	c.mu.RLock()
	k, ok := c.keys[kid]
	c.mu.RUnlock()
	if ok {
		return k, nil
	}

	if err := c.fetch(true); err != nil {
		return nil, fmt.Errorf("fetching jwks for unknown kid %s: %w", kid, err)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if k, ok := c.keys[kid]; ok {
		return k, nil
	}
	return nil, fmt.Errorf("kid %s not found in jwks even after refresh", kid)
}

// Authenticator validates bearer tokens into an Identity, generalized from
// the teacher's internal/auth ValidateToken/Middleware pair (HS256
// dev/internal tokens plus RS256 upstream IdP tokens resolved through a
// cached JWKS), minus the teacher's Postgres app_user upsert — a point
// store's Identity is the validated subject itself, nothing more.
type Authenticator struct {
	cfg  JWTConfig
	jwks *jwksCache
}

// NewAuthenticator builds an Authenticator from cfg, pre-warming the JWKS
// cache when an upstream IdP is configured.
func NewAuthenticator(cfg JWTConfig) *Authenticator {
	a := &Authenticator{cfg: cfg}
	if cfg.JWKSURL != "" {
		a.jwks = newJWKSCache(cfg.JWKSURL)
		if err := a.jwks.fetch(false); err != nil {
			log.Warn().Err(err).Msg("pre-fetching jwks failed, will retry on first request")
		}
	}
	return a
}

// Authenticate validates tokenString and returns the Identity it carries.
func (a *Authenticator) Authenticate(tokenString string) (Identity, error) {
	if tokenString == "" {
		return nil, errors.New("token is empty")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA:
			if a.jwks == nil {
				return nil, errors.New("no jwks configured for RS256 tokens")
			}
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid in token header")
			}
			return a.jwks.key(kid)
		case *jwt.SigningMethodHMAC:
			if a.cfg.HS256Secret == "" {
				return nil, errors.New("no hs256 secret configured")
			}
			return []byte(a.cfg.HS256Secret), nil
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("validating token: %w", err)
	}

	if a.cfg.Issuer != "" {
		if iss, _ := claims["iss"].(string); iss != a.cfg.Issuer {
			return nil, fmt.Errorf("unexpected issuer %q", iss)
		}
	}
	if a.cfg.Audience != "" && !audienceMatches(claims["aud"], a.cfg.Audience) {
		return nil, fmt.Errorf("unexpected audience %v", claims["aud"])
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("missing sub claim")
	}
	return subjectIdentity(sub), nil
}

func audienceMatches(aud interface{}, want string) bool {
	switch v := aud.(type) {
	case string:
		return v == want
	case []interface{}:
		for _, a := range v {
			if s, ok := a.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}
