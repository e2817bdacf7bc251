package auth

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrUnknownKey = errors.New("signing key not published by the auth provider")

// KeySet is the document served at a JWKS endpoint.
type KeySet struct {
	Keys []PublishedKey `json:"keys"`
}

// PublishedKey is one RSA entry of a KeySet. Other key types are ignored.
type PublishedKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (k PublishedKey) rsaKey() (*rsa.PublicKey, error) {
	n, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("key %s: modulus: %w", k.Kid, err)
	}
	e, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("key %s: exponent: %w", k.Kid, err)
	}
	exp := new(big.Int).SetBytes(e)
	if !exp.IsInt64() || exp.Int64() < 3 {
		return nil, fmt.Errorf("key %s: bad exponent", k.Kid)
	}
	return &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: int(exp.Int64())}, nil
}

// Provider resolves RS256 verification keys by kid. Keys are decoded once per
// fetch, and an unknown kid refetches the set at most once per refreshEvery.
type Provider struct {
	url          string
	client       *http.Client
	refreshEvery time.Duration

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewProvider(jwksURL string) *Provider {
	return &Provider{
		url:          jwksURL,
		client:       &http.Client{Timeout: 5 * time.Second},
		refreshEvery: time.Minute,
		keys:         make(map[string]*rsa.PublicKey),
	}
}

// KeyFunc plugs the provider into jwt.Parse.
func (p *Provider) KeyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	kid, _ := token.Header["kid"].(string)
	if kid == "" {
		return nil, errors.New("token has no kid header")
	}
	return p.PublicKey(kid)
}

func (p *Provider) PublicKey(kid string) (*rsa.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if key, ok := p.keys[kid]; ok {
		return key, nil
	}
	if !p.fetchedAt.IsZero() && time.Since(p.fetchedAt) < p.refreshEvery {
		return nil, ErrUnknownKey
	}
	if err := p.refresh(); err != nil {
		return nil, err
	}
	if key, ok := p.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrUnknownKey
}

// refresh replaces the cached keys. Callers hold p.mu.
func (p *Provider) refresh() error {
	if p.url == "" {
		return errors.New("jwks url not configured")
	}
	resp, err := p.client.Get(p.url)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var set KeySet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(set.Keys))
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		key, err := k.rsaKey()
		if err != nil {
			continue
		}
		keys[k.Kid] = key
	}
	p.keys = keys
	p.fetchedAt = time.Now()
	return nil
}
