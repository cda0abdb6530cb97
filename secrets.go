package auth

import (
	"os"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// SecretKind selects which signing secret a token class uses
type SecretKind string

const (
	// SecretAccess signs access, reset, and verification tokens
	SecretAccess SecretKind = "access"
	// SecretRefresh signs refresh tokens
	SecretRefresh SecretKind = "refresh"
)

// SecretSource resolves the raw secret value for a kind
type SecretSource func(kind SecretKind) string

// EnvSecretSource reads secrets from the conventional environment variables
func EnvSecretSource() SecretSource {
	return func(kind SecretKind) string {
		switch kind {
		case SecretRefresh:
			return os.Getenv("JWT_REFRESH_SECRET")
		default:
			return os.Getenv("JWT_SECRET_KEY")
		}
	}
}

// StaticSecretSource serves fixed values, mostly useful in tests
func StaticSecretSource(access, refresh string) SecretSource {
	return func(kind SecretKind) string {
		if kind == SecretRefresh {
			return refresh
		}
		return access
	}
}

// SecretProvider caches signing secrets per process. Each kind is resolved
// once through the source; an empty value is a fatal configuration error.
type SecretProvider struct {
	mu     sync.RWMutex
	source SecretSource
	cache  map[SecretKind][]byte
	logger Logger
}

// NewSecretProvider creates a provider backed by the given source
func NewSecretProvider(source SecretSource) *SecretProvider {
	return &SecretProvider{
		source: source,
		cache:  map[SecretKind][]byte{},
		logger: defLogger{},
	}
}

func (p *SecretProvider) WithLogger(logger Logger) *SecretProvider {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// Get returns the secret for the kind, resolving and caching it on first use
func (p *SecretProvider) Get(kind SecretKind) ([]byte, error) {
	p.mu.RLock()
	if secret, ok := p.cache[kind]; ok {
		p.mu.RUnlock()
		return secret, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	if secret, ok := p.cache[kind]; ok {
		return secret, nil
	}

	value := p.source(kind)
	if value == "" {
		p.logger.Error("secret provider resolved an empty %s secret", kind)
		return nil, ErrSecretUndefined.Clone().
			WithMetadata(map[string]any{"kind": string(kind)})
	}

	secret := []byte(value)
	p.cache[kind] = secret
	return secret, nil
}

// Rotate replaces the cached value for a kind
func (p *SecretProvider) Rotate(kind SecretKind, value string) error {
	if value == "" {
		return goerrors.New("cannot rotate to an empty secret", goerrors.CategoryBadInput).
			WithMetadata(map[string]any{"kind": string(kind)})
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[kind] = []byte(value)
	return nil
}

// Clear drops every cached secret so the next Get resolves fresh values
func (p *SecretProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = map[SecretKind][]byte{}
}
