// Package application contains use-case orchestration services.
package application

import (
	"sync"

	"github.com/ericfisherdev/mergeboard/internal/domain/port/driven"
)

// ClientProvider enables runtime hot-swap of the GitHub client. It holds
// a mutex-protected reference to the current driven.GitHubClient and the
// authenticated viewer's login, so credential updates take effect
// without restarting the process.
type ClientProvider struct {
	mu     sync.RWMutex
	client driven.GitHubClient
	login  string
}

// NewClientProvider creates a provider with the given initial client and
// viewer login. client may be nil when no credential is available at
// startup.
func NewClientProvider(client driven.GitHubClient, login string) *ClientProvider {
	return &ClientProvider{
		client: client,
		login:  login,
	}
}

// Get returns the current GitHub client. Callers must check for nil if
// the provider was created without an initial credential.
func (p *ClientProvider) Get() driven.GitHubClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// Login returns the viewer login associated with the current client.
func (p *ClientProvider) Login() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.login
}

// Replace swaps the current client and login. Used when the credential
// is saved or deleted; the next Get returns the new values.
func (p *ClientProvider) Replace(client driven.GitHubClient, login string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = client
	p.login = login
}

// HasClient reports whether a non-nil client is currently held.
func (p *ClientProvider) HasClient() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}
