package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domainauth "github.com/brightmarket/identity-api/internal/domain/auth"
	"github.com/brightmarket/identity-api/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.UserStore         = (*MemoryUserStore)(nil)
	_ ports.FederatedProvider = (*MockFederatedProvider)(nil)
)

// MemoryUserStore is a map-backed user store for unit tests. Failure toggles
// let tests simulate an unreachable or misbehaving store.
type MemoryUserStore struct {
	mu    sync.Mutex
	users map[string]domainauth.Identity // keyed by id

	// Failure toggles. When set, the corresponding operation fails.
	FailPing   bool
	FailFind   bool
	FailInsert bool
	FailUpdate bool

	// InsertErr overrides the generic insert failure, e.g. to simulate a
	// duplicate-email race with domainauth.ErrEmailExists.
	InsertErr error

	PingDelay time.Duration
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]domainauth.Identity)}
}

// Seed inserts identities directly, bypassing failure toggles.
func (m *MemoryUserStore) Seed(identities ...domainauth.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range identities {
		m.users[id.ID] = id
	}
}

// Get returns a stored identity by id, for test assertions.
func (m *MemoryUserStore) Get(id string) (domainauth.Identity, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	return u, ok
}

func (m *MemoryUserStore) FindByEmail(_ context.Context, email string) (*domainauth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFind {
		return nil, errors.New("store unavailable")
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			out := u
			return &out, nil
		}
	}
	return nil, domainauth.ErrIdentityNotFound
}

func (m *MemoryUserStore) FindByLogin(_ context.Context, login string) (*domainauth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFind {
		return nil, errors.New("store unavailable")
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, login) || u.Name == login {
			out := u
			return &out, nil
		}
	}
	return nil, domainauth.ErrIdentityNotFound
}

func (m *MemoryUserStore) Insert(_ context.Context, identity *domainauth.Identity) (*domainauth.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return nil, m.InsertErr
	}
	if m.FailInsert {
		return nil, errors.New("store unavailable")
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, identity.Email) {
			return nil, domainauth.ErrEmailExists
		}
	}
	stored := *identity
	m.users[stored.ID] = stored
	out := stored
	return &out, nil
}

func (m *MemoryUserStore) Update(_ context.Context, id string, upd ports.UserUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdate {
		return errors.New("store unavailable")
	}
	u, ok := m.users[id]
	if !ok {
		return domainauth.ErrIdentityNotFound
	}
	if upd.Provider != nil {
		u.Provider = *upd.Provider
	}
	if upd.LastLoginAt != nil {
		u.LastLoginAt = *upd.LastLoginAt
	}
	u.UpdatedAt = upd.UpdatedAt
	m.users[id] = u
	return nil
}

func (m *MemoryUserStore) Ping(ctx context.Context) error {
	if m.PingDelay > 0 {
		select {
		case <-time.After(m.PingDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPing {
		return errors.New("store unavailable")
	}
	return nil
}

// MockFederatedProvider simulates an IdP for tests with deterministic
// state/nonce handling.
type MockFederatedProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Profile, error)

	// Deterministic values for predictable testing
	AuthURL        string
	DefaultProfile domainauth.Profile

	callCount int
}

// NewMockFederatedProvider creates a MockFederatedProvider with sensible defaults.
func NewMockFederatedProvider() *MockFederatedProvider {
	return &MockFederatedProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultProfile: domainauth.Profile{
			Email:             "mock.user@example.com",
			Name:              "Mock User",
			Provider:          domainauth.FederatedProviderName("mock"),
			ProviderAccountID: "mock-account-1",
		},
	}
}

func (m *MockFederatedProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}

	m.callCount++
	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	state := fmt.Sprintf("state-%d", m.callCount)
	nonce := fmt.Sprintf("nonce-%d", m.callCount)
	return authURL, state, nonce, nil
}

func (m *MockFederatedProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Profile, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	profile := m.DefaultProfile
	if profile.Email == "" {
		profile.Email = "mock.user@example.com"
	}
	return profile, nil
}
