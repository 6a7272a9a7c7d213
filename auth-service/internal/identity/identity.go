package identity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidEmail       = errors.New("email must not be empty")
	ErrWeakPassword       = errors.New("password too short")
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// IdentityProvider abstracts the account store. The HTTP layer only cares
// about register/login outcomes; token issuance and session handling live
// behind whatever implementation is plugged in.
type IdentityProvider interface {
	Register(ctx context.Context, email, name, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	Roles(ctx context.Context, userID string) ([]string, error)
}

// RoleCustomer is assigned to every new account.
const RoleCustomer = "customer"

type account struct {
	user  User
	hash  []byte
	roles []string
}

// InMemoryProvider is the development and test implementation.
type InMemoryProvider struct {
	mu       sync.RWMutex
	accounts map[string]account
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{accounts: make(map[string]account)}
}

func (p *InMemoryProvider) Register(_ context.Context, email, name, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return nil, ErrEmailTaken
	}

	user := User{ID: uuid.NewString(), Email: email, Name: name}
	p.accounts[email] = account{user: user, hash: hash, roles: []string{RoleCustomer}}
	return &user, nil
}

func (p *InMemoryProvider) Login(_ context.Context, email, password string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	p.mu.RLock()
	acc, exists := p.accounts[email]
	p.mu.RUnlock()

	if !exists {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	user := acc.user
	return &user, nil
}

func (p *InMemoryProvider) Roles(_ context.Context, userID string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, acc := range p.accounts {
		if acc.user.ID == userID {
			return append([]string(nil), acc.roles...), nil
		}
	}
	return nil, ErrInvalidCredentials
}
