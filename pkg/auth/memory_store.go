package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory UserStore and TokenStore for tests and local
// development. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]User
	byEmail map[string]uuid.UUID
	tokens  map[string]VerificationToken
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[uuid.UUID]User),
		byEmail: make(map[string]uuid.UUID),
		tokens:  make(map[string]VerificationToken),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, user User) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return nil, ErrEmailAlreadyExists
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID

	u := user
	return &u, nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := user
	return &u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, ErrUserNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *MemoryStore) UpdateProfile(_ context.Context, id uuid.UUID, params UpdateProfileParams) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.Image != nil {
		user.Image = *params.Image
	}
	if params.Email != nil && *params.Email != user.Email {
		if other, taken := s.byEmail[*params.Email]; taken && other != id {
			return nil, ErrEmailAlreadyExists
		}
		delete(s.byEmail, user.Email)
		user.Email = *params.Email
		user.EmailVerified = nil
		s.byEmail[user.Email] = id
	}
	s.users[id] = user

	u := user
	return &u, nil
}

func (s *MemoryStore) MarkEmailVerified(_ context.Context, id uuid.UUID, verifiedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrUserNotFound
	}
	t := verifiedAt
	user.EmailVerified = &t
	s.users[id] = user
	return nil
}

func (s *MemoryStore) Save(_ context.Context, token VerificationToken) error {
	if token.Token == "" {
		return fmt.Errorf("%w: empty token", ErrFailedToStore)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, existing := range s.tokens {
		if existing.Identifier == token.Identifier {
			delete(s.tokens, key)
		}
	}
	s.tokens[token.Token] = token
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (*VerificationToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vt, ok := s.tokens[token]
	if !ok {
		return nil, ErrTokenNotFound
	}
	delete(s.tokens, token)

	t := vt
	return &t, nil
}

func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	now := time.Now()
	for key, vt := range s.tokens {
		if now.After(vt.ExpiresAt) {
			delete(s.tokens, key)
			n++
		}
	}
	return n, nil
}
