// Package memory implementa UserRepository in-process, para desarrollo y tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vantadev/readiq/internal/store/core"
)

type Store struct {
	mu      sync.RWMutex
	byID    map[string]*core.User
	byEmail map[string]string // email -> id
}

func New() *Store {
	return &Store{
		byID:    make(map[string]*core.User),
		byEmail: make(map[string]string),
	}
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*core.User, error) {
	return s.findBy(func(u *core.User) bool { return googleID != "" && u.GoogleID == googleID })
}

func (s *Store) GetByMicrosoftID(ctx context.Context, microsoftID string) (*core.User, error) {
	return s.findBy(func(u *core.User) bool { return microsoftID != "" && u.MicrosoftID == microsoftID })
}

func (s *Store) Create(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return core.ErrConflict
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.Email = email
	u.CreatedAt = now
	u.UpdatedAt = now

	s.byID[u.ID] = cloneUser(u)
	s.byEmail[email] = u.ID
	return nil
}

func (s *Store) Update(ctx context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.byID[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()

	// Mantener índice por email ante cambios
	if old.Email != strings.ToLower(u.Email) {
		delete(s.byEmail, old.Email)
		u.Email = strings.ToLower(u.Email)
		s.byEmail[u.Email] = u.ID
	}
	s.byID[u.ID] = cloneUser(u)
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) findBy(match func(*core.User) bool) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.byID {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, core.ErrNotFound
}

func cloneUser(u *core.User) *core.User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.PasswordHistory = append(cp.PasswordHistory[:0:0], u.PasswordHistory...)
	return &cp
}
