package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/helpdesk-agent/internal/domain"
	"github.com/bnema/helpdesk-agent/internal/ports"
)

type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
}

var _ ports.SessionStore = (*Store)(nil)

func New() *Store {
	return &Store{sessions: make(map[string]domain.Session)}
}

func (s *Store) Create(ctx context.Context, session domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.ID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionExists, session.ID)
	}
	s.sessions[session.ID] = session.Clone()

	return nil
}

func (s *Store) Get(ctx context.Context, id string) (domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return domain.Session{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	return session.Clone(), nil
}

func (s *Store) Update(ctx context.Context, id string, fn func(*domain.Session) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}

	updated := current.Clone()
	if err := fn(&updated); err != nil {
		return err
	}
	s.sessions[id] = updated.Clone()

	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session.Clone())
	}

	return out, nil
}
