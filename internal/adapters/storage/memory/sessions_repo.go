package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vet-lab-report/internal/domain/intake"
)

type sessionRepo struct {
	mu   sync.RWMutex
	byID map[string]intake.Session
}

func NewSessionRepo() intake.Repository {
	return &sessionRepo{
		byID: make(map[string]intake.Session),
	}
}

func (r *sessionRepo) Create(ctx context.Context, s intake.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("session id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("session already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *sessionRepo) Update(ctx context.Context, s intake.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("session id required")
	}
	if _, exists := r.byID[s.ID]; !exists {
		return intake.ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *sessionRepo) Get(ctx context.Context, id string) (intake.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return intake.Session{}, intake.ErrNotFound
	}
	return s, nil
}

func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return intake.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *sessionRepo) List(ctx context.Context) ([]intake.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]intake.Session, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}

	// Orden estable por created_at asc
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out, nil
}
