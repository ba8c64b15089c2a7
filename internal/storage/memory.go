package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mindwell/stress-engine/internal/models"
)

// MemoryRepository is an in-memory Repository used by tests and by
// local development when no database is available. It mirrors the
// Postgres implementation's contract, including nil results for
// missing rows.
type MemoryRepository struct {
	mu          sync.RWMutex
	assessments map[string]*models.StressAssessment
	patterns    map[string]*models.StressPattern
	clients     map[string]*models.ApiClient
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		assessments: make(map[string]*models.StressAssessment),
		patterns:    make(map[string]*models.StressPattern),
		clients:     make(map[string]*models.ApiClient),
	}
}

// CreateAssessment stores a new check-in record
func (r *MemoryRepository) CreateAssessment(ctx context.Context, a *models.StressAssessment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.assessments[a.ID]; exists {
		return fmt.Errorf("assessment already exists: %s", a.ID)
	}

	cp := *a
	r.assessments[a.ID] = &cp
	return nil
}

// GetAssessment retrieves a check-in by ID
func (r *MemoryRepository) GetAssessment(ctx context.Context, id string) (*models.StressAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.assessments[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

// UpdateEffectiveness records the user's routine rating on a check-in
func (r *MemoryRepository) UpdateEffectiveness(ctx context.Context, id string, rating int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.assessments[id]
	if !ok {
		return fmt.Errorf("assessment not found: %s", id)
	}
	a.RoutineEffectiveness = &rating
	return nil
}

// ListAssessments returns a user's check-ins, most recent first
func (r *MemoryRepository) ListAssessments(ctx context.Context, userID string, limit, offset int) ([]*models.StressAssessment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []*models.StressAssessment
	for _, a := range r.assessments {
		if a.UserID == userID {
			cp := *a
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset > 0 {
		if offset >= len(all) {
			return nil, nil
		}
		all = all[offset:]
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// UpsertPattern stores the latest pattern snapshot for a user
func (r *MemoryRepository) UpsertPattern(ctx context.Context, p *models.StressPattern) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *p
	r.patterns[p.UserID] = &cp
	return nil
}

// GetPattern retrieves the stored pattern snapshot for a user
func (r *MemoryRepository) GetPattern(ctx context.Context, userID string) (*models.StressPattern, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.patterns[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// ListActiveUserIDs returns users with at least one check-in since the
// given time
func (r *MemoryRepository) ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, a := range r.assessments {
		if !a.CreatedAt.Before(since) && !seen[a.UserID] {
			seen[a.UserID] = true
			ids = append(ids, a.UserID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AddClient registers an API client for lookup by key
func (r *MemoryRepository) AddClient(c *models.ApiClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ApiKey] = c
}

// GetClientByApiKey retrieves an API client by its key
func (r *MemoryRepository) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[apiKey]
	if !ok {
		return nil, nil
	}
	return c, nil
}

// UpdateClientLastUsed updates the last_used_at timestamp for a client
func (r *MemoryRepository) UpdateClientLastUsed(ctx context.Context, apiKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[apiKey]; ok {
		now := time.Now()
		c.LastUsedAt = &now
	}
	return nil
}

// Ping always succeeds
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}
