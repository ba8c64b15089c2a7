package storage

import (
	"context"
	"time"

	"github.com/mindwell/stress-engine/internal/models"
)

// Repository defines the interface for stress check-in persistence
type Repository interface {
	// Assessments
	CreateAssessment(ctx context.Context, a *models.StressAssessment) error
	GetAssessment(ctx context.Context, id string) (*models.StressAssessment, error)
	UpdateEffectiveness(ctx context.Context, id string, rating int) error
	ListAssessments(ctx context.Context, userID string, limit, offset int) ([]*models.StressAssessment, error)

	// Patterns
	UpsertPattern(ctx context.Context, p *models.StressPattern) error
	GetPattern(ctx context.Context, userID string) (*models.StressPattern, error)
	ListActiveUserIDs(ctx context.Context, since time.Time) ([]string, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}
