package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mindwell/stress-engine/internal/cache"
	"github.com/mindwell/stress-engine/internal/detector"
	"github.com/mindwell/stress-engine/internal/engine"
	"github.com/mindwell/stress-engine/internal/models"
	"github.com/mindwell/stress-engine/internal/storage"
)

// Common errors
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrValidation         = errors.New("invalid submission")
)

// Service defines the interface for stress check-in operations
type Service interface {
	Submit(ctx context.Context, userID string, req *models.SubmitRequest) (*models.SubmitResult, error)
	History(ctx context.Context, userID string, limit, offset int) ([]*models.StressAssessment, error)
	Patterns(ctx context.Context, userID string) (*models.StressPattern, error)
	Stats(ctx context.Context, userID string) (*models.StressStats, error)
	RateRoutine(ctx context.Context, userID, assessmentID string, rating int) error
	Ping(ctx context.Context) error
}

// StressService implements Service on top of the repository, the
// pattern cache and the background detector.
type StressService struct {
	repo     storage.Repository
	cache    *cache.PatternCache
	detector *detector.Worker
}

// NewStressService creates a new stress service
func NewStressService(repo storage.Repository, patternCache *cache.PatternCache, w *detector.Worker) *StressService {
	return &StressService{
		repo:     repo,
		cache:    patternCache,
		detector: w,
	}
}

// Ping checks downstream connectivity
func (s *StressService) Ping(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Submit scores a check-in, generates its routine and insights,
// persists it, and queues a pattern recompute. Routine and insight
// generation degrade to fixed defaults instead of failing the
// submission; only a persistence failure is returned to the caller.
func (s *StressService) Submit(ctx context.Context, userID string, req *models.SubmitRequest) (*models.SubmitResult, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	a := &models.StressAssessment{
		ID:            uuid.New().String(),
		UserID:        userID,
		Workload:      req.Workload,
		Deadlines:     req.Deadlines,
		Concentration: req.Concentration,
		Sleep:         req.Sleep,
		EmotionTags:   req.EmotionTags,
		StressScore:   engine.Score(req.Workload, req.Deadlines, req.Concentration, req.Sleep, req.EmotionTags),
		CreatedAt:     time.Now().UTC(),
	}

	pattern := s.loadPattern(ctx, userID)

	a.RecommendedRoutine = safeRoutine(a, pattern)
	insights := safeInsights(a, pattern)

	if err := s.repo.CreateAssessment(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to save check-in: %w", err)
	}

	if s.detector != nil {
		s.detector.Enqueue(userID)
	}

	slog.Info("check-in recorded",
		"user_id", userID,
		"log_id", a.ID,
		"score", a.StressScore,
		"tier", a.RecommendedRoutine.Type,
	)

	return &models.SubmitResult{
		StressScore:        a.StressScore,
		RecommendedRoutine: a.RecommendedRoutine,
		Insights:           insights,
		LogID:              a.ID,
	}, nil
}

// History returns a user's check-ins, most recent first
func (s *StressService) History(ctx context.Context, userID string, limit, offset int) ([]*models.StressAssessment, error) {
	return s.repo.ListAssessments(ctx, userID, limit, offset)
}

// Patterns returns the user's pattern snapshot, computing one on the
// spot when nothing is stored yet. Returns nil when the user has too
// few check-ins for analysis.
func (s *StressService) Patterns(ctx context.Context, userID string) (*models.StressPattern, error) {
	if p := s.loadPattern(ctx, userID); p != nil {
		return p, nil
	}

	if s.detector == nil {
		return nil, nil
	}
	return s.detector.RecomputeUser(ctx, userID)
}

// Stats summarizes the user's recent activity for the dashboard
func (s *StressService) Stats(ctx context.Context, userID string) (*models.StressStats, error) {
	history, err := s.repo.ListAssessments(ctx, userID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	stats := &models.StressStats{}
	if len(history) == 0 {
		return stats, nil
	}

	latest := history[0]
	score := latest.StressScore
	created := latest.CreatedAt
	stats.LatestScore = &score
	stats.LatestCheck = &created

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7)
	weeklySum := 0
	for _, a := range history {
		if a.CreatedAt.After(weekAgo) {
			stats.WeeklyChecks++
			weeklySum += a.StressScore
		}
	}
	if stats.WeeklyChecks > 0 {
		avg := int(float64(weeklySum)/float64(stats.WeeklyChecks) + 0.5)
		stats.WeeklyAvg = &avg
	}

	stats.Streak = checkInStreak(history, now)
	return stats, nil
}

// RateRoutine records the user's effectiveness rating on one of their
// own check-ins
func (s *StressService) RateRoutine(ctx context.Context, userID, assessmentID string, rating int) error {
	if rating < 0 || rating > 10 {
		return fmt.Errorf("%w: effectiveness must be between 0 and 10", ErrValidation)
	}

	a, err := s.repo.GetAssessment(ctx, assessmentID)
	if err != nil {
		return fmt.Errorf("failed to load check-in: %w", err)
	}
	if a == nil || a.UserID != userID {
		return ErrAssessmentNotFound
	}

	return s.repo.UpdateEffectiveness(ctx, assessmentID, rating)
}

// loadPattern resolves the stored pattern snapshot, preferring the
// cache. Lookup failures are logged and treated as no pattern.
func (s *StressService) loadPattern(ctx context.Context, userID string) *models.StressPattern {
	if s.cache != nil {
		if p := s.cache.Get(ctx, userID); p != nil {
			return p
		}
	}

	p, err := s.repo.GetPattern(ctx, userID)
	if err != nil {
		slog.Warn("pattern lookup failed", "user_id", userID, "error", err)
		return nil
	}
	if p == nil {
		return nil
	}

	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
	return p
}

func validateSubmission(req *models.SubmitRequest) error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"workload", req.Workload},
		{"deadlines", req.Deadlines},
		{"concentration", req.Concentration},
		{"sleep", req.Sleep},
	} {
		if f.value < 1 || f.value > 10 {
			return fmt.Errorf("%w: %s must be between 1 and 10", ErrValidation, f.name)
		}
	}

	for _, tag := range req.EmotionTags {
		if !tag.Valid() {
			return fmt.Errorf("%w: unknown emotion tag %q", ErrValidation, tag)
		}
	}

	return nil
}

// safeRoutine falls back to the default routine if generation panics.
// A check-in must never fail because personalization did.
func safeRoutine(a *models.StressAssessment, pattern *models.StressPattern) (r models.Routine) {
	userID := ""
	if a != nil {
		userID = a.UserID
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("routine generation failed", "user_id", userID, "panic", rec)
			r = engine.DefaultRoutine()
		}
	}()
	return engine.GenerateRoutine(a, pattern)
}

// safeInsights falls back to the default insights if generation panics
func safeInsights(a *models.StressAssessment, pattern *models.StressPattern) (insights []models.Insight) {
	userID := ""
	if a != nil {
		userID = a.UserID
	}
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("insight generation failed", "user_id", userID, "panic", rec)
			insights = engine.DefaultInsights()
		}
	}()
	return engine.GenerateInsights(a, pattern)
}

// checkInStreak counts consecutive calendar days with at least one
// check-in, ending today or yesterday. History is most recent first.
func checkInStreak(history []*models.StressAssessment, now time.Time) int {
	if len(history) == 0 {
		return 0
	}

	day := func(t time.Time) time.Time {
		y, m, d := t.Local().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}

	today := day(now)
	expected := today
	if day(history[0].CreatedAt).Before(today) {
		expected = today.AddDate(0, 0, -1)
	}

	streak := 0
	for _, a := range history {
		d := day(a.CreatedAt)
		if d.Equal(expected) {
			streak++
			expected = expected.AddDate(0, 0, -1)
			continue
		}
		if d.After(expected) {
			// Another check-in on an already counted day.
			continue
		}
		break
	}

	return streak
}
