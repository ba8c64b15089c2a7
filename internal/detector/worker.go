package detector

import (
	"context"
	"log/slog"
	"time"

	"github.com/mindwell/stress-engine/internal/cache"
	"github.com/mindwell/stress-engine/internal/engine"
	"github.com/mindwell/stress-engine/internal/models"
	"github.com/mindwell/stress-engine/internal/storage"
)

// Notifier receives fresh pattern snapshots after each recompute.
type Notifier interface {
	PatternUpdated(userID string, p *models.StressPattern)
}

// Worker recomputes pattern snapshots in the background. Submissions
// enqueue the user ID and carry on; a periodic sweep catches users
// whose enqueued recompute was dropped or lost to a crash.
type Worker struct {
	store         storage.Repository
	cache         *cache.PatternCache
	queue         chan string
	sweepInterval time.Duration
	notifier      Notifier
}

// NewWorker creates a new pattern detector worker
func NewWorker(store storage.Repository, patternCache *cache.PatternCache, queueSize int, sweepInterval time.Duration) *Worker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if sweepInterval <= 0 {
		sweepInterval = 15 * time.Minute
	}

	return &Worker{
		store:         store,
		cache:         patternCache,
		queue:         make(chan string, queueSize),
		sweepInterval: sweepInterval,
	}
}

// SetNotifier registers the receiver for recomputed snapshots.
// Must be called before Start.
func (w *Worker) SetNotifier(n Notifier) {
	w.notifier = n
}

// Enqueue requests a pattern recompute for a user. Never blocks: when
// the queue is full the request is dropped and the periodic sweep
// picks the user up later.
func (w *Worker) Enqueue(userID string) {
	select {
	case w.queue <- userID:
	default:
		slog.Warn("detector queue full, dropping recompute request", "user_id", userID)
	}
}

// Start begins the detector worker in a goroutine
func (w *Worker) Start(ctx context.Context) {
	go w.run(ctx)
}

// run is the main loop for the detector worker
func (w *Worker) run(ctx context.Context) {
	slog.Info("detector worker started", "sweep_interval", w.sweepInterval)

	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("detector worker stopped")
			return
		case userID := <-w.queue:
			if _, err := w.RecomputeUser(ctx, userID); err != nil {
				slog.Error("pattern recompute failed", "user_id", userID, "error", err)
			}
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep recomputes patterns for every user active in the last window
func (w *Worker) sweep(ctx context.Context) {
	slog.Debug("running detector sweep")

	since := time.Now().Add(-w.sweepInterval)
	userIDs, err := w.store.ListActiveUserIDs(ctx, since)
	if err != nil {
		slog.Error("failed to list active users", "error", err)
		return
	}

	if len(userIDs) == 0 {
		slog.Debug("no active users in sweep window")
		return
	}

	slog.Info("sweeping active users", "count", len(userIDs))

	for _, userID := range userIDs {
		if _, err := w.RecomputeUser(ctx, userID); err != nil {
			slog.Error("pattern recompute failed", "user_id", userID, "error", err)
		}
	}
}

// RecomputeUser rebuilds a user's pattern snapshot from recent history
// and stores it. Returns nil without error when the user has too few
// check-ins for analysis.
func (w *Worker) RecomputeUser(ctx context.Context, userID string) (*models.StressPattern, error) {
	history, err := w.store.ListAssessments(ctx, userID, engine.HistoryWindow, 0)
	if err != nil {
		return nil, err
	}

	p := engine.Detect(history)
	if p == nil {
		slog.Debug("not enough history for patterns", "user_id", userID, "count", len(history))
		return nil, nil
	}

	p.UserID = userID
	p.LastUpdated = time.Now().UTC()

	if err := w.store.UpsertPattern(ctx, p); err != nil {
		return nil, err
	}

	if w.cache != nil {
		w.cache.Set(ctx, p)
	}

	if w.notifier != nil {
		w.notifier.PatternUpdated(userID, p)
	}

	slog.Debug("pattern snapshot updated", "user_id", userID, "trend", p.Trend.Direction)
	return p, nil
}
