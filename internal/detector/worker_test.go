package detector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mindwell/stress-engine/internal/engine"
	"github.com/mindwell/stress-engine/internal/models"
	"github.com/mindwell/stress-engine/internal/storage"
)

type captureNotifier struct {
	mu      sync.Mutex
	updates []string
}

func (n *captureNotifier) PatternUpdated(userID string, p *models.StressPattern) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, userID)
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.updates)
}

func seedAssessments(t *testing.T, store storage.Repository, userID string, n int) {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	for i := 0; i < n; i++ {
		a := &models.StressAssessment{
			ID:            uuid.New().String(),
			UserID:        userID,
			Workload:      5,
			Deadlines:     5,
			Concentration: 5,
			Sleep:         5,
			StressScore:   engine.Score(5, 5, 5, 5, nil),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.CreateAssessment(context.Background(), a); err != nil {
			t.Fatalf("CreateAssessment failed: %v", err)
		}
	}
}

func TestRecomputeUserStoresPattern(t *testing.T) {
	store := storage.NewMemoryRepository()
	seedAssessments(t, store, "user-1", 5)

	w := NewWorker(store, nil, 8, time.Minute)
	notifier := &captureNotifier{}
	w.SetNotifier(notifier)

	p, err := w.RecomputeUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("RecomputeUser failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a pattern for 5 check-ins")
	}
	if p.UserID != "user-1" {
		t.Errorf("pattern user = %q", p.UserID)
	}
	if p.LastUpdated.IsZero() {
		t.Error("lastUpdated not set")
	}

	stored, err := store.GetPattern(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetPattern failed: %v", err)
	}
	if stored == nil {
		t.Fatal("pattern not persisted")
	}

	if notifier.count() != 1 {
		t.Errorf("notifier called %d times, want 1", notifier.count())
	}
}

func TestRecomputeUserInsufficientHistory(t *testing.T) {
	store := storage.NewMemoryRepository()
	seedAssessments(t, store, "user-1", 2)

	w := NewWorker(store, nil, 8, time.Minute)

	p, err := w.RecomputeUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("RecomputeUser failed: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil pattern for 2 check-ins, got %+v", p)
	}

	stored, _ := store.GetPattern(context.Background(), "user-1")
	if stored != nil {
		t.Error("no pattern should be persisted below the history minimum")
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	store := storage.NewMemoryRepository()
	w := NewWorker(store, nil, 2, time.Minute)

	// Worker not started: the queue fills and further requests drop.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			w.Enqueue("user-1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}

func TestWorkerProcessesQueue(t *testing.T) {
	store := storage.NewMemoryRepository()
	seedAssessments(t, store, "user-1", 4)

	w := NewWorker(store, nil, 8, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	w.Enqueue("user-1")

	deadline := time.After(2 * time.Second)
	for {
		p, err := store.GetPattern(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("GetPattern failed: %v", err)
		}
		if p != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("pattern not computed from queued request")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSweepCoversActiveUsers(t *testing.T) {
	store := storage.NewMemoryRepository()
	seedAssessments(t, store, "user-1", 3)
	seedAssessments(t, store, "user-2", 3)

	w := NewWorker(store, nil, 8, time.Hour)
	w.sweep(context.Background())

	for _, userID := range []string{"user-1", "user-2"} {
		p, err := store.GetPattern(context.Background(), userID)
		if err != nil {
			t.Fatalf("GetPattern failed: %v", err)
		}
		if p == nil {
			t.Errorf("sweep did not recompute pattern for %s", userID)
		}
	}
}
