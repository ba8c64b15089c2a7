package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mindwell/stress-engine/internal/catalog"
	"github.com/mindwell/stress-engine/internal/config"
	"github.com/mindwell/stress-engine/internal/detector"
	"github.com/mindwell/stress-engine/internal/models"
	"github.com/mindwell/stress-engine/internal/service"
	"github.com/mindwell/stress-engine/internal/storage"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*Server, *storage.MemoryRepository) {
	t.Helper()

	repo := storage.NewMemoryRepository()
	w := detector.NewWorker(repo, nil, 8, time.Hour)
	svc := service.NewStressService(repo, nil, w)

	exercises := catalog.NewLoader()
	exercises.Add(&models.Exercise{ID: "heart-calm", Name: "Heart Calm", Kind: "breathing", DefaultDuration: 5})
	exercises.Add(&models.Exercise{ID: "candle-focus", Name: "Candle Focus", Kind: "focus", DefaultDuration: 10})

	srv := NewServer(
		config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		config.AuthConfig{JWTSecret: testSecret},
		config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		svc,
		exercises,
		w,
		repo,
	)
	return srv, repo
}

func userToken(t *testing.T, srv *Server, userID string) string {
	t.Helper()
	token, err := srv.userAuth.IssueToken(userID, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	return token
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *apiError       `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v\nbody: %s", err, rec.Body.String())
	}
	if out != nil && resp.Data != nil {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			t.Fatalf("failed to decode data: %v\ndata: %s", err, resp.Data)
		}
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", rec.Code)
	}
}

func TestSubmitEndToEnd(t *testing.T) {
	srv, repo := newTestServer(t)
	token := userToken(t, srv, "user-1")

	req := models.SubmitRequest{
		Workload:      8,
		Deadlines:     8,
		Concentration: 3,
		Sleep:         3,
		EmotionTags:   []models.EmotionTag{models.EmotionAnxious, models.EmotionOverwhelmed},
	}

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", token, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201\nbody: %s", rec.Code, rec.Body.String())
	}

	var result models.SubmitResult
	decodeData(t, rec, &result)

	if result.StressScore != 72 {
		t.Errorf("score = %d, want 72", result.StressScore)
	}
	if result.RecommendedRoutine.Type != models.TierCalming {
		t.Errorf("tier = %q, want calming", result.RecommendedRoutine.Type)
	}
	if result.LogID == "" {
		t.Fatal("missing log id")
	}

	stored, _ := repo.GetAssessment(context.Background(), result.LogID)
	if stored == nil || stored.UserID != "user-1" {
		t.Errorf("check-in not persisted for user-1: %+v", stored)
	}
}

func TestSubmitRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	req := models.SubmitRequest{Workload: 5, Deadlines: 5, Concentration: 5, Sleep: 5}

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", "", req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", "not-a-token", req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status with garbage token = %d, want 401", rec.Code)
	}
}

func TestSubmitValidationError(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, srv, "user-1")

	req := models.SubmitRequest{Workload: 11, Deadlines: 5, Concentration: 5, Sleep: 5}

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", token, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHistoryAndStats(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, srv, "user-1")

	for i := 0; i < 3; i++ {
		req := models.SubmitRequest{Workload: 5, Deadlines: 5, Concentration: 5, Sleep: 5}
		if rec := doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", token, req); rec.Code != http.StatusCreated {
			t.Fatalf("submit %d failed: %d", i, rec.Code)
		}
	}

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/stress/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}

	var hist struct {
		History []models.StressAssessment `json:"history"`
		Total   int                       `json:"total"`
	}
	decodeData(t, rec, &hist)
	if hist.Total != 3 {
		t.Errorf("history total = %d, want 3", hist.Total)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/stress/stats", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}

	var stats models.StressStats
	decodeData(t, rec, &stats)
	if stats.WeeklyChecks != 3 {
		t.Errorf("weekly checks = %d, want 3", stats.WeeklyChecks)
	}
	if stats.Streak != 1 {
		t.Errorf("streak = %d, want 1", stats.Streak)
	}
}

func TestPatternsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, srv, "user-1")

	// Too little history: null patterns with a message.
	rec := doRequest(t, srv, http.MethodGet, "/api/v1/stress/patterns", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("patterns status = %d", rec.Code)
	}

	var empty struct {
		Patterns *models.StressPattern `json:"patterns"`
		Message  string                `json:"message"`
	}
	decodeData(t, rec, &empty)
	if empty.Patterns != nil {
		t.Errorf("expected null patterns, got %+v", empty.Patterns)
	}
	if empty.Message == "" {
		t.Error("expected explanatory message")
	}

	for i := 0; i < 3; i++ {
		req := models.SubmitRequest{Workload: 8, Deadlines: 8, Concentration: 3, Sleep: 3}
		if rec := doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", token, req); rec.Code != http.StatusCreated {
			t.Fatalf("submit %d failed: %d", i, rec.Code)
		}
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/stress/patterns", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("patterns status = %d", rec.Code)
	}

	var got struct {
		Patterns *models.StressPattern `json:"patterns"`
	}
	decodeData(t, rec, &got)
	if got.Patterns == nil {
		t.Fatal("expected patterns after 3 check-ins")
	}
	if got.Patterns.SleepConcentrationCorrelation.Total != 3 {
		t.Errorf("correlation total = %d, want 3", got.Patterns.SleepConcentrationCorrelation.Total)
	}
}

func TestRateRoutineEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, srv, "user-1")

	req := models.SubmitRequest{Workload: 5, Deadlines: 5, Concentration: 5, Sleep: 5}
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", token, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed: %d", rec.Code)
	}

	var result models.SubmitResult
	decodeData(t, rec, &result)

	rec = doRequest(t, srv, http.MethodPut, "/api/v1/stress/routine-effectiveness/"+result.LogID, token,
		models.EffectivenessRequest{Effectiveness: 4})
	if rec.Code != http.StatusOK {
		t.Errorf("rate status = %d, want 200\nbody: %s", rec.Code, rec.Body.String())
	}

	// Another user cannot rate it.
	otherToken := userToken(t, srv, "user-2")
	rec = doRequest(t, srv, http.MethodPut, "/api/v1/stress/routine-effectiveness/"+result.LogID, otherToken,
		models.EffectivenessRequest{Effectiveness: 4})
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-user rate status = %d, want 404", rec.Code)
	}

	// Out-of-range rating.
	rec = doRequest(t, srv, http.MethodPut, "/api/v1/stress/routine-effectiveness/"+result.LogID, token,
		models.EffectivenessRequest{Effectiveness: 11})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid rating status = %d, want 400", rec.Code)
	}
}

func TestExercisesEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	token := userToken(t, srv, "user-1")

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/exercises/", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("exercises status = %d", rec.Code)
	}

	var list struct {
		Exercises []models.Exercise `json:"exercises"`
		Total     int               `json:"total"`
	}
	decodeData(t, rec, &list)
	if list.Total != 2 {
		t.Errorf("exercise total = %d, want 2", list.Total)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/exercises/heart-calm", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("exercise status = %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/v1/exercises/no-such", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing exercise status = %d, want 404", rec.Code)
	}
}

func TestAdminSurface(t *testing.T) {
	srv, repo := newTestServer(t)

	repo.AddClient(&models.ApiClient{
		ID:          1,
		Name:        "ops-dashboard",
		ApiKey:      "sk_test_1234567890",
		IsActive:    true,
		CreatedAt:   time.Now(),
		Permissions: []string{"patterns:*"},
	})
	repo.AddClient(&models.ApiClient{
		ID:          2,
		Name:        "readonly",
		ApiKey:      "sk_test_readonly_1",
		IsActive:    true,
		CreatedAt:   time.Now(),
		Permissions: []string{},
	})

	// Seed enough history for a recompute.
	token := userToken(t, srv, "user-1")
	for i := 0; i < 3; i++ {
		req := models.SubmitRequest{Workload: 7, Deadlines: 7, Concentration: 4, Sleep: 4}
		if rec := doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", token, req); rec.Code != http.StatusCreated {
			t.Fatalf("submit %d failed: %d", i, rec.Code)
		}
	}

	// No key.
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/admin/patterns/recompute/user-1", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no-key status = %d, want 401", rec.Code)
	}

	// Key without the permission.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/admin/patterns/recompute/user-1", "sk_test_readonly_1", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("no-permission status = %d, want 403", rec.Code)
	}

	// Authorized recompute.
	rec = doRequest(t, srv, http.MethodPost, "/api/v1/admin/patterns/recompute/user-1", "sk_test_1234567890", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recompute status = %d\nbody: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Patterns *models.StressPattern `json:"patterns"`
	}
	decodeData(t, rec, &got)
	if got.Patterns == nil {
		t.Fatal("expected recomputed patterns")
	}

	// Client identity endpoint.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/admin/clients/me", "sk_test_1234567890", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clients/me status = %d", rec.Code)
	}

	var me models.ApiClient
	decodeData(t, rec, &me)
	if me.Name != "ops-dashboard" {
		t.Errorf("client name = %q", me.Name)
	}
}

func TestRateLimitSubmit(t *testing.T) {
	repo := storage.NewMemoryRepository()
	w := detector.NewWorker(repo, nil, 8, time.Hour)
	svc := service.NewStressService(repo, nil, w)

	srv := NewServer(
		config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		config.AuthConfig{JWTSecret: testSecret},
		config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2},
		svc,
		catalog.NewLoader(),
		w,
		repo,
	)
	token := userToken(t, srv, "user-1")

	req := models.SubmitRequest{Workload: 5, Deadlines: 5, Concentration: 5, Sleep: 5}

	limited := false
	for i := 0; i < 5; i++ {
		rec := doRequest(t, srv, http.MethodPost, "/api/v1/stress/submit", token, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected a 429 after exceeding the burst")
	}
}
