package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/pkg/validator"
	"fitplanhub/backend/internal/repository"
	"fitplanhub/backend/internal/repository/memory"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// testEnv wires every service over a fresh in-memory store.
type testEnv struct {
	repos         repository.Repositories
	storage       *fakeStorage
	counters      Counters
	auth          AuthService
	plans         PlanService
	subscriptions SubscriptionService
	social        SocialService
	reviews       ReviewService
	feed          FeedService
	reconcile     ReconcileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos := memory.NewStore().Repositories()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	v := validator.New()
	rec := metrics.Nop{}
	counters := NewCounterService(repos, log, rec)
	files := newFakeStorage()

	return &testEnv{
		repos:         repos,
		storage:       files,
		counters:      counters,
		auth:          NewAuthService(repos.Users, "test-secret", time.Hour, v, log),
		plans:         NewPlanService(repos, counters, files, time.Minute, v, log),
		subscriptions: NewSubscriptionService(repos, counters, v, log, rec),
		social:        NewSocialService(repos, counters, rec),
		reviews:       NewReviewService(repos, counters, v, log, rec),
		feed:          NewFeedService(repos, v),
		reconcile:     NewReconcileService(repos, log),
	}
}

var accountSeq int

func (e *testEnv) account(t *testing.T, role domain.Role, name string) *domain.User {
	t.Helper()
	accountSeq++
	u := &domain.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%d@example.com", name, accountSeq),
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	if _, err := e.repos.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return u
}

func (e *testEnv) trainer(t *testing.T) *domain.User {
	return e.account(t, domain.RoleTrainer, "trainer")
}

func (e *testEnv) member(t *testing.T) *domain.User {
	return e.account(t, domain.RoleUser, "member")
}

func planInput(title, category string, price float64, duration int) domain.PlanInput {
	return domain.PlanInput{
		Title:           title,
		Description:     "A plan",
		FullDescription: "A longer plan description",
		Price:           price,
		Duration:        duration,
		Category:        category,
		Difficulty:      domain.DifficultyBeginner,
		WeeklyWorkouts:  3,
		DailyTime:       "30-45 mins",
	}
}

func (e *testEnv) plan(t *testing.T, trainer *domain.User, input domain.PlanInput) *domain.Plan {
	t.Helper()
	view, err := e.plans.CreatePlan(context.Background(), trainer.ID, input)
	if err != nil {
		t.Fatalf("CreatePlan() error = %v", err)
	}
	return &view.Plan
}

func (e *testEnv) reloadUser(t *testing.T, id primitive.ObjectID) *domain.User {
	t.Helper()
	u, err := e.repos.Users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return u
}

func (e *testEnv) reloadPlan(t *testing.T, id primitive.ObjectID) *domain.Plan {
	t.Helper()
	p, err := e.repos.Plans.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload plan: %v", err)
	}
	return p
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

// fakeStorage records presign and delete calls.
type fakeStorage struct {
	mu      sync.Mutex
	deleted []string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{} }

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, contentType string, _ time.Duration) (string, error) {
	return "https://upload.test/" + key + "?ct=" + contentType, nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}
