package api

import (
	"bytes"
	"encoding/json"
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/pkg/validator"
	"fitplanhub/backend/internal/repository/memory"
	"fitplanhub/backend/internal/service"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testServer wires the full router over a fresh in-memory store.
type testServer struct {
	router *gin.Engine
	seq    int
}

func newTestServer(t *testing.T, opts RouteOptions) *testServer {
	t.Helper()
	repos := memory.NewStore().Repositories()
	log := logger.Nop()
	v := validator.New()
	rec := metrics.Nop{}
	counters := service.NewCounterService(repos, log, rec)

	services := Services{
		Auth:          service.NewAuthService(repos.Users, "test-secret", time.Hour, v, log),
		Plans:         service.NewPlanService(repos, counters, nil, time.Minute, v, log),
		Subscriptions: service.NewSubscriptionService(repos, counters, v, log, rec),
		Reviews:       service.NewReviewService(repos, counters, v, log, rec),
		Social:        service.NewSocialService(repos, counters, rec),
		Feed:          service.NewFeedService(repos, v),
	}

	router := gin.New()
	SetupRoutes(router, services, opts)
	return &testServer{router: router}
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page  int   `json:"page"`
		Limit int   `json:"limit"`
		Total int64 `json:"total"`
		Pages int   `json:"pages"`
	} `json:"pagination"`
	FeedType string                 `json:"feedType"`
	Errors   []validator.FieldError `json:"errors"`
	Debug    string                 `json:"debug"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	var env envelope
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr.Code, env
}

func decode(t *testing.T, raw json.RawMessage, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data %s: %v", raw, err)
	}
}

// register signs up an account and returns its token and id.
func (s *testServer) register(t *testing.T, role string) (token, id string) {
	t.Helper()
	s.seq++
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     fmt.Sprintf("%s %d", role, s.seq),
		"email":    fmt.Sprintf("%s%d@example.com", role, s.seq),
		"password": "secret123",
		"role":     role,
	})
	if code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %+v", role, code, env)
	}
	var result struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, env.Data, &result)
	return result.Token, result.User.ID
}

func planBody(title string, price float64) gin.H {
	return gin.H{
		"title":           title,
		"description":     "Short description",
		"fullDescription": "A much longer description of the plan",
		"price":           price,
		"duration":        30,
		"category":        "strength",
		"difficulty":      "beginner",
		"weeklyWorkouts":  3,
		"dailyTime":       "30-45 mins",
	}
}

func (s *testServer) createPlan(t *testing.T, token, title string, price float64) string {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/plans", token, planBody(title, price))
	if code != http.StatusCreated {
		t.Fatalf("create plan: status %d, body %+v", code, env)
	}
	var plan struct {
		ID string `json:"id"`
	}
	decode(t, env.Data, &plan)
	return plan.ID
}

func TestPing(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	token, _ := s.register(t, "user")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			s.router.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestRegisterValidationErrors(t *testing.T) {
	s := newTestServer(t, RouteOptions{Debug: true})

	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     "A",
		"email":    "not-an-email",
		"password": "123",
	})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", code)
	}
	if env.Success {
		t.Fatal("success = true on validation failure")
	}
	fields := map[string]bool{}
	for _, fe := range env.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"name", "email", "password"} {
		if !fields[want] {
			t.Errorf("errors missing field %q: %+v", want, env.Errors)
		}
	}
	if env.Debug != "" {
		t.Errorf("debug = %q on a client error", env.Debug)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	body := gin.H{"name": "Dana", "email": "dana@example.com", "password": "secret123"}

	if code, _ := s.do(t, http.MethodPost, "/api/v1/auth/register", "", body); code != http.StatusCreated {
		t.Fatalf("first register status = %d", code)
	}
	code, env := s.do(t, http.MethodPost, "/api/v1/auth/register", "", body)
	if code != http.StatusConflict {
		t.Fatalf("second register status = %d, want 409", code)
	}
	if env.Message != "User already exists with this email" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestPlanRoutesRequireTrainer(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	memberToken, _ := s.register(t, "user")

	code, _ := s.do(t, http.MethodPost, "/api/v1/plans", memberToken, planBody("Nope", 10))
	if code != http.StatusForbidden {
		t.Fatalf("member create plan status = %d, want 403", code)
	}
}

func TestInvalidObjectID(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	code, env := s.do(t, http.MethodGet, "/api/v1/plans/not-an-id", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if env.Success {
		t.Fatal("success = true on bad id")
	}
}

func TestListPlansQueryValidation(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	trainerToken, _ := s.register(t, "trainer")
	s.createPlan(t, trainerToken, "Strength Base", 20)

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantFields []string
	}{
		{"unknown category", "category=bogus", http.StatusUnprocessableEntity, []string{"category"}},
		{"unknown difficulty", "difficulty=insane", http.StatusUnprocessableEntity, []string{"difficulty"}},
		{"unknown sort and order", "sort=nonsense&order=sideways", http.StatusUnprocessableEntity, []string{"sort", "order"}},
		{"page bounds", "page=-3&limit=1000", http.StatusUnprocessableEntity, []string{"page", "limit"}},
		{"negative price", "maxPrice=-1", http.StatusUnprocessableEntity, []string{"maxPrice"}},
		{"malformed trainer id", "trainerId=xyz", http.StatusUnprocessableEntity, []string{"trainerId"}},
		{"unparseable price", "minPrice=abc", http.StatusBadRequest, nil},
		{"unparseable page", "page=two", http.StatusBadRequest, nil},
		{"inverted price range", "minPrice=50&maxPrice=10", http.StatusBadRequest, nil},
		{"valid filters", "category=all&difficulty=beginner&sort=price&order=asc&page=1&limit=100&minPrice=0", http.StatusOK, nil},
		{"defaults", "", http.StatusOK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, env := s.do(t, http.MethodGet, "/api/v1/plans?"+tt.query, "", nil)
			if code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%+v)", code, tt.wantStatus, env)
			}
			if env.Success != (tt.wantStatus == http.StatusOK) {
				t.Errorf("success = %v for status %d", env.Success, code)
			}
			got := make(map[string]bool, len(env.Errors))
			for _, fe := range env.Errors {
				got[fe.Field] = true
			}
			for _, field := range tt.wantFields {
				if !got[field] {
					t.Errorf("errors = %+v, want entry for %q", env.Errors, field)
				}
			}
			if tt.wantStatus == http.StatusOK && (env.Pagination == nil || env.Pagination.Total != 1) {
				t.Errorf("pagination = %+v, want total 1", env.Pagination)
			}
		})
	}
}

func TestSubscribeFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	trainerToken, trainerID := s.register(t, "trainer")
	memberToken, _ := s.register(t, "user")
	planID := s.createPlan(t, trainerToken, "Strength Base", 49.99)

	// Follow, then the feed switches to the following variant.
	if code, env := s.do(t, http.MethodPost, "/api/v1/users/follow/"+trainerID, memberToken, nil); code != http.StatusCreated {
		t.Fatalf("follow status = %d, body %+v", code, env)
	}

	code, env := s.do(t, http.MethodPost, "/api/v1/subscriptions/subscribe/"+planID, memberToken, nil)
	if code != http.StatusCreated {
		t.Fatalf("subscribe status = %d, body %+v", code, env)
	}
	var sub struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Payment struct {
			Amount        float64 `json:"amount"`
			Status        string  `json:"status"`
			TransactionID string  `json:"transactionId"`
		} `json:"payment"`
	}
	decode(t, env.Data, &sub)
	if sub.Status != "active" || sub.Payment.Status != "completed" || sub.Payment.Amount != 49.99 {
		t.Fatalf("subscription = %+v", sub)
	}

	if code, _ := s.do(t, http.MethodPost, "/api/v1/subscriptions/subscribe/"+planID, memberToken, nil); code != http.StatusConflict {
		t.Fatalf("duplicate subscribe status = %d, want 409", code)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/feed", memberToken, nil)
	if code != http.StatusOK {
		t.Fatalf("feed status = %d", code)
	}
	if env.FeedType != "following" {
		t.Errorf("feedType = %q, want following", env.FeedType)
	}
	var feed []struct {
		ID           string `json:"id"`
		IsSubscribed *bool  `json:"isSubscribed"`
	}
	decode(t, env.Data, &feed)
	if len(feed) != 1 || feed[0].ID != planID || feed[0].IsSubscribed == nil || !*feed[0].IsSubscribed {
		t.Fatalf("feed = %+v", feed)
	}
	if env.Pagination == nil || env.Pagination.Total != 1 {
		t.Errorf("pagination = %+v", env.Pagination)
	}

	code, env = s.do(t, http.MethodPut, "/api/v1/subscriptions/"+sub.ID+"/progress", memberToken, gin.H{"currentDay": 15})
	if code != http.StatusOK {
		t.Fatalf("progress status = %d, body %+v", code, env)
	}
	var progressed struct {
		ProgressPercentage int `json:"progressPercentage"`
	}
	decode(t, env.Data, &progressed)
	if progressed.ProgressPercentage != 50 {
		t.Errorf("progressPercentage = %d, want 50", progressed.ProgressPercentage)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/subscriptions/trainer/subscriptions", trainerToken, nil)
	if code != http.StatusOK || env.Pagination == nil || env.Pagination.Total != 1 {
		t.Fatalf("trainer subscriptions status = %d, body %+v", code, env)
	}

	if code, _ := s.do(t, http.MethodDelete, "/api/v1/subscriptions/unsubscribe/"+sub.ID, memberToken, nil); code != http.StatusOK {
		t.Fatalf("unsubscribe status = %d", code)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/plans/"+planID, "", nil)
	if code != http.StatusOK {
		t.Fatalf("get plan status = %d", code)
	}
	var plan struct {
		SubscribersCount int `json:"subscribersCount"`
	}
	decode(t, env.Data, &plan)
	if plan.SubscribersCount != 1 {
		t.Errorf("subscribersCount = %d, want 1 after unsubscribe", plan.SubscribersCount)
	}

	code, env = s.do(t, http.MethodGet, "/api/v1/payments/my-payments", memberToken, nil)
	if code != http.StatusOK || env.Pagination == nil || env.Pagination.Total != 1 {
		t.Fatalf("payments status = %d, body %+v", code, env)
	}
}

func TestUnfollowTwiceOverHTTP(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	_, trainerID := s.register(t, "trainer")
	memberToken, _ := s.register(t, "user")

	if code, _ := s.do(t, http.MethodPost, "/api/v1/users/follow/"+trainerID, memberToken, nil); code != http.StatusCreated {
		t.Fatalf("follow status = %d", code)
	}
	if code, _ := s.do(t, http.MethodDelete, "/api/v1/users/unfollow/"+trainerID, memberToken, nil); code != http.StatusOK {
		t.Fatalf("unfollow status = %d", code)
	}
	code, env := s.do(t, http.MethodDelete, "/api/v1/users/unfollow/"+trainerID, memberToken, nil)
	if code != http.StatusNotFound {
		t.Fatalf("second unfollow status = %d, want 404", code)
	}
	if env.Message != "You are not following this trainer" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestCoverUploadWithoutStorage(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	trainerToken, _ := s.register(t, "trainer")
	planID := s.createPlan(t, trainerToken, "Yoga Flow", 0)

	code, _ := s.do(t, http.MethodPost, "/api/v1/plans/"+planID+"/cover", trainerToken, gin.H{"contentType": "image/png"})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", code)
	}
}

func TestDashboardStatsByRole(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	trainerToken, _ := s.register(t, "trainer")
	memberToken, _ := s.register(t, "user")
	s.createPlan(t, trainerToken, "Cardio Kick", 20)

	for _, token := range []string{trainerToken, memberToken} {
		code, env := s.do(t, http.MethodGet, "/api/v1/feed/dashboard-stats", token, nil)
		if code != http.StatusOK {
			t.Fatalf("status = %d, body %+v", code, env)
		}
		var data struct {
			Stats map[string]interface{} `json:"stats"`
		}
		decode(t, env.Data, &data)
		if len(data.Stats) == 0 {
			t.Fatalf("empty stats: %s", env.Data)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	defer limiter.Stop()
	s := newTestServer(t, RouteOptions{RateLimiter: limiter})

	var last int
	for i := 0; i < 3; i++ {
		last, _ = s.do(t, http.MethodGet, "/api/v1/plans", "", nil)
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", last)
	}

	// /ping sits outside the limited group
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("ping status = %d, want 200", rr.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(10, 1)
	defer limiter.Stop()

	limiter.Allow("10.0.0.1")
	limiter.cleanup(time.Now().Add(2 * limiterIdleTTL))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.clients) != 0 {
		t.Fatalf("clients = %d, want 0 after cleanup", len(limiter.clients))
	}
}

func TestNoRoute(t *testing.T) {
	s := newTestServer(t, RouteOptions{})
	code, env := s.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	if code != http.StatusNotFound || env.Success {
		t.Fatalf("status = %d, body %+v", code, env)
	}
}
