package memory

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUsers_UniqueEmail(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()

	first := &domain.User{Name: "a", Email: "A@example.com", PasswordHash: "x", Role: domain.RoleUser}
	if _, err := repos.Users.Create(ctx, first); err != nil {
		t.Fatal(err)
	}
	dup := &domain.User{Name: "b", Email: " a@EXAMPLE.com ", PasswordHash: "x", Role: domain.RoleUser}
	if _, err := repos.Users.Create(ctx, dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicate", err)
	}
	got, err := repos.Users.GetByEmail(ctx, "a@example.com")
	if err != nil || got.ID != first.ID {
		t.Errorf("GetByEmail() = %v, %v", got, err)
	}
}

func TestUsers_CountersClampAtZero(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	u := &domain.User{Name: "t", Email: "t@example.com", PasswordHash: "x", Role: domain.RoleTrainer}
	if _, err := repos.Users.Create(ctx, u); err != nil {
		t.Fatal(err)
	}

	if err := repos.Users.ApplyCounterDelta(ctx, u.ID, domain.CounterDelta{FollowersCount: -2, TotalRevenue: 10.105}); err != nil {
		t.Fatal(err)
	}
	got, _ := repos.Users.GetByID(ctx, u.ID)
	if got.FollowersCount != 0 || got.TotalRevenue != 10.11 {
		t.Errorf("counters = %d/%v, want 0/10.11", got.FollowersCount, got.TotalRevenue)
	}

	err := repos.Users.ApplyCounterDelta(ctx, primitive.NewObjectID(), domain.CounterDelta{FollowersCount: 1})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("ApplyCounterDelta(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFollows_UniqueEdge(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	if _, err := repos.Follows.Create(ctx, &domain.Follow{Follower: a, Following: b}); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Follows.Create(ctx, &domain.Follow{Follower: a, Following: b}); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("second Create() error = %v, want ErrDuplicate", err)
	}
	if err := repos.Follows.Delete(ctx, a, b); err != nil {
		t.Fatal(err)
	}
	if err := repos.Follows.Delete(ctx, a, b); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestSubscriptions_OneActivePerUserPlan(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	user, plan := primitive.NewObjectID(), primitive.NewObjectID()
	now := time.Now().UTC()

	active := &domain.Subscription{UserID: user, PlanID: plan, Status: domain.SubscriptionActive, StartDate: now, EndDate: now.Add(time.Hour)}
	if _, err := repos.Subscriptions.Create(ctx, active); err != nil {
		t.Fatal(err)
	}
	second := &domain.Subscription{UserID: user, PlanID: plan, Status: domain.SubscriptionActive}
	if _, err := repos.Subscriptions.Create(ctx, second); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("second active Create() error = %v, want ErrDuplicate", err)
	}

	cancelled := &domain.Subscription{UserID: user, PlanID: plan, Status: domain.SubscriptionCancelled}
	if _, err := repos.Subscriptions.Create(ctx, cancelled); err != nil {
		t.Fatalf("cancelled Create() error = %v", err)
	}

	// Reactivating the cancelled one would violate the rule too.
	cancelled.Status = domain.SubscriptionActive
	if err := repos.Subscriptions.Update(ctx, cancelled); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("reactivating Update() error = %v, want ErrDuplicate", err)
	}

	exists, err := repos.Subscriptions.Exists(ctx, user, plan)
	if err != nil || !exists {
		t.Errorf("Exists() = %v, %v, want true", exists, err)
	}
}

func TestSubscriptions_ReturnedCopiesAreIndependent(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	sub := &domain.Subscription{UserID: primitive.NewObjectID(), PlanID: primitive.NewObjectID(), Status: domain.SubscriptionActive}
	if _, err := repos.Subscriptions.Create(ctx, sub); err != nil {
		t.Fatal(err)
	}

	got, _ := repos.Subscriptions.GetByID(ctx, sub.ID)
	got.CompletedWorkouts = append(got.CompletedWorkouts, domain.WorkoutLog{Day: 1})

	again, _ := repos.Subscriptions.GetByID(ctx, sub.ID)
	if len(again.CompletedWorkouts) != 0 {
		t.Errorf("stored workouts changed without Update: %+v", again.CompletedWorkouts)
	}
}

func TestReviews_OnePerUserPlan(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	user, plan := primitive.NewObjectID(), primitive.NewObjectID()

	if _, err := repos.Reviews.Create(ctx, &domain.Review{UserID: user, PlanID: plan, Rating: 5, IsApproved: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := repos.Reviews.Create(ctx, &domain.Review{UserID: user, PlanID: plan, Rating: 1, IsApproved: true}); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("second Create() error = %v, want ErrDuplicate", err)
	}
	if _, err := repos.Reviews.Create(ctx, &domain.Review{UserID: primitive.NewObjectID(), PlanID: plan, Rating: 1}); err != nil {
		t.Fatal(err)
	}

	ratings, _ := repos.Reviews.ApprovedRatings(ctx, []primitive.ObjectID{plan})
	if len(ratings) != 1 || ratings[0] != 5 {
		t.Errorf("approved ratings = %v, want [5]", ratings)
	}
}

func TestPayments_CompletedAggregates(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	user, plan := primitive.NewObjectID(), primitive.NewObjectID()

	for i, p := range []domain.Payment{
		{UserID: user, PlanID: plan, Amount: 49.99, Status: domain.PaymentCompleted, TransactionID: "SIM_1"},
		{UserID: user, PlanID: plan, Amount: 0.02, Status: domain.PaymentCompleted, TransactionID: "SIM_2"},
		{UserID: user, PlanID: plan, Amount: 100, Status: domain.PaymentFailed, TransactionID: "SIM_3"},
	} {
		p := p
		if _, err := repos.Payments.Create(ctx, &p); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}
	dup := domain.Payment{UserID: user, PlanID: plan, TransactionID: "SIM_1"}
	if _, err := repos.Payments.Create(ctx, &dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Errorf("duplicate transactionId error = %v, want ErrDuplicate", err)
	}

	filter := repository.PaymentFilter{PlanIDs: []primitive.ObjectID{plan}}
	sum, _ := repos.Payments.SumCompleted(ctx, filter)
	n, _ := repos.Payments.CountCompleted(ctx, filter)
	all, _ := repos.Payments.Count(ctx, filter)
	if sum != 50.01 || n != 2 || all != 3 {
		t.Errorf("sum/completed/all = %v/%d/%d, want 50.01/2/3", sum, n, all)
	}
}

func TestPlans_FindSortsAndPages(t *testing.T) {
	ctx := context.Background()
	repos := NewStore().Repositories()
	trainer := primitive.NewObjectID()

	for _, price := range []float64{30, 10, 20} {
		p := &domain.Plan{TrainerID: trainer, Title: "p", Price: price, IsPublished: true}
		if _, err := repos.Plans.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	byPrice := domain.Sort{{Field: "price"}}
	page, err := repos.Plans.Find(ctx, domain.PlanFilter{PublishedOnly: true}, byPrice, domain.PageRequest{Page: 2, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].Price != 30 {
		t.Errorf("page 2 = %+v, want the 30 plan", page)
	}

	if err := repos.Plans.IncrementSubscribers(ctx, page[0].ID, -5); err != nil {
		t.Fatal(err)
	}
	got, _ := repos.Plans.GetByID(ctx, page[0].ID)
	if got.SubscribersCount != 0 {
		t.Errorf("subscribersCount = %d, want clamped 0", got.SubscribersCount)
	}
}
