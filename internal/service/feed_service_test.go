package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	apperrors "fitplanhub/backend/internal/pkg/errors"
	"fitplanhub/backend/internal/pkg/validator"
	"net/http"
	"reflect"
	"testing"
)

func TestPlanSort(t *testing.T) {
	tests := []struct {
		key, order string
		want       domain.Sort
	}{
		{"price", "asc", domain.Sort{{Field: "price"}}},
		{"rating", "", domain.Sort{{Field: "averageRating", Desc: true}}},
		{"subscribers", "desc", domain.Sort{{Field: "subscribersCount", Desc: true}}},
		{"popularity", "asc", popularityOrder},
		{"", "", domain.Sort{{Field: "createdAt", Desc: true}}},
	}
	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.order, func(t *testing.T) {
			if got := planSort(tt.key, tt.order); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("planSort(%q, %q) = %v, want %v", tt.key, tt.order, got, tt.want)
			}
		})
	}
}

func TestGetFeed_PopularThenFollowing(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	popularTrainer := env.trainer(t)
	followedTrainer := env.trainer(t)
	member := env.member(t)

	hit := env.plan(t, popularTrainer, planInput("Hit", domain.CategoryHIIT, 5, 10))
	env.plan(t, popularTrainer, planInput("Quiet", domain.CategoryHIIT, 5, 10))
	older := env.plan(t, followedTrainer, planInput("Older", domain.CategoryYoga, 5, 10))
	newer := env.plan(t, followedTrainer, planInput("Newer", domain.CategoryYoga, 5, 10))

	fan := env.member(t)
	if _, err := env.subscriptions.Subscribe(ctx, fan.ID, hit.ID); err != nil {
		t.Fatal(err)
	}

	feed, err := env.feed.GetFeed(ctx, member.ID, domain.NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if feed.FeedType != domain.FeedPopular || feed.Pagination.Total != 4 {
		t.Fatalf("feed = %s/%d, want popular/4", feed.FeedType, feed.Pagination.Total)
	}
	if feed.Items[0].ID != hit.ID {
		t.Errorf("first popular plan = %q, want Hit", feed.Items[0].Title)
	}

	if _, _, err := env.social.Follow(ctx, member.ID, followedTrainer.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.subscriptions.Subscribe(ctx, member.ID, older.ID); err != nil {
		t.Fatal(err)
	}

	feed, err = env.feed.GetFeed(ctx, member.ID, domain.NewPageRequest(1, 1))
	if err != nil {
		t.Fatalf("GetFeed() error = %v", err)
	}
	if feed.FeedType != domain.FeedFollowing {
		t.Fatalf("feedType = %s, want following", feed.FeedType)
	}
	want := domain.Pagination{Page: 1, Limit: 1, Total: 2, Pages: 2}
	if feed.Pagination != want {
		t.Errorf("pagination = %+v, want %+v", feed.Pagination, want)
	}
	if first := feed.Items[0]; first.ID != newer.ID || first.IsSubscribed == nil || *first.IsSubscribed {
		t.Errorf("page 1 = %q subscribed=%v, want Newer unsubscribed", first.Title, first.IsSubscribed)
	}

	feed, err = env.feed.GetFeed(ctx, member.ID, domain.NewPageRequest(2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if second := feed.Items[0]; second.ID != older.ID || second.IsSubscribed == nil || !*second.IsSubscribed {
		t.Errorf("page 2 = %q subscribed=%v, want Older subscribed", second.Title, second.IsSubscribed)
	}
}

func TestListPlans_Filters(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)

	cheap := planInput("Morning Yoga", domain.CategoryYoga, 5, 10)
	cheap.Tags = []string{"Stretch"}
	env.plan(t, trainer, cheap)
	env.plan(t, trainer, planInput("Power (Lift)", domain.CategoryStrength, 50, 10))
	env.plan(t, trainer, planInput("Run Club", domain.CategoryCardio, 20, 10))
	draft := planInput("Hidden Yoga", domain.CategoryYoga, 1, 10)
	draft.IsPublished = boolPtr(false)
	env.plan(t, trainer, draft)

	min, max := 10.0, 60.0
	tests := []struct {
		name  string
		query domain.PlanQuery
		want  []string
	}{
		{"all published by price", domain.PlanQuery{Category: domain.FilterAll, Sort: "price", Order: "asc"}, []string{"Morning Yoga", "Run Club", "Power (Lift)"}},
		{"category", domain.PlanQuery{Category: domain.CategoryYoga}, []string{"Morning Yoga"}},
		{"price range", domain.PlanQuery{MinPrice: &min, MaxPrice: &max, Sort: "price", Order: "desc"}, []string{"Power (Lift)", "Run Club"}},
		{"search escapes regex", domain.PlanQuery{Search: "(lift)"}, []string{"Power (Lift)"}},
		{"search tags", domain.PlanQuery{Search: "stretch"}, []string{"Morning Yoga"}},
		{"trainer", domain.PlanQuery{TrainerID: trainer.ID.Hex(), Sort: "price", Order: "asc", Limit: 1}, []string{"Morning Yoga"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := env.feed.ListPlans(ctx, tt.query, nil)
			if err != nil {
				t.Fatalf("ListPlans() error = %v", err)
			}
			var got []string
			for _, p := range page.Items {
				got = append(got, p.Title)
				if p.IsSubscribed != nil {
					t.Errorf("anonymous listing annotated %q", p.Title)
				}
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestListPlans_RejectsMalformedQuery(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	negative, low, high := -5.0, 10.0, 60.0

	tests := []struct {
		name      string
		query     domain.PlanQuery
		wantField string
	}{
		{"category", domain.PlanQuery{Category: "bogus"}, "category"},
		{"difficulty", domain.PlanQuery{Difficulty: "insane"}, "difficulty"},
		{"sort", domain.PlanQuery{Sort: "nonsense"}, "sort"},
		{"order", domain.PlanQuery{Order: "sideways"}, "order"},
		{"page", domain.PlanQuery{Page: -3}, "page"},
		{"limit", domain.PlanQuery{Limit: 1000}, "limit"},
		{"min price", domain.PlanQuery{MinPrice: &negative}, "minPrice"},
		{"trainer id", domain.PlanQuery{TrainerID: "xyz"}, "trainerId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.feed.ListPlans(ctx, tt.query, nil)
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) || appErr.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("ListPlans() error = %v, want 422", err)
			}
			fields, _ := appErr.Details.([]validator.FieldError)
			if len(fields) != 1 || fields[0].Field != tt.wantField {
				t.Errorf("fields = %+v, want %q", fields, tt.wantField)
			}
		})
	}

	_, err := env.feed.ListPlans(ctx, domain.PlanQuery{MinPrice: &high, MaxPrice: &low}, nil)
	assertErrorIs(t, err, ErrInvalidPriceRange)
}

func TestRecommended(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	member := env.member(t)

	empty, err := env.feed.Recommended(ctx, member.ID, domain.NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("Recommended() error = %v", err)
	}
	if empty.Pagination.Total != 0 || len(empty.Items) != 0 {
		t.Errorf("recommendations without subscriptions = %d, want 0", empty.Pagination.Total)
	}

	owned := env.plan(t, trainer, planInput("Owned", domain.CategoryYoga, 1, 10))
	good := env.plan(t, trainer, planInput("Good", domain.CategoryYoga, 1, 10))
	env.plan(t, trainer, planInput("Okay", domain.CategoryYoga, 1, 10))
	env.plan(t, trainer, planInput("Elsewhere", domain.CategoryCardio, 1, 10))
	if _, err := env.subscriptions.Subscribe(ctx, member.ID, owned.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.reviews.SubmitReview(ctx, env.member(t).ID, good.ID, domain.ReviewInput{Rating: 5, Comment: "yes"}); err != nil {
		t.Fatal(err)
	}

	page, err := env.feed.Recommended(ctx, member.ID, domain.NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("Recommended() error = %v", err)
	}
	if page.Pagination.Total != 2 || page.Items[0].ID != good.ID {
		t.Errorf("recommendations = %d, first %q, want 2 with Good first", page.Pagination.Total, page.Items[0].Title)
	}
}

func TestDashboardStats_Roles(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	member := env.member(t)
	admin := env.account(t, domain.RoleAdmin, "admin")

	a := env.plan(t, trainer, planInput("A", domain.CategoryYoga, 10, 30))
	b := env.plan(t, trainer, planInput("B", domain.CategoryYoga, 15.5, 30))
	if _, _, err := env.social.Follow(ctx, member.ID, trainer.ID); err != nil {
		t.Fatal(err)
	}
	subA, err := env.subscriptions.Subscribe(ctx, member.ID, a.ID)
	if err != nil {
		t.Fatal(err)
	}
	subB, err := env.subscriptions.Subscribe(ctx, member.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	log := domain.ProgressUpdate{CompletedWorkout: &domain.WorkoutLogInput{Day: 1, Duration: 30}}
	for i := 0; i < 2; i++ {
		if _, err := env.subscriptions.UpdateProgress(ctx, member.ID, subA.ID, log); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := env.subscriptions.Unsubscribe(ctx, member.ID, subB.ID); err != nil {
		t.Fatal(err)
	}

	t.Run("member", func(t *testing.T) {
		stats, err := env.feed.DashboardStats(ctx, member.ID)
		if err != nil {
			t.Fatal(err)
		}
		want := domain.MemberStats{ActiveSubscriptions: 1, FollowingCount: 1, TotalSpent: 25.5, CompletedWorkouts: 2, TotalPlansPurchased: 2}
		if stats != want {
			t.Errorf("stats = %+v, want %+v", stats, want)
		}
	})

	t.Run("trainer", func(t *testing.T) {
		stats, err := env.feed.DashboardStats(ctx, trainer.ID)
		if err != nil {
			t.Fatal(err)
		}
		want := domain.TrainerStats{TotalPlans: 2, TotalSubscribers: 1, TotalRevenue: 25.5, FollowersCount: 1}
		if stats != want {
			t.Errorf("stats = %+v, want %+v", stats, want)
		}
	})

	t.Run("admin", func(t *testing.T) {
		stats, err := env.feed.DashboardStats(ctx, admin.ID)
		if err != nil {
			t.Fatal(err)
		}
		want := domain.PlatformStats{TotalUsers: 1, TotalTrainers: 1, PublishedPlans: 2, ActiveSubscriptions: 1, TotalRevenue: 25.5}
		if stats != want {
			t.Errorf("stats = %+v, want %+v", stats, want)
		}
	})
}
