package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	apperrors "fitplanhub/backend/internal/pkg/errors"
	"net/http"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSubmitReview_RecomputesAggregates(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	plan := env.plan(t, trainer, planInput("Rated", domain.CategoryStrength, 10, 10))

	steps := []struct {
		rating      int
		wantAverage float64
		wantCount   int
	}{
		{5, 5.0, 1},
		{3, 4.0, 2},
		{4, 4.0, 3},
		{2, 3.5, 4},
	}
	for _, step := range steps {
		reviewer := env.member(t)
		input := domain.ReviewInput{Rating: step.rating, Comment: "ok"}
		if _, err := env.reviews.SubmitReview(ctx, reviewer.ID, plan.ID, input); err != nil {
			t.Fatalf("SubmitReview(%d) error = %v", step.rating, err)
		}
		got := env.reloadPlan(t, plan.ID)
		if got.AverageRating != step.wantAverage || got.TotalReviews != step.wantCount {
			t.Errorf("after %d: plan = %v/%d, want %v/%d", step.rating, got.AverageRating, got.TotalReviews, step.wantAverage, step.wantCount)
		}
	}

	gotTrainer := env.reloadUser(t, trainer.ID)
	if gotTrainer.Rating != 3.5 || gotTrainer.TotalReviews != 4 {
		t.Errorf("trainer rating = %v/%d, want 3.5/4", gotTrainer.Rating, gotTrainer.TotalReviews)
	}
}

func TestSubmitReview_TrainerRatingSpansPlans(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	a := env.plan(t, trainer, planInput("A", domain.CategoryYoga, 1, 5))
	b := env.plan(t, trainer, planInput("B", domain.CategoryYoga, 1, 5))
	reviewer := env.member(t)

	if _, err := env.reviews.SubmitReview(ctx, reviewer.ID, a.ID, domain.ReviewInput{Rating: 5, Comment: "great"}); err != nil {
		t.Fatal(err)
	}
	if _, err := env.reviews.SubmitReview(ctx, reviewer.ID, b.ID, domain.ReviewInput{Rating: 2, Comment: "meh"}); err != nil {
		t.Fatal(err)
	}

	got := env.reloadUser(t, trainer.ID)
	if got.Rating != 3.5 || got.TotalReviews != 2 {
		t.Errorf("trainer rating = %v/%d, want 3.5/2", got.Rating, got.TotalReviews)
	}
}

func TestSubmitReview_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	plan := env.plan(t, trainer, planInput("P", domain.CategoryCardio, 1, 5))
	reviewer := env.member(t)

	if _, err := env.reviews.SubmitReview(ctx, reviewer.ID, plan.ID, domain.ReviewInput{Rating: 4, Comment: "fine"}); err != nil {
		t.Fatal(err)
	}

	t.Run("duplicate", func(t *testing.T) {
		_, err := env.reviews.SubmitReview(ctx, reviewer.ID, plan.ID, domain.ReviewInput{Rating: 1, Comment: "again"})
		assertErrorIs(t, err, ErrAlreadyReviewed)
		if got := env.reloadPlan(t, plan.ID); got.TotalReviews != 1 || got.AverageRating != 4 {
			t.Errorf("plan aggregate = %v/%d, want 4/1", got.AverageRating, got.TotalReviews)
		}
	})

	t.Run("missing plan", func(t *testing.T) {
		_, err := env.reviews.SubmitReview(ctx, reviewer.ID, primitive.NewObjectID(), domain.ReviewInput{Rating: 4, Comment: "x"})
		assertErrorIs(t, err, ErrPlanNotFound)
	})

	invalid := []struct {
		name  string
		input domain.ReviewInput
	}{
		{"rating too high", domain.ReviewInput{Rating: 6, Comment: "x"}},
		{"rating missing", domain.ReviewInput{Comment: "x"}},
		{"comment missing", domain.ReviewInput{Rating: 3}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reviews.SubmitReview(ctx, env.member(t).ID, plan.ID, tt.input)
			var appErr *apperrors.AppError
			if !errors.As(err, &appErr) || appErr.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("error = %v, want 422", err)
			}
		})
	}
}

func TestSubmitReview_VerifiedPurchase(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	plan := env.plan(t, trainer, planInput("P", domain.CategoryCardio, 1, 5))
	buyer := env.member(t)
	browser := env.member(t)

	sub, err := env.subscriptions.Subscribe(ctx, buyer.ID, plan.ID)
	if err != nil {
		t.Fatal(err)
	}
	// Cancelled subscriptions still count as a purchase.
	if _, err := env.subscriptions.Unsubscribe(ctx, buyer.ID, sub.ID); err != nil {
		t.Fatal(err)
	}

	verified, err := env.reviews.SubmitReview(ctx, buyer.ID, plan.ID, domain.ReviewInput{Rating: 5, Comment: "bought it"})
	if err != nil {
		t.Fatal(err)
	}
	unverified, err := env.reviews.SubmitReview(ctx, browser.ID, plan.ID, domain.ReviewInput{Rating: 3, Comment: "just looking"})
	if err != nil {
		t.Fatal(err)
	}
	if !verified.IsVerifiedPurchase || unverified.IsVerifiedPurchase {
		t.Errorf("verified = %v, unverified = %v, want true/false", verified.IsVerifiedPurchase, unverified.IsVerifiedPurchase)
	}

	page, err := env.reviews.ListPlanReviews(ctx, plan.ID, domain.NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("ListPlanReviews() error = %v", err)
	}
	if page.Pagination.Total != 2 || page.Items[0].ID != unverified.ID {
		t.Errorf("reviews = %d, first = %s, want 2 newest first", page.Pagination.Total, page.Items[0].ID.Hex())
	}
}
