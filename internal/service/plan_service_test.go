package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	apperrors "fitplanhub/backend/internal/pkg/errors"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/pkg/validator"
	"fitplanhub/backend/internal/repository"
	"fitplanhub/backend/internal/storage"
	"net/http"
	"strings"
	"testing"
	"time"
)

func boolPtr(v bool) *bool { return &v }

func TestCreatePlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	member := env.member(t)

	t.Run("published by default", func(t *testing.T) {
		plan := env.plan(t, trainer, planInput("Base", domain.CategoryCardio, 10, 30))
		if !plan.IsPublished {
			t.Error("IsPublished = false, want true")
		}
		if got := env.reloadUser(t, trainer.ID).TotalPlans; got != 1 {
			t.Errorf("totalPlans = %d, want 1", got)
		}
	})

	t.Run("draft does not count", func(t *testing.T) {
		input := planInput("Draft", domain.CategoryCardio, 10, 30)
		input.IsPublished = boolPtr(false)
		env.plan(t, trainer, input)
		if got := env.reloadUser(t, trainer.ID).TotalPlans; got != 1 {
			t.Errorf("totalPlans = %d, want 1", got)
		}
	})

	t.Run("members cannot author plans", func(t *testing.T) {
		_, err := env.plans.CreatePlan(ctx, member.ID, planInput("Nope", domain.CategoryCardio, 1, 1))
		assertErrorIs(t, err, ErrTrainerOnly)
	})

	t.Run("validation", func(t *testing.T) {
		input := planInput("Bad", "dancing", -1, 0)
		_, err := env.plans.CreatePlan(ctx, trainer.ID, input)
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) || appErr.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("error = %v, want 422", err)
		}
		fields, _ := appErr.Details.([]validator.FieldError)
		if len(fields) != 3 {
			t.Errorf("field errors = %+v, want category, price and duration", fields)
		}
	})
}

func TestGetPlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	member := env.member(t)

	plan := env.plan(t, trainer, planInput("Main", domain.CategoryYoga, 10, 30))
	for i := 0; i < 5; i++ {
		env.plan(t, trainer, planInput("Related", domain.CategoryYoga, 10, 30))
	}
	env.plan(t, trainer, planInput("Other", domain.CategoryCardio, 10, 30))
	draftInput := planInput("Draft", domain.CategoryYoga, 10, 30)
	draftInput.IsPublished = boolPtr(false)
	draft := env.plan(t, trainer, draftInput)

	if _, err := env.subscriptions.Subscribe(ctx, member.ID, plan.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.reviews.SubmitReview(ctx, member.ID, plan.ID, domain.ReviewInput{Rating: 5, Comment: "good"}); err != nil {
		t.Fatal(err)
	}

	details, err := env.plans.GetPlan(ctx, plan.ID, &member.ID)
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if details.IsSubscribed == nil || !*details.IsSubscribed {
		t.Error("isSubscribed not true for subscriber")
	}
	if details.Trainer == nil || details.Trainer.ID != trainer.ID {
		t.Errorf("trainer details = %+v", details.Trainer)
	}
	if len(details.RelatedPlans) != relatedPlansLimit {
		t.Errorf("related plans = %d, want %d", len(details.RelatedPlans), relatedPlansLimit)
	}
	for _, rp := range details.RelatedPlans {
		if rp.ID == plan.ID || rp.Category != domain.CategoryYoga || !rp.IsPublished {
			t.Errorf("unexpected related plan %+v", rp.Plan)
		}
	}
	if len(details.Reviews) != 1 {
		t.Errorf("reviews = %d, want 1", len(details.Reviews))
	}

	t.Run("draft hidden from others", func(t *testing.T) {
		_, err := env.plans.GetPlan(ctx, draft.ID, &member.ID)
		assertErrorIs(t, err, ErrPlanNotFound)
		_, err = env.plans.GetPlan(ctx, draft.ID, nil)
		assertErrorIs(t, err, ErrPlanNotFound)
	})

	t.Run("draft visible to owner", func(t *testing.T) {
		if _, err := env.plans.GetPlan(ctx, draft.ID, &trainer.ID); err != nil {
			t.Fatalf("GetPlan() error = %v", err)
		}
	})
}

func TestUpdatePlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	other := env.trainer(t)
	plan := env.plan(t, trainer, planInput("Before", domain.CategoryYoga, 10, 30))

	title := "After"
	view, err := env.plans.UpdatePlan(ctx, trainer.ID, plan.ID, domain.PlanPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdatePlan() error = %v", err)
	}
	if view.Title != "After" || view.Price != 10 {
		t.Errorf("plan = %q/%v, want After/10", view.Title, view.Price)
	}

	_, err = env.plans.UpdatePlan(ctx, other.ID, plan.ID, domain.PlanPatch{Title: &title})
	assertErrorIs(t, err, ErrNotPlanOwner)

	if _, err := env.plans.UpdatePlan(ctx, trainer.ID, plan.ID, domain.PlanPatch{IsPublished: boolPtr(false)}); err != nil {
		t.Fatal(err)
	}
	if got := env.reloadUser(t, trainer.ID).TotalPlans; got != 0 {
		t.Errorf("totalPlans after unpublish = %d, want 0", got)
	}
	if _, err := env.plans.UpdatePlan(ctx, trainer.ID, plan.ID, domain.PlanPatch{IsPublished: boolPtr(true)}); err != nil {
		t.Fatal(err)
	}
	if got := env.reloadUser(t, trainer.ID).TotalPlans; got != 1 {
		t.Errorf("totalPlans after republish = %d, want 1", got)
	}
}

func TestDeletePlan(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	member := env.member(t)

	t.Run("active subscribers block deletion", func(t *testing.T) {
		plan := env.plan(t, trainer, planInput("Busy", domain.CategoryYoga, 10, 30))
		if _, err := env.subscriptions.Subscribe(ctx, member.ID, plan.ID); err != nil {
			t.Fatal(err)
		}
		err := env.plans.DeletePlan(ctx, trainer.ID, plan.ID)
		assertErrorIs(t, err, ErrPlanHasActiveSubscribers)
	})

	t.Run("history means soft delete", func(t *testing.T) {
		plan := env.plan(t, trainer, planInput("Old", domain.CategoryYoga, 10, 30))
		sub, err := env.subscriptions.Subscribe(ctx, member.ID, plan.ID)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := env.subscriptions.Unsubscribe(ctx, member.ID, sub.ID); err != nil {
			t.Fatal(err)
		}
		before := env.reloadUser(t, trainer.ID).TotalPlans

		if err := env.plans.DeletePlan(ctx, trainer.ID, plan.ID); err != nil {
			t.Fatalf("DeletePlan() error = %v", err)
		}
		if got := env.reloadPlan(t, plan.ID); got.IsPublished {
			t.Error("plan still published after soft delete")
		}
		if got := env.reloadUser(t, trainer.ID).TotalPlans; got != before-1 {
			t.Errorf("totalPlans = %d, want %d", got, before-1)
		}
	})

	t.Run("no history means hard delete", func(t *testing.T) {
		plan := env.plan(t, trainer, planInput("Fresh", domain.CategoryYoga, 10, 30))
		if err := env.plans.DeletePlan(ctx, trainer.ID, plan.ID); err != nil {
			t.Fatalf("DeletePlan() error = %v", err)
		}
		if _, err := env.repos.Plans.GetByID(ctx, plan.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Errorf("GetByID() error = %v, want not found", err)
		}
	})

	t.Run("owner only", func(t *testing.T) {
		plan := env.plan(t, trainer, planInput("Mine", domain.CategoryYoga, 10, 30))
		err := env.plans.DeletePlan(ctx, env.trainer(t).ID, plan.ID)
		assertErrorIs(t, err, ErrNotPlanOwner)
	})
}

func TestListTrainerPlans(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	first := env.plan(t, trainer, planInput("First", domain.CategoryYoga, 1, 5))
	last := env.plan(t, trainer, planInput("Last", domain.CategoryYoga, 1, 5))
	draft := planInput("Draft", domain.CategoryYoga, 1, 5)
	draft.IsPublished = boolPtr(false)
	env.plan(t, trainer, draft)

	page, err := env.plans.ListTrainerPlans(ctx, trainer.ID, domain.NewPageRequest(1, 10))
	if err != nil {
		t.Fatalf("ListTrainerPlans() error = %v", err)
	}
	if page.Pagination.Total != 2 || page.Items[0].ID != last.ID || page.Items[1].ID != first.ID {
		t.Errorf("plans = %+v, want [Last First]", page.Items)
	}
}

func TestCoverUpload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	plan := env.plan(t, trainer, planInput("Covered", domain.CategoryYoga, 1, 5))

	_, err := env.plans.RequestCoverUpload(ctx, trainer.ID, plan.ID, "application/pdf")
	assertErrorIs(t, err, ErrUnsupportedContentType)

	ticket, err := env.plans.RequestCoverUpload(ctx, trainer.ID, plan.ID, "image/png")
	if err != nil {
		t.Fatalf("RequestCoverUpload() error = %v", err)
	}
	if !strings.HasPrefix(ticket.ObjectKey, storage.CoverKeyPrefix(plan.ID.Hex())) || ticket.UploadURL == "" {
		t.Errorf("ticket = %+v", ticket)
	}

	_, err = env.plans.ConfirmCoverUpload(ctx, trainer.ID, plan.ID, "plans/elsewhere/cover/x.png")
	assertErrorIs(t, err, ErrInvalidCoverKey)

	view, err := env.plans.ConfirmCoverUpload(ctx, trainer.ID, plan.ID, ticket.ObjectKey)
	if err != nil {
		t.Fatalf("ConfirmCoverUpload() error = %v", err)
	}
	if view.CoverImage != "https://cdn.test/"+ticket.ObjectKey {
		t.Errorf("coverImage = %q", view.CoverImage)
	}

	second, err := env.plans.RequestCoverUpload(ctx, trainer.ID, plan.ID, "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.plans.ConfirmCoverUpload(ctx, trainer.ID, plan.ID, second.ObjectKey); err != nil {
		t.Fatal(err)
	}
	if len(env.storage.deleted) != 1 || env.storage.deleted[0] != ticket.ObjectKey {
		t.Errorf("deleted objects = %v, want the first cover", env.storage.deleted)
	}
}

func TestCoverUpload_StorageDisabled(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	plan := env.plan(t, trainer, planInput("P", domain.CategoryYoga, 1, 5))

	plans := NewPlanService(env.repos, env.counters, nil, time.Minute, validator.New(), logger.Nop())
	_, err := plans.RequestCoverUpload(ctx, trainer.ID, plan.ID, "image/png")
	assertErrorIs(t, err, ErrStorageUnavailable)
}
