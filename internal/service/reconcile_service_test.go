package service

import (
	"context"
	"fitplanhub/backend/internal/domain"
	"testing"
)

func TestReconcile_RepairsDrift(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	trainer := env.trainer(t)
	member := env.member(t)
	plan := env.plan(t, trainer, planInput("P", domain.CategoryYoga, 20, 10))

	if _, _, err := env.social.Follow(ctx, member.ID, trainer.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.subscriptions.Subscribe(ctx, member.ID, plan.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := env.reviews.SubmitReview(ctx, member.ID, plan.ID, domain.ReviewInput{Rating: 4, Comment: "ok"}); err != nil {
		t.Fatal(err)
	}

	clean, err := env.reconcile.Reconcile(ctx, true)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(clean.Drift) != 0 {
		t.Fatalf("drift on consistent data: %+v", clean.Drift)
	}

	// Simulate lost counter writes.
	if err := env.repos.Users.ApplyCounterDelta(ctx, trainer.ID, domain.CounterDelta{FollowersCount: 3, TotalRevenue: -20}); err != nil {
		t.Fatal(err)
	}
	if err := env.repos.Plans.SetSubscribersCount(ctx, plan.ID, 7); err != nil {
		t.Fatal(err)
	}

	dry, err := env.reconcile.Reconcile(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(dry.Drift) != 3 || dry.Repaired != 0 {
		t.Fatalf("dry run drift = %+v, repaired = %d, want 3 fields and no repairs", dry.Drift, dry.Repaired)
	}
	if got := env.reloadPlan(t, plan.ID).SubscribersCount; got != 7 {
		t.Errorf("dry run changed subscribersCount to %d", got)
	}

	report, err := env.reconcile.Reconcile(ctx, false)
	if err != nil {
		t.Fatal(err)
	}
	if report.Repaired != 2 || report.PlansChecked != 1 || report.UsersChecked != 2 {
		t.Errorf("report = %+v, want 2 repairs over 1 plan and 2 accounts", report)
	}

	gotTrainer := env.reloadUser(t, trainer.ID)
	if gotTrainer.FollowersCount != 1 || gotTrainer.TotalRevenue != 20 || gotTrainer.Rating != 4 {
		t.Errorf("trainer counters = %+v", gotTrainer.Counters())
	}
	if got := env.reloadPlan(t, plan.ID).SubscribersCount; got != 1 {
		t.Errorf("subscribersCount = %d, want 1", got)
	}

	again, err := env.reconcile.Reconcile(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(again.Drift) != 0 {
		t.Errorf("drift after repair: %+v", again.Drift)
	}
}
