package service

import (
	"bytes"
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/repository"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// brokenUsers fails every counter write and delegates the rest.
type brokenUsers struct {
	repository.UserRepository
}

func (brokenUsers) ApplyCounterDelta(context.Context, primitive.ObjectID, domain.CounterDelta) error {
	return errors.New("write conflict")
}

type failureRecorder struct {
	metrics.Nop
	kinds []string
}

func (r *failureRecorder) RecordDenormalizationFailure(kind string) {
	r.kinds = append(r.kinds, kind)
}

func TestCountersFailuresAreLoggedAndCounted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trainer := env.trainer(t)
	plan := env.plan(t, trainer, planInput("Strength Base", domain.CategoryStrength, 20, 30))

	var buf bytes.Buffer
	rec := &failureRecorder{}
	repos := env.repos
	repos.Users = brokenUsers{UserRepository: env.repos.Users}
	counters := NewCounterService(repos, logger.New(logger.Config{Level: "error", Format: "json", Output: &buf}), rec)

	payment := &domain.Payment{ID: primitive.NewObjectID(), Amount: 20, Status: domain.PaymentCompleted}
	counters.PaymentCompleted(ctx, plan, payment)

	// The plan update is independent of the failed account update.
	if got := env.reloadPlan(t, plan.ID).SubscribersCount; got != 1 {
		t.Errorf("subscribersCount = %d, want 1", got)
	}
	if got := env.reloadUser(t, trainer.ID).TotalSubscribers; got != 0 {
		t.Errorf("totalSubscribers = %d, want 0", got)
	}
	if len(rec.kinds) != 1 || rec.kinds[0] != kindPaymentCompleted {
		t.Errorf("recorded failures = %v, want [%s]", rec.kinds, kindPaymentCompleted)
	}
	out := buf.String()
	if !strings.Contains(out, "denormalized counter update failed") || !strings.Contains(out, kindPaymentCompleted) {
		t.Errorf("log output = %q, want failure entry", out)
	}
}

func TestCountersSkipIncompletePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trainer := env.trainer(t)
	plan := env.plan(t, trainer, planInput("Cardio Burn", domain.CategoryCardio, 15, 14))

	env.counters.PaymentCompleted(ctx, plan, &domain.Payment{ID: primitive.NewObjectID(), Amount: 15, Status: domain.PaymentPending})

	if got := env.reloadPlan(t, plan.ID).SubscribersCount; got != 0 {
		t.Errorf("subscribersCount = %d, want 0", got)
	}
	if got := env.reloadUser(t, trainer.ID).TotalRevenue; got != 0 {
		t.Errorf("totalRevenue = %v, want 0", got)
	}
}

func TestCountersFollowRemovedClampsAtZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	trainer := env.trainer(t)
	member := env.member(t)

	env.counters.FollowRemoved(ctx, member.ID, trainer.ID)

	if got := env.reloadUser(t, trainer.ID).FollowersCount; got != 0 {
		t.Errorf("followersCount = %d, want 0", got)
	}
	if got := env.reloadUser(t, member.ID).FollowingCount; got != 0 {
		t.Errorf("followingCount = %d, want 0", got)
	}
}
