package service

import (
	"context"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/repository"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Denormalization kinds, used as log field and metric label.
const (
	kindPaymentCompleted = "payment_completed"
	kindFollowCreated    = "follow_created"
	kindFollowRemoved    = "follow_removed"
	kindPlanCreated      = "plan_created"
	kindPlanRemoved      = "plan_removed"
	kindReviewWritten    = "review_written"
)

// Counters applies denormalized counter updates after a primary write.
// Every method is fire-and-forget: failures are logged and counted, never
// returned to the caller and never retried. Reconcile repairs any drift.
type Counters interface {
	PaymentCompleted(ctx context.Context, plan *domain.Plan, payment *domain.Payment)
	FollowCreated(ctx context.Context, followerID, trainerID primitive.ObjectID)
	FollowRemoved(ctx context.Context, followerID, trainerID primitive.ObjectID)
	PlanCreated(ctx context.Context, trainerID primitive.ObjectID)
	PlanRemoved(ctx context.Context, trainerID primitive.ObjectID)
	ReviewWritten(ctx context.Context, plan *domain.Plan)
}

// counterService implements Counters.
type counterService struct {
	users   repository.UserRepository
	plans   repository.PlanRepository
	reviews repository.ReviewRepository
	log     *logger.Logger
	metrics metrics.Recorder
}

// NewCounterService creates the counter denormalizer.
func NewCounterService(repos repository.Repositories, log *logger.Logger, rec metrics.Recorder) Counters {
	return &counterService{
		users:   repos.Users,
		plans:   repos.Plans,
		reviews: repos.Reviews,
		log:     log,
		metrics: rec,
	}
}

func (s *counterService) fail(kind string, err error, fields map[string]interface{}) {
	fields["kind"] = kind
	s.log.WithFields(fields).WithError(err).Error("denormalized counter update failed")
	s.metrics.RecordDenormalizationFailure(kind)
}

// PaymentCompleted credits the trainer with revenue and a subscriber and
// bumps the plan's subscriber count.
func (s *counterService) PaymentCompleted(ctx context.Context, plan *domain.Plan, payment *domain.Payment) {
	if !payment.IsCompleted() {
		return
	}
	delta := domain.CounterDelta{TotalRevenue: payment.Amount, TotalSubscribers: 1}
	if err := s.users.ApplyCounterDelta(ctx, plan.TrainerID, delta); err != nil {
		s.fail(kindPaymentCompleted, err, map[string]interface{}{"trainerId": plan.TrainerID.Hex(), "paymentId": payment.ID.Hex()})
	}
	if err := s.plans.IncrementSubscribers(ctx, plan.ID, 1); err != nil {
		s.fail(kindPaymentCompleted, err, map[string]interface{}{"planId": plan.ID.Hex(), "paymentId": payment.ID.Hex()})
	}
}

func (s *counterService) FollowCreated(ctx context.Context, followerID, trainerID primitive.ObjectID) {
	s.adjustFollow(ctx, kindFollowCreated, followerID, trainerID, 1)
}

// FollowRemoved decrements both endpoints; stores clamp at zero.
func (s *counterService) FollowRemoved(ctx context.Context, followerID, trainerID primitive.ObjectID) {
	s.adjustFollow(ctx, kindFollowRemoved, followerID, trainerID, -1)
}

func (s *counterService) adjustFollow(ctx context.Context, kind string, followerID, trainerID primitive.ObjectID, step int) {
	if err := s.users.ApplyCounterDelta(ctx, trainerID, domain.CounterDelta{FollowersCount: step}); err != nil {
		s.fail(kind, err, map[string]interface{}{"trainerId": trainerID.Hex()})
	}
	if err := s.users.ApplyCounterDelta(ctx, followerID, domain.CounterDelta{FollowingCount: step}); err != nil {
		s.fail(kind, err, map[string]interface{}{"followerId": followerID.Hex()})
	}
}

func (s *counterService) PlanCreated(ctx context.Context, trainerID primitive.ObjectID) {
	if err := s.users.ApplyCounterDelta(ctx, trainerID, domain.CounterDelta{TotalPlans: 1}); err != nil {
		s.fail(kindPlanCreated, err, map[string]interface{}{"trainerId": trainerID.Hex()})
	}
}

func (s *counterService) PlanRemoved(ctx context.Context, trainerID primitive.ObjectID) {
	if err := s.users.ApplyCounterDelta(ctx, trainerID, domain.CounterDelta{TotalPlans: -1}); err != nil {
		s.fail(kindPlanRemoved, err, map[string]interface{}{"trainerId": trainerID.Hex()})
	}
}

// ReviewWritten recomputes the plan's rating, then the trainer's rating
// across every plan they own. Both are full scans of approved reviews.
func (s *counterService) ReviewWritten(ctx context.Context, plan *domain.Plan) {
	if _, err := recomputePlanRating(ctx, s.plans, s.reviews, plan.ID); err != nil {
		s.fail(kindReviewWritten, err, map[string]interface{}{"planId": plan.ID.Hex()})
	}
	if _, err := recomputeTrainerRating(ctx, s.users, s.plans, s.reviews, plan.TrainerID); err != nil {
		s.fail(kindReviewWritten, err, map[string]interface{}{"trainerId": plan.TrainerID.Hex()})
	}
}

// planRatingAggregate computes the rating aggregate of one plan from its approved reviews.
func planRatingAggregate(ctx context.Context, reviews repository.ReviewRepository, planID primitive.ObjectID) (domain.RatingAggregate, error) {
	ratings, err := reviews.ApprovedRatings(ctx, []primitive.ObjectID{planID})
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("load ratings for plan %s: %w", planID.Hex(), err)
	}
	return domain.RatingAggregate{Average: domain.AverageRating(ratings), Count: len(ratings)}, nil
}

func recomputePlanRating(ctx context.Context, plans repository.PlanRepository, reviews repository.ReviewRepository, planID primitive.ObjectID) (domain.RatingAggregate, error) {
	agg, err := planRatingAggregate(ctx, reviews, planID)
	if err != nil {
		return agg, err
	}
	return agg, plans.SetRatingAggregate(ctx, planID, agg)
}

// trainerRatingAggregate computes a trainer's rating across all owned plans.
func trainerRatingAggregate(ctx context.Context, plans repository.PlanRepository, reviews repository.ReviewRepository, trainerID primitive.ObjectID) (domain.RatingAggregate, error) {
	planIDs, err := plans.IDsByTrainer(ctx, trainerID)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("load plans of trainer %s: %w", trainerID.Hex(), err)
	}
	if len(planIDs) == 0 {
		return domain.RatingAggregate{}, nil
	}
	ratings, err := reviews.ApprovedRatings(ctx, planIDs)
	if err != nil {
		return domain.RatingAggregate{}, fmt.Errorf("load ratings of trainer %s: %w", trainerID.Hex(), err)
	}
	return domain.RatingAggregate{Average: domain.AverageRating(ratings), Count: len(ratings)}, nil
}

func recomputeTrainerRating(ctx context.Context, users repository.UserRepository, plans repository.PlanRepository, reviews repository.ReviewRepository, trainerID primitive.ObjectID) (domain.RatingAggregate, error) {
	agg, err := trainerRatingAggregate(ctx, plans, reviews, trainerID)
	if err != nil {
		return agg, err
	}
	return agg, users.SetRating(ctx, trainerID, agg)
}
