package service

import (
	"context"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/repository"
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReconcileService recomputes denormalized counters from source records.
type ReconcileService interface {
	Reconcile(ctx context.Context, dryRun bool) (*domain.ReconcileReport, error)
}

// reconcileService implements ReconcileService.
type reconcileService struct {
	repos repository.Repositories
	log   *logger.Logger
}

// NewReconcileService creates a new instance of reconcileService.
func NewReconcileService(repos repository.Repositories, log *logger.Logger) ReconcileService {
	return &reconcileService{repos: repos, log: log.With("component", "reconcile")}
}

// Reconcile walks every plan and account, reports each drifted field and,
// unless dryRun is set, overwrites the stored values.
//
// Plan subscribersCount and trainer totals are recomputed from completed
// payments, matching how they are incremented on subscribe.
func (s *reconcileService) Reconcile(ctx context.Context, dryRun bool) (*domain.ReconcileReport, error) {
	report := &domain.ReconcileReport{DryRun: dryRun, Drift: []domain.Drift{}}

	plans, err := s.repos.Plans.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	for i := range plans {
		if err := s.reconcilePlan(ctx, &plans[i], report); err != nil {
			return nil, err
		}
	}

	users, err := s.repos.Users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	for i := range users {
		if err := s.reconcileUser(ctx, &users[i], report); err != nil {
			return nil, err
		}
	}

	s.log.WithFields(map[string]interface{}{
		"plans":    report.PlansChecked,
		"accounts": report.UsersChecked,
		"drift":    len(report.Drift),
		"repaired": report.Repaired,
		"dryRun":   dryRun,
	}).Info("reconciliation finished")
	return report, nil
}

func (s *reconcileService) reconcilePlan(ctx context.Context, plan *domain.Plan, report *domain.ReconcileReport) error {
	report.PlansChecked++
	id := plan.ID.Hex()

	subscribers, err := s.repos.Payments.CountCompleted(ctx, repository.PaymentFilter{PlanIDs: []primitive.ObjectID{plan.ID}})
	if err != nil {
		return fmt.Errorf("count payments of plan %s: %w", id, err)
	}
	rating, err := planRatingAggregate(ctx, s.repos.Reviews, plan.ID)
	if err != nil {
		return err
	}

	if int(subscribers) != plan.SubscribersCount {
		report.Drift = append(report.Drift, domain.Drift{Collection: "plans", ID: id, Field: "subscribersCount", Stored: plan.SubscribersCount, Actual: subscribers})
		if !report.DryRun {
			if err := s.repos.Plans.SetSubscribersCount(ctx, plan.ID, int(subscribers)); err != nil {
				return fmt.Errorf("repair plan %s: %w", id, err)
			}
			report.Repaired++
		}
	}

	stored := domain.RatingAggregate{Average: plan.AverageRating, Count: plan.TotalReviews}
	if !sameRating(stored, rating) {
		report.Drift = append(report.Drift, domain.Drift{Collection: "plans", ID: id, Field: "rating", Stored: stored, Actual: rating})
		if !report.DryRun {
			if err := s.repos.Plans.SetRatingAggregate(ctx, plan.ID, rating); err != nil {
				return fmt.Errorf("repair plan %s rating: %w", id, err)
			}
			report.Repaired++
		}
	}
	return nil
}

func (s *reconcileService) reconcileUser(ctx context.Context, user *domain.User, report *domain.ReconcileReport) error {
	report.UsersChecked++
	actual, err := s.accountCounters(ctx, user)
	if err != nil {
		return err
	}

	stored := user.Counters()
	drifted := counterDrift(user.ID.Hex(), stored, actual)
	if len(drifted) == 0 {
		return nil
	}
	report.Drift = append(report.Drift, drifted...)
	if report.DryRun {
		return nil
	}
	if err := s.repos.Users.SetCounters(ctx, user.ID, actual); err != nil {
		return fmt.Errorf("repair account %s: %w", user.ID.Hex(), err)
	}
	report.Repaired++
	return nil
}

// accountCounters recomputes every counter of user from the source collections.
func (s *reconcileService) accountCounters(ctx context.Context, user *domain.User) (domain.AccountCounters, error) {
	var c domain.AccountCounters
	id := user.ID

	followers, err := s.repos.Follows.CountByFollowing(ctx, id)
	if err != nil {
		return c, fmt.Errorf("count followers of %s: %w", id.Hex(), err)
	}
	following, err := s.repos.Follows.CountByFollower(ctx, id)
	if err != nil {
		return c, fmt.Errorf("count following of %s: %w", id.Hex(), err)
	}
	c.FollowersCount = int(followers)
	c.FollowingCount = int(following)

	if !user.IsTrainer() {
		return c, nil
	}

	published, err := s.repos.Plans.Count(ctx, domain.PlanFilter{PublishedOnly: true, TrainerID: &id})
	if err != nil {
		return c, fmt.Errorf("count plans of %s: %w", id.Hex(), err)
	}
	c.TotalPlans = int(published)

	planIDs, err := s.repos.Plans.IDsByTrainer(ctx, id)
	if err != nil {
		return c, fmt.Errorf("load plans of %s: %w", id.Hex(), err)
	}
	if len(planIDs) > 0 {
		filter := repository.PaymentFilter{PlanIDs: planIDs}
		subscribers, err := s.repos.Payments.CountCompleted(ctx, filter)
		if err != nil {
			return c, fmt.Errorf("count payments of %s: %w", id.Hex(), err)
		}
		revenue, err := s.repos.Payments.SumCompleted(ctx, filter)
		if err != nil {
			return c, fmt.Errorf("sum revenue of %s: %w", id.Hex(), err)
		}
		c.TotalSubscribers = int(subscribers)
		c.TotalRevenue = revenue
	}

	rating, err := trainerRatingAggregate(ctx, s.repos.Plans, s.repos.Reviews, id)
	if err != nil {
		return c, err
	}
	c.Rating = rating.Average
	c.TotalReviews = rating.Count
	return c, nil
}

func counterDrift(id string, stored, actual domain.AccountCounters) []domain.Drift {
	var out []domain.Drift
	add := func(field string, s, a interface{}) {
		out = append(out, domain.Drift{Collection: "users", ID: id, Field: field, Stored: s, Actual: a})
	}
	if stored.FollowersCount != actual.FollowersCount {
		add("followersCount", stored.FollowersCount, actual.FollowersCount)
	}
	if stored.FollowingCount != actual.FollowingCount {
		add("followingCount", stored.FollowingCount, actual.FollowingCount)
	}
	if stored.TotalSubscribers != actual.TotalSubscribers {
		add("totalSubscribers", stored.TotalSubscribers, actual.TotalSubscribers)
	}
	if !sameAmount(stored.TotalRevenue, actual.TotalRevenue) {
		add("totalRevenue", stored.TotalRevenue, actual.TotalRevenue)
	}
	if stored.TotalPlans != actual.TotalPlans {
		add("totalPlans", stored.TotalPlans, actual.TotalPlans)
	}
	if !sameRating(domain.RatingAggregate{Average: stored.Rating, Count: stored.TotalReviews}, domain.RatingAggregate{Average: actual.Rating, Count: actual.TotalReviews}) {
		add("rating", stored.Rating, actual.Rating)
	}
	return out
}

func sameAmount(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func sameRating(a, b domain.RatingAggregate) bool {
	return a.Count == b.Count && math.Abs(a.Average-b.Average) < 0.05
}
