package service

import (
	"context"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"fmt"
)

// StatsComputer builds the dashboard of one account role.
type StatsComputer interface {
	Stats(ctx context.Context, account *domain.User) (interface{}, error)
}

// StatsFor returns the computer for role. Unknown roles get the member dashboard.
func StatsFor(repos repository.Repositories, role domain.Role) StatsComputer {
	switch role {
	case domain.RoleTrainer:
		return trainerStats{repos: repos}
	case domain.RoleAdmin:
		return platformStats{repos: repos}
	default:
		return memberStats{repos: repos}
	}
}

type trainerStats struct{ repos repository.Repositories }

// Stats counts subscribers and revenue live from the ledger; rating and
// follower figures come from the denormalized account fields.
func (c trainerStats) Stats(ctx context.Context, account *domain.User) (interface{}, error) {
	stats := domain.TrainerStats{
		AverageRating:  account.Rating,
		FollowersCount: account.FollowersCount,
		TotalReviews:   account.TotalReviews,
	}

	planIDs, err := c.repos.Plans.IDsByTrainer(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("load trainer plans: %w", err)
	}
	stats.TotalPlans = int64(len(planIDs))
	if len(planIDs) == 0 {
		return stats, nil
	}

	stats.TotalSubscribers, err = c.repos.Subscriptions.Count(ctx, repository.SubscriptionFilter{
		PlanIDs: planIDs,
		Status:  domain.SubscriptionActive,
	})
	if err != nil {
		return nil, fmt.Errorf("count active subscribers: %w", err)
	}
	stats.TotalRevenue, err = c.repos.Payments.SumCompleted(ctx, repository.PaymentFilter{PlanIDs: planIDs})
	if err != nil {
		return nil, fmt.Errorf("sum trainer revenue: %w", err)
	}
	return stats, nil
}

type memberStats struct{ repos repository.Repositories }

func (c memberStats) Stats(ctx context.Context, account *domain.User) (interface{}, error) {
	var (
		stats domain.MemberStats
		err   error
	)
	userID := account.ID
	active := repository.SubscriptionFilter{UserID: &userID, Status: domain.SubscriptionActive}

	if stats.ActiveSubscriptions, err = c.repos.Subscriptions.Count(ctx, active); err != nil {
		return nil, fmt.Errorf("count active subscriptions: %w", err)
	}
	if stats.FollowingCount, err = c.repos.Follows.CountByFollower(ctx, userID); err != nil {
		return nil, fmt.Errorf("count following: %w", err)
	}
	if stats.TotalSpent, err = c.repos.Payments.SumCompleted(ctx, repository.PaymentFilter{UserID: &userID}); err != nil {
		return nil, fmt.Errorf("sum spending: %w", err)
	}
	if stats.TotalPlansPurchased, err = c.repos.Subscriptions.Count(ctx, repository.SubscriptionFilter{UserID: &userID}); err != nil {
		return nil, fmt.Errorf("count purchases: %w", err)
	}

	subs, err := c.repos.Subscriptions.List(ctx, active, domain.PageRequest{})
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	for _, sub := range subs {
		stats.CompletedWorkouts += len(sub.CompletedWorkouts)
	}
	return stats, nil
}

type platformStats struct{ repos repository.Repositories }

func (c platformStats) Stats(ctx context.Context, _ *domain.User) (interface{}, error) {
	var (
		stats domain.PlatformStats
		err   error
	)
	if stats.TotalUsers, err = c.repos.Users.CountByRole(ctx, domain.RoleUser); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.TotalTrainers, err = c.repos.Users.CountByRole(ctx, domain.RoleTrainer); err != nil {
		return nil, fmt.Errorf("count trainers: %w", err)
	}
	if stats.PublishedPlans, err = c.repos.Plans.Count(ctx, domain.PlanFilter{PublishedOnly: true}); err != nil {
		return nil, fmt.Errorf("count plans: %w", err)
	}
	if stats.ActiveSubscriptions, err = c.repos.Subscriptions.Count(ctx, repository.SubscriptionFilter{Status: domain.SubscriptionActive}); err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	if stats.TotalRevenue, err = c.repos.Payments.SumCompleted(ctx, repository.PaymentFilter{}); err != nil {
		return nil, fmt.Errorf("sum revenue: %w", err)
	}
	return stats, nil
}
