package service

import (
	"context"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// planViews attaches trainer summaries to plans and, when viewer is set,
// the viewer's isSubscribed flag from their active-subscription plan set.
func planViews(ctx context.Context, repos repository.Repositories, plans []domain.Plan, viewer *primitive.ObjectID) ([]domain.PlanView, error) {
	views := make([]domain.PlanView, 0, len(plans))
	if len(plans) == 0 {
		return views, nil
	}

	trainerIDs := make([]primitive.ObjectID, 0, len(plans))
	seen := make(map[primitive.ObjectID]bool, len(plans))
	for _, p := range plans {
		if !seen[p.TrainerID] {
			seen[p.TrainerID] = true
			trainerIDs = append(trainerIDs, p.TrainerID)
		}
	}
	trainers, err := repos.Users.GetByIDs(ctx, trainerIDs)
	if err != nil {
		return nil, fmt.Errorf("load plan trainers: %w", err)
	}
	byID := make(map[primitive.ObjectID]*domain.User, len(trainers))
	for i := range trainers {
		byID[trainers[i].ID] = &trainers[i]
	}

	var subscribed map[primitive.ObjectID]bool
	if viewer != nil {
		subscribed, err = activePlanSet(ctx, repos.Subscriptions, *viewer)
		if err != nil {
			return nil, err
		}
	}

	for _, p := range plans {
		view := domain.PlanView{Plan: p, Trainer: domain.SummarizeTrainer(byID[p.TrainerID])}
		if subscribed != nil {
			isSub := subscribed[p.ID]
			view.IsSubscribed = &isSub
		}
		views = append(views, view)
	}
	return views, nil
}

func activePlanSet(ctx context.Context, subs repository.SubscriptionRepository, userID primitive.ObjectID) (map[primitive.ObjectID]bool, error) {
	ids, err := subs.ActivePlanIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active subscriptions: %w", err)
	}
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// planView annotates a single plan.
func planView(ctx context.Context, repos repository.Repositories, plan *domain.Plan, viewer *primitive.ObjectID) (*domain.PlanView, error) {
	views, err := planViews(ctx, repos, []domain.Plan{*plan}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// findPlanPage runs a paged plan query plus its count and annotates the results.
func findPlanPage(ctx context.Context, repos repository.Repositories, filter domain.PlanFilter, sort domain.Sort, page domain.PageRequest, viewer *primitive.ObjectID) (*domain.Page[domain.PlanView], error) {
	plans, err := repos.Plans.Find(ctx, filter, sort, page)
	if err != nil {
		return nil, fmt.Errorf("find plans: %w", err)
	}
	total, err := repos.Plans.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count plans: %w", err)
	}
	views, err := planViews(ctx, repos, plans, viewer)
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.PlanView]{Items: views, Pagination: domain.NewPagination(page, total)}, nil
}

func emptyPlanPage(page domain.PageRequest) *domain.Page[domain.PlanView] {
	return &domain.Page[domain.PlanView]{Items: []domain.PlanView{}, Pagination: domain.NewPagination(page, 0)}
}
