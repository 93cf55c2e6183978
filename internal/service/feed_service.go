package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/pkg/validator"
	"fitplanhub/backend/internal/repository"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// popularityOrder ranks plans by subscribers, then rating.
var popularityOrder = domain.Sort{
	{Field: "subscribersCount", Desc: true},
	{Field: "averageRating", Desc: true},
}

var recommendedOrder = domain.Sort{
	{Field: "averageRating", Desc: true},
	{Field: "subscribersCount", Desc: true},
}

// planSortFields maps catalog sort keys to stored fields.
var planSortFields = map[string]string{
	"price":       "price",
	"rating":      "averageRating",
	"subscribers": "subscribersCount",
	"createdAt":   "createdAt",
}

// planSort resolves a validated catalog sort key. An empty key sorts by
// createdAt and an empty order is descending. Popularity ignores order.
func planSort(key, order string) domain.Sort {
	if key == "popularity" {
		return popularityOrder
	}
	field, ok := planSortFields[key]
	if !ok {
		field = "createdAt"
	}
	return domain.Sort{{Field: field, Desc: order != "asc"}}
}

// FeedService composes the read side: feed, catalog browse, recommendations
// and dashboards.
type FeedService interface {
	GetFeed(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Feed, error)
	ListPlans(ctx context.Context, query domain.PlanQuery, viewer *primitive.ObjectID) (*domain.Page[domain.PlanView], error)
	Recommended(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.PlanView], error)
	DashboardStats(ctx context.Context, userID primitive.ObjectID) (interface{}, error)
}

// feedService implements FeedService.
type feedService struct {
	repos    repository.Repositories
	validate *validator.Validator
}

// NewFeedService creates a new instance of feedService.
func NewFeedService(repos repository.Repositories, v *validator.Validator) FeedService {
	return &feedService{repos: repos, validate: v}
}

// GetFeed returns plans from followed trainers, newest first. Users who follow
// nobody get the popular catalog instead.
func (s *feedService) GetFeed(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Feed, error) {
	following, err := s.repos.Follows.FollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load followed trainers: %w", err)
	}

	if len(following) == 0 {
		result, err := findPlanPage(ctx, s.repos, domain.PlanFilter{PublishedOnly: true}, popularityOrder, page, nil)
		if err != nil {
			return nil, err
		}
		return &domain.Feed{FeedType: domain.FeedPopular, Page: *result}, nil
	}

	filter := domain.PlanFilter{PublishedOnly: true, TrainerIDs: following}
	result, err := findPlanPage(ctx, s.repos, filter, newestPlansFirst, page, &userID)
	if err != nil {
		return nil, err
	}
	return &domain.Feed{FeedType: domain.FeedFollowing, Page: *result}, nil
}

// ListPlans browses published plans. Authenticated viewers get isSubscribed.
// Malformed filters, sort keys and page bounds are rejected with 422.
func (s *feedService) ListPlans(ctx context.Context, query domain.PlanQuery, viewer *primitive.ObjectID) (*domain.Page[domain.PlanView], error) {
	if err := s.validate.Check(query); err != nil {
		return nil, err
	}
	if query.MinPrice != nil && query.MaxPrice != nil && *query.MinPrice > *query.MaxPrice {
		return nil, ErrInvalidPriceRange
	}
	return findPlanPage(ctx, s.repos, query.Filter(), planSort(query.Sort, query.Order), query.PageRequest(), viewer)
}

// Recommended suggests published plans in the categories of the user's active
// subscriptions, excluding the plans they are already subscribed to.
func (s *feedService) Recommended(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.PlanView], error) {
	active, err := s.repos.Subscriptions.ActivePlanIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load active subscriptions: %w", err)
	}

	seen := make(map[string]bool)
	categories := []string{}
	for _, id := range active {
		plan, err := s.repos.Plans.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load subscribed plan: %w", err)
		}
		if !seen[plan.Category] {
			seen[plan.Category] = true
			categories = append(categories, plan.Category)
		}
	}
	if len(categories) == 0 {
		return emptyPlanPage(page), nil
	}

	filter := domain.PlanFilter{PublishedOnly: true, Categories: categories, ExcludeIDs: active}
	return findPlanPage(ctx, s.repos, filter, recommendedOrder, page, &userID)
}

// DashboardStats computes the dashboard for the account's role.
func (s *feedService) DashboardStats(ctx context.Context, userID primitive.ObjectID) (interface{}, error) {
	account, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load account: %w", err)
	}
	return StatsFor(s.repos, account.Role).Stats(ctx, account)
}
