package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/repository"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// profilePlanSample is how many published plans a trainer profile shows.
const profilePlanSample = 6

// trainerSortFields maps directory sort keys to stored fields.
var trainerSortFields = map[string]string{
	"rating":      "rating",
	"followers":   "followersCount",
	"subscribers": "totalSubscribers",
	"experience":  "yearsOfExperience",
	"newest":      "createdAt",
}

// SocialService manages follow edges and the trainer directory.
type SocialService interface {
	Follow(ctx context.Context, followerID, trainerID primitive.ObjectID) (*domain.Follow, *domain.User, error)
	Unfollow(ctx context.Context, followerID, trainerID primitive.ObjectID) error
	ListFollowing(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.User], error)
	ListFollowers(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.User], error)
	ListTrainers(ctx context.Context, filter domain.TrainerFilter, sort, order string, page domain.PageRequest, viewer *primitive.ObjectID) (*domain.Page[domain.TrainerView], error)
	GetProfile(ctx context.Context, id primitive.ObjectID, viewer *primitive.ObjectID) (*domain.ProfileView, error)
}

// socialService implements SocialService.
type socialService struct {
	repos    repository.Repositories
	counters Counters
	metrics  metrics.Recorder
}

// NewSocialService creates a new instance of socialService.
func NewSocialService(repos repository.Repositories, counters Counters, rec metrics.Recorder) SocialService {
	return &socialService{repos: repos, counters: counters, metrics: rec}
}

// Follow creates the edge follower -> trainer and bumps both counters.
func (s *socialService) Follow(ctx context.Context, followerID, trainerID primitive.ObjectID) (*domain.Follow, *domain.User, error) {
	trainer, err := s.repos.Users.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrTrainerNotFound
		}
		return nil, nil, fmt.Errorf("load trainer: %w", err)
	}
	if !trainer.IsTrainer() || !trainer.IsActive {
		return nil, nil, ErrTrainerNotFound
	}
	if followerID == trainerID {
		return nil, nil, ErrSelfFollow
	}

	exists, err := s.repos.Follows.Exists(ctx, followerID, trainerID)
	if err != nil {
		return nil, nil, fmt.Errorf("check follow: %w", err)
	}
	if exists {
		return nil, nil, ErrAlreadyFollowing
	}

	follow := &domain.Follow{Follower: followerID, Following: trainerID, NotificationsEnabled: true}
	if _, err := s.repos.Follows.Create(ctx, follow); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, ErrAlreadyFollowing
		}
		return nil, nil, fmt.Errorf("create follow: %w", err)
	}

	s.counters.FollowCreated(ctx, followerID, trainerID)
	s.metrics.RecordFollow("follow")
	return follow, trainer, nil
}

// Unfollow removes the edge and decrements both counters. Only the call
// that actually deletes the edge touches the counters.
func (s *socialService) Unfollow(ctx context.Context, followerID, trainerID primitive.ObjectID) error {
	if err := s.repos.Follows.Delete(ctx, followerID, trainerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFollowing
		}
		return fmt.Errorf("delete follow: %w", err)
	}
	s.counters.FollowRemoved(ctx, followerID, trainerID)
	s.metrics.RecordFollow("unfollow")
	return nil
}

// ListFollowing lists the trainers userID follows, most recent edge first.
func (s *socialService) ListFollowing(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.User], error) {
	edges, err := s.repos.Follows.ListByFollower(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("list following: %w", err)
	}
	total, err := s.repos.Follows.CountByFollower(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count following: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Following)
	}
	return s.accountsPage(ctx, ids, page, total)
}

// ListFollowers lists the accounts following userID, most recent edge first.
func (s *socialService) ListFollowers(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.User], error) {
	edges, err := s.repos.Follows.ListByFollowing(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("list followers: %w", err)
	}
	total, err := s.repos.Follows.CountByFollowing(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count followers: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Follower)
	}
	return s.accountsPage(ctx, ids, page, total)
}

// accountsPage resolves ids to accounts preserving the order of ids.
func (s *socialService) accountsPage(ctx context.Context, ids []primitive.ObjectID, page domain.PageRequest, total int64) (*domain.Page[domain.User], error) {
	users, err := s.repos.Users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	byID := make(map[primitive.ObjectID]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	items := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			items = append(items, u)
		}
	}
	return &domain.Page[domain.User]{Items: items, Pagination: domain.NewPagination(page, total)}, nil
}

// ListTrainers browses active trainers. Unknown sort keys fall back to rating;
// any order other than "asc" sorts descending.
func (s *socialService) ListTrainers(ctx context.Context, filter domain.TrainerFilter, sort, order string, page domain.PageRequest, viewer *primitive.ObjectID) (*domain.Page[domain.TrainerView], error) {
	field, ok := trainerSortFields[sort]
	if !ok {
		field = "rating"
	}
	keys := domain.Sort{{Field: field, Desc: order != "asc"}}

	trainers, err := s.repos.Users.FindTrainers(ctx, filter, keys, page)
	if err != nil {
		return nil, fmt.Errorf("find trainers: %w", err)
	}
	total, err := s.repos.Users.CountTrainers(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count trainers: %w", err)
	}

	var following map[primitive.ObjectID]bool
	if viewer != nil {
		ids, err := s.repos.Follows.FollowingIDs(ctx, *viewer)
		if err != nil {
			return nil, fmt.Errorf("load following: %w", err)
		}
		following = make(map[primitive.ObjectID]bool, len(ids))
		for _, id := range ids {
			following[id] = true
		}
	}

	items := make([]domain.TrainerView, 0, len(trainers))
	for _, t := range trainers {
		view := domain.TrainerView{User: t}
		if following != nil {
			f := following[t.ID]
			view.IsFollowing = &f
		}
		items = append(items, view)
	}
	return &domain.Page[domain.TrainerView]{Items: items, Pagination: domain.NewPagination(page, total)}, nil
}

// GetProfile returns a public profile. Trainers include up to six published plans.
func (s *socialService) GetProfile(ctx context.Context, id primitive.ObjectID, viewer *primitive.ObjectID) (*domain.ProfileView, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	view := &domain.ProfileView{User: *user, Plans: []domain.Plan{}}
	if viewer != nil && *viewer != id {
		if view.IsFollowing, err = s.repos.Follows.Exists(ctx, *viewer, id); err != nil {
			return nil, fmt.Errorf("check follow: %w", err)
		}
	}
	if user.IsTrainer() {
		filter := domain.PlanFilter{PublishedOnly: true, TrainerID: &id}
		view.Plans, err = s.repos.Plans.Find(ctx, filter, newestPlansFirst, domain.PageRequest{Page: 1, Limit: profilePlanSample})
		if err != nil {
			return nil, fmt.Errorf("load trainer plans: %w", err)
		}
	}
	return view, nil
}
