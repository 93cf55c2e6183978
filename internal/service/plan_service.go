package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/pkg/validator"
	"fitplanhub/backend/internal/repository"
	"fitplanhub/backend/internal/storage"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	relatedPlansLimit = 4
	recentReviewLimit = 10
)

var newestPlansFirst = domain.Sort{{Field: "createdAt", Desc: true}}

// PlanService manages the plan catalog owned by trainers.
type PlanService interface {
	CreatePlan(ctx context.Context, trainerID primitive.ObjectID, input domain.PlanInput) (*domain.PlanView, error)
	GetPlan(ctx context.Context, planID primitive.ObjectID, viewer *primitive.ObjectID) (*domain.PlanDetails, error)
	UpdatePlan(ctx context.Context, trainerID, planID primitive.ObjectID, patch domain.PlanPatch) (*domain.PlanView, error)
	DeletePlan(ctx context.Context, trainerID, planID primitive.ObjectID) error
	ListTrainerPlans(ctx context.Context, trainerID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.PlanView], error)
	RequestCoverUpload(ctx context.Context, trainerID, planID primitive.ObjectID, contentType string) (*domain.CoverUpload, error)
	ConfirmCoverUpload(ctx context.Context, trainerID, planID primitive.ObjectID, objectKey string) (*domain.PlanView, error)
}

// planService implements PlanService.
type planService struct {
	repos         repository.Repositories
	counters      Counters
	storage       storage.FileStorage // nil when media storage is disabled
	presignExpiry time.Duration
	validate      *validator.Validator
	log           *logger.Logger
	now           func() time.Time
}

// NewPlanService creates a new instance of planService. fileStorage may be nil.
func NewPlanService(repos repository.Repositories, counters Counters, fileStorage storage.FileStorage, presignExpiry time.Duration, v *validator.Validator, log *logger.Logger) PlanService {
	if presignExpiry <= 0 {
		presignExpiry = storage.DefaultPresignedURLExpiry
	}
	return &planService{
		repos:         repos,
		counters:      counters,
		storage:       fileStorage,
		presignExpiry: presignExpiry,
		validate:      v,
		log:           log.With("component", "catalog"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreatePlan validates input and stores a new plan owned by trainerID.
func (s *planService) CreatePlan(ctx context.Context, trainerID primitive.ObjectID, input domain.PlanInput) (*domain.PlanView, error) {
	trainer, err := s.repos.Users.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load trainer: %w", err)
	}
	if !trainer.IsTrainer() {
		return nil, ErrTrainerOnly
	}
	if err := s.validate.Check(input); err != nil {
		return nil, err
	}

	published := true
	if input.IsPublished != nil {
		published = *input.IsPublished
	}
	plan := &domain.Plan{
		TrainerID:       trainerID,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		FullDescription: input.FullDescription,
		Price:           input.Price,
		Duration:        input.Duration,
		Category:        input.Category,
		Difficulty:      input.Difficulty,
		WeeklyWorkouts:  input.WeeklyWorkouts,
		DailyTime:       input.DailyTime,
		Equipment:       input.Equipment,
		Tags:            input.Tags,
		Workouts:        input.Workouts,
		IsPublished:     published,
		IsFeatured:      input.IsFeatured,
	}
	if _, err := s.repos.Plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	if plan.IsPublished {
		s.counters.PlanCreated(ctx, trainerID)
	}

	s.log.WithFields(map[string]interface{}{"planId": plan.ID.Hex(), "trainerId": trainerID.Hex()}).Info("plan created")
	return &domain.PlanView{Plan: *plan, Trainer: domain.SummarizeTrainer(trainer)}, nil
}

// GetPlan returns a published plan with related plans and recent reviews.
// Unpublished plans are visible to their owner only.
func (s *planService) GetPlan(ctx context.Context, planID primitive.ObjectID, viewer *primitive.ObjectID) (*domain.PlanDetails, error) {
	plan, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsPublished && (viewer == nil || *viewer != plan.TrainerID) {
		return nil, ErrPlanNotFound
	}

	view, err := planView(ctx, s.repos, plan, viewer)
	if err != nil {
		return nil, err
	}

	relatedFilter := domain.PlanFilter{PublishedOnly: true, Category: plan.Category, ExcludeIDs: []primitive.ObjectID{plan.ID}}
	related, err := s.repos.Plans.Find(ctx, relatedFilter, popularityOrder, domain.PageRequest{Page: 1, Limit: relatedPlansLimit})
	if err != nil {
		return nil, fmt.Errorf("load related plans: %w", err)
	}
	relatedViews, err := planViews(ctx, s.repos, related, nil)
	if err != nil {
		return nil, err
	}

	reviews, err := s.repos.Reviews.ListApproved(ctx, plan.ID, domain.PageRequest{Page: 1, Limit: recentReviewLimit})
	if err != nil {
		return nil, fmt.Errorf("load plan reviews: %w", err)
	}

	return &domain.PlanDetails{PlanView: *view, RelatedPlans: relatedViews, Reviews: reviews}, nil
}

// UpdatePlan applies patch to a plan owned by trainerID. Publication toggles
// adjust the trainer's plan counter.
func (s *planService) UpdatePlan(ctx context.Context, trainerID, planID primitive.ObjectID, patch domain.PlanPatch) (*domain.PlanView, error) {
	if err := s.validate.Check(patch); err != nil {
		return nil, err
	}
	plan, err := s.owned(ctx, trainerID, planID)
	if err != nil {
		return nil, err
	}

	wasPublished := plan.IsPublished
	patch.Apply(plan)
	if err := s.repos.Plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}

	switch {
	case plan.IsPublished && !wasPublished:
		s.counters.PlanCreated(ctx, trainerID)
	case !plan.IsPublished && wasPublished:
		s.counters.PlanRemoved(ctx, trainerID)
	}
	return planView(ctx, s.repos, plan, &trainerID)
}

// DeletePlan removes a plan without active subscribers. Plans that were ever
// subscribed to are unpublished instead so their ledger history stays intact.
func (s *planService) DeletePlan(ctx context.Context, trainerID, planID primitive.ObjectID) error {
	plan, err := s.owned(ctx, trainerID, planID)
	if err != nil {
		return err
	}

	planIDs := []primitive.ObjectID{plan.ID}
	active, err := s.repos.Subscriptions.Count(ctx, repository.SubscriptionFilter{PlanIDs: planIDs, Status: domain.SubscriptionActive})
	if err != nil {
		return fmt.Errorf("count active subscriptions: %w", err)
	}
	if active > 0 {
		return ErrPlanHasActiveSubscribers
	}
	history, err := s.repos.Subscriptions.Count(ctx, repository.SubscriptionFilter{PlanIDs: planIDs})
	if err != nil {
		return fmt.Errorf("count subscriptions: %w", err)
	}

	wasPublished := plan.IsPublished
	if history == 0 {
		if err := s.repos.Plans.Delete(ctx, plan.ID); err != nil {
			return fmt.Errorf("delete plan: %w", err)
		}
		s.removeCover(ctx, plan.CoverImageKey)
	} else if plan.IsPublished {
		plan.IsPublished = false
		if err := s.repos.Plans.Update(ctx, plan); err != nil {
			return fmt.Errorf("unpublish plan: %w", err)
		}
	}

	if wasPublished {
		s.counters.PlanRemoved(ctx, trainerID)
	}
	s.log.WithFields(map[string]interface{}{"planId": plan.ID.Hex(), "hardDelete": history == 0}).Info("plan deleted")
	return nil
}

// ListTrainerPlans lists a trainer's published plans, newest first.
func (s *planService) ListTrainerPlans(ctx context.Context, trainerID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.PlanView], error) {
	filter := domain.PlanFilter{PublishedOnly: true, TrainerID: &trainerID}
	return findPlanPage(ctx, s.repos, filter, newestPlansFirst, page, nil)
}

// RequestCoverUpload issues a presigned PUT for a new cover image of an owned plan.
func (s *planService) RequestCoverUpload(ctx context.Context, trainerID, planID primitive.ObjectID, contentType string) (*domain.CoverUpload, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	if !storage.IsImageContentType(contentType) {
		return nil, ErrUnsupportedContentType
	}
	plan, err := s.owned(ctx, trainerID, planID)
	if err != nil {
		return nil, err
	}

	key := storage.NewCoverKey(plan.ID.Hex(), contentType)
	url, err := s.storage.GeneratePresignedUploadURL(ctx, key, contentType, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign cover upload: %w", err)
	}
	return &domain.CoverUpload{
		UploadURL:   url,
		ObjectKey:   key,
		ContentType: contentType,
		ExpiresAt:   s.now().Add(s.presignExpiry),
	}, nil
}

// ConfirmCoverUpload points the plan's coverImage at an uploaded object and
// removes the previous cover object.
func (s *planService) ConfirmCoverUpload(ctx context.Context, trainerID, planID primitive.ObjectID, objectKey string) (*domain.PlanView, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	plan, err := s.owned(ctx, trainerID, planID)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(objectKey, storage.CoverKeyPrefix(plan.ID.Hex())) {
		return nil, ErrInvalidCoverKey
	}
	if objectKey == plan.CoverImageKey {
		return planView(ctx, s.repos, plan, &trainerID)
	}

	previous := plan.CoverImageKey
	plan.CoverImageKey = objectKey
	plan.CoverImage = s.storage.PublicURL(objectKey)
	if err := s.repos.Plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan cover: %w", err)
	}
	s.removeCover(ctx, previous)
	return planView(ctx, s.repos, plan, &trainerID)
}

// removeCover deletes a stored cover object. Failures only leave an orphan object.
func (s *planService) removeCover(ctx context.Context, key string) {
	if key == "" || s.storage == nil {
		return
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.log.WithError(err).With("key", key).Warn("failed to delete previous cover object")
	}
}

func (s *planService) load(ctx context.Context, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.repos.Plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	return plan, nil
}

// owned loads a plan and checks trainerID owns it.
func (s *planService) owned(ctx context.Context, trainerID, planID primitive.ObjectID) (*domain.Plan, error) {
	plan, err := s.load(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan.TrainerID != trainerID {
		return nil, ErrNotPlanOwner
	}
	return plan, nil
}
