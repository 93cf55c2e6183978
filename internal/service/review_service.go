package service

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/metrics"
	"fitplanhub/backend/internal/pkg/logger"
	"fitplanhub/backend/internal/pkg/validator"
	"fitplanhub/backend/internal/repository"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewService records plan reviews and keeps rating aggregates current.
type ReviewService interface {
	SubmitReview(ctx context.Context, userID, planID primitive.ObjectID, input domain.ReviewInput) (*domain.Review, error)
	ListPlanReviews(ctx context.Context, planID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.Review], error)
}

// reviewService implements ReviewService.
type reviewService struct {
	repos    repository.Repositories
	counters Counters
	validate *validator.Validator
	log      *logger.Logger
	metrics  metrics.Recorder
}

// NewReviewService creates a new instance of reviewService.
func NewReviewService(repos repository.Repositories, counters Counters, v *validator.Validator, log *logger.Logger, rec metrics.Recorder) ReviewService {
	return &reviewService{
		repos:    repos,
		counters: counters,
		validate: v,
		log:      log.With("component", "reviews"),
		metrics:  rec,
	}
}

// SubmitReview stores the caller's single review of a plan, then recomputes
// the plan and trainer rating aggregates.
func (s *reviewService) SubmitReview(ctx context.Context, userID, planID primitive.ObjectID, input domain.ReviewInput) (*domain.Review, error) {
	if err := s.validate.Check(input); err != nil {
		return nil, err
	}
	plan, err := s.repos.Plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}

	// Any subscription, whatever its status, counts as a verified purchase.
	verified, err := s.repos.Subscriptions.Exists(ctx, userID, planID)
	if err != nil {
		return nil, fmt.Errorf("check purchase: %w", err)
	}

	review := &domain.Review{
		UserID:             userID,
		PlanID:             planID,
		Rating:             input.Rating,
		Title:              strings.TrimSpace(input.Title),
		Comment:            strings.TrimSpace(input.Comment),
		IsVerifiedPurchase: verified,
		IsApproved:         true,
	}
	if _, err := s.repos.Reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyReviewed
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.counters.ReviewWritten(ctx, plan)
	s.metrics.RecordReview()
	s.log.WithFields(map[string]interface{}{"planId": planID.Hex(), "userId": userID.Hex(), "rating": input.Rating}).Info("review submitted")
	return review, nil
}

// ListPlanReviews lists approved reviews of a plan, newest first.
func (s *reviewService) ListPlanReviews(ctx context.Context, planID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.Review], error) {
	if _, err := s.repos.Plans.GetByID(ctx, planID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	reviews, err := s.repos.Reviews.ListApproved(ctx, planID, page)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	total, err := s.repos.Reviews.CountApproved(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	return &domain.Page[domain.Review]{Items: reviews, Pagination: domain.NewPagination(page, total)}, nil
}
