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
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionService runs the subscribe/pay/progress workflow.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID, planID primitive.ObjectID) (*domain.SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, subscriptionID primitive.ObjectID) (*domain.Subscription, error)
	UpdateProgress(ctx context.Context, userID, subscriptionID primitive.ObjectID, update domain.ProgressUpdate) (*domain.Subscription, error)
	Get(ctx context.Context, userID, subscriptionID primitive.ObjectID) (*domain.SubscriptionView, error)
	ListMine(ctx context.Context, userID primitive.ObjectID, status string, page domain.PageRequest) (*domain.Page[domain.SubscriptionView], error)
	ListTrainerSubscribers(ctx context.Context, trainer *domain.User, planID *primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.SubscriptionView], error)
	ListMyPayments(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.Payment], error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// subscriptionService implements SubscriptionService.
type subscriptionService struct {
	repos    repository.Repositories
	counters Counters
	validate *validator.Validator
	log      *logger.Logger
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewSubscriptionService creates a new instance of subscriptionService.
func NewSubscriptionService(repos repository.Repositories, counters Counters, v *validator.Validator, log *logger.Logger, rec metrics.Recorder) SubscriptionService {
	return &subscriptionService{
		repos:    repos,
		counters: counters,
		validate: v,
		log:      log.With("component", "subscriptions"),
		metrics:  rec,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// newTransactionID returns SIM_<unix millis>_<9 random chars>.
func newTransactionID(now time.Time) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("SIM_%d_%s", now.UnixMilli(), strings.ToUpper(random))
}

// Subscribe enrolls userID into a published plan and records a completed
// simulated payment. Nothing is written when an active subscription exists.
func (s *subscriptionService) Subscribe(ctx context.Context, userID, planID primitive.ObjectID) (*domain.SubscriptionView, error) {
	// 1. Plan must exist and be published
	plan, err := s.repos.Plans.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if !plan.IsPublished {
		return nil, ErrPlanNotFound
	}

	// 2. No active subscription for (user, plan)
	if _, err := s.repos.Subscriptions.FindActive(ctx, userID, planID); err == nil {
		s.metrics.RecordSubscription(metrics.OutcomeConflict)
		return nil, ErrAlreadySubscribed
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check active subscription: %w", err)
	}

	// 3. Subscription; the partial unique index catches a concurrent duplicate
	now := s.now()
	sub := &domain.Subscription{
		UserID:             userID,
		PlanID:             planID,
		StartDate:          now,
		EndDate:            now.AddDate(0, 0, plan.Duration),
		Status:             domain.SubscriptionActive,
		CurrentDay:         1,
		ProgressPercentage: 0,
		CompletedWorkouts:  []domain.WorkoutLog{},
		LastActive:         now,
	}
	if _, err := s.repos.Subscriptions.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.metrics.RecordSubscription(metrics.OutcomeConflict)
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	// 4. Simulated payment, completed immediately
	subID := sub.ID
	payment := &domain.Payment{
		UserID:         userID,
		PlanID:         planID,
		SubscriptionID: &subID,
		Amount:         plan.Price,
		Currency:       domain.CurrencyUSD,
		PaymentMethod:  domain.PaymentMethodSimulated,
		PaymentGateway: domain.GatewaySimulated,
		Status:         domain.PaymentCompleted,
		TransactionID:  newTransactionID(now),
		CompletedAt:    &now,
	}
	if _, err := s.repos.Payments.Create(ctx, payment); err != nil {
		s.abandon(ctx, sub)
		return nil, fmt.Errorf("create payment: %w", err)
	}

	// 5. Link the payment back onto the subscription
	paymentID := payment.ID
	sub.PaymentID = &paymentID
	if err := s.repos.Subscriptions.Update(ctx, sub); err != nil {
		// The payment completed and references the subscription; only the back-link is missing.
		s.counters.PaymentCompleted(ctx, plan, payment)
		s.log.WithFields(map[string]interface{}{
			"subscriptionId": sub.ID.Hex(),
			"paymentId":      paymentID.Hex(),
		}).WithError(err).Error("failed to link payment to subscription")
		return nil, fmt.Errorf("link payment to subscription: %w", err)
	}

	// 6. Denormalized counters follow payment completion
	s.counters.PaymentCompleted(ctx, plan, payment)
	s.metrics.RecordSubscription(metrics.OutcomeCreated)

	s.log.WithFields(map[string]interface{}{
		"userId":         userID.Hex(),
		"planId":         planID.Hex(),
		"subscriptionId": sub.ID.Hex(),
		"transactionId":  payment.TransactionID,
	}).Info("subscription created")

	view, err := planView(ctx, s.repos, plan, &userID)
	if err != nil {
		return nil, err
	}
	return &domain.SubscriptionView{Subscription: *sub, Plan: view, Payment: payment}, nil
}

// abandon parks a subscription whose payment could not be recorded as pending,
// releasing the active (user, plan) slot.
func (s *subscriptionService) abandon(ctx context.Context, sub *domain.Subscription) {
	sub.Status = domain.SubscriptionPending
	if err := s.repos.Subscriptions.Update(ctx, sub); err != nil {
		s.log.WithError(err).With("subscriptionId", sub.ID.Hex()).Error("failed to release subscription after payment failure")
	}
}

// owned loads a subscription and checks it belongs to userID.
func (s *subscriptionService) owned(ctx context.Context, userID, subscriptionID primitive.ObjectID) (*domain.Subscription, error) {
	sub, err := s.repos.Subscriptions.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	if sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// Unsubscribe cancels the subscription. The record is kept and no counter is
// reversed: plan.subscribersCount and trainer revenue stay as they were.
func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, subscriptionID primitive.ObjectID) (*domain.Subscription, error) {
	sub, err := s.owned(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.SubscriptionCancelled {
		return sub, nil
	}

	now := s.now()
	sub.Status = domain.SubscriptionCancelled
	sub.CancelledAt = &now
	if err := s.repos.Subscriptions.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("cancel subscription: %w", err)
	}
	return sub, nil
}

// UpdateProgress optionally moves currentDay and/or logs a completed workout,
// then recomputes progressPercentage against the plan duration.
func (s *subscriptionService) UpdateProgress(ctx context.Context, userID, subscriptionID primitive.ObjectID, update domain.ProgressUpdate) (*domain.Subscription, error) {
	if err := s.validate.Check(update); err != nil {
		return nil, err
	}
	sub, err := s.owned(ctx, userID, subscriptionID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return nil, ErrActiveSubscriptionNotFound
		}
		return nil, err
	}
	if !sub.IsActive() {
		return nil, ErrActiveSubscriptionNotFound
	}

	plan, err := s.repos.Plans.GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("load plan for progress: %w", err)
	}

	now := s.now()
	if update.CurrentDay != nil {
		sub.CurrentDay = *update.CurrentDay
	}
	if w := update.CompletedWorkout; w != nil {
		sub.CompletedWorkouts = append(sub.CompletedWorkouts, domain.WorkoutLog{
			Day:         w.Day,
			CompletedAt: now,
			Duration:    w.Duration,
			Notes:       w.Notes,
		})
	}
	sub.ProgressPercentage = domain.ProgressPercentage(sub.CurrentDay, plan.Duration)
	sub.LastActive = now

	if err := s.repos.Subscriptions.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return sub, nil
}

// Get returns one of the caller's subscriptions with its plan and payment.
func (s *subscriptionService) Get(ctx context.Context, userID, subscriptionID primitive.ObjectID) (*domain.SubscriptionView, error) {
	sub, err := s.owned(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	views, err := s.attach(ctx, []domain.Subscription{*sub}, &userID, false)
	if err != nil {
		return nil, err
	}
	view := views[0]
	if sub.PaymentID != nil {
		payment, err := s.repos.Payments.GetByID(ctx, *sub.PaymentID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("load payment: %w", err)
		}
		view.Payment = payment
	}
	return &view, nil
}

// ListMine lists the caller's subscriptions. An empty status means active,
// "all" disables the status filter.
func (s *subscriptionService) ListMine(ctx context.Context, userID primitive.ObjectID, status string, page domain.PageRequest) (*domain.Page[domain.SubscriptionView], error) {
	filter := repository.SubscriptionFilter{UserID: &userID}
	switch status {
	case "":
		filter.Status = domain.SubscriptionActive
	case "all":
	default:
		st := domain.SubscriptionStatus(status)
		if !st.Valid() {
			return nil, ErrInvalidStatus
		}
		filter.Status = st
	}
	return s.listPage(ctx, filter, page, &userID, false)
}

// ListTrainerSubscribers lists active subscriptions across the trainer's plans,
// optionally narrowed to one owned plan.
func (s *subscriptionService) ListTrainerSubscribers(ctx context.Context, trainer *domain.User, planID *primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.SubscriptionView], error) {
	if !trainer.IsTrainer() {
		return nil, ErrTrainerOnly
	}
	planIDs, err := s.repos.Plans.IDsByTrainer(ctx, trainer.ID)
	if err != nil {
		return nil, fmt.Errorf("load trainer plans: %w", err)
	}
	if planID != nil {
		if !containsObjectID(planIDs, *planID) {
			return nil, ErrPlanNotFound
		}
		planIDs = []primitive.ObjectID{*planID}
	}
	if len(planIDs) == 0 {
		return &domain.Page[domain.SubscriptionView]{Items: []domain.SubscriptionView{}, Pagination: domain.NewPagination(page, 0)}, nil
	}
	filter := repository.SubscriptionFilter{PlanIDs: planIDs, Status: domain.SubscriptionActive}
	return s.listPage(ctx, filter, page, nil, true)
}

func (s *subscriptionService) listPage(ctx context.Context, filter repository.SubscriptionFilter, page domain.PageRequest, viewer *primitive.ObjectID, withUsers bool) (*domain.Page[domain.SubscriptionView], error) {
	subs, err := s.repos.Subscriptions.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	total, err := s.repos.Subscriptions.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count subscriptions: %w", err)
	}
	views, err := s.attach(ctx, subs, viewer, withUsers)
	if err != nil {
		return nil, err
	}
	return &domain.Page[domain.SubscriptionView]{Items: views, Pagination: domain.NewPagination(page, total)}, nil
}

// attach loads the plan (and optionally the subscriber) of each subscription.
func (s *subscriptionService) attach(ctx context.Context, subs []domain.Subscription, viewer *primitive.ObjectID, withUsers bool) ([]domain.SubscriptionView, error) {
	views := make([]domain.SubscriptionView, 0, len(subs))
	plans := make(map[primitive.ObjectID]*domain.PlanView)
	users := make(map[primitive.ObjectID]*domain.User)

	for _, sub := range subs {
		view := domain.SubscriptionView{Subscription: sub}

		pv, ok := plans[sub.PlanID]
		if !ok {
			plan, err := s.repos.Plans.GetByID(ctx, sub.PlanID)
			switch {
			case err == nil:
				if pv, err = planView(ctx, s.repos, plan, viewer); err != nil {
					return nil, err
				}
			case errors.Is(err, repository.ErrNotFound):
				// Hard-deleted plans only ever had no subscriptions; tolerate it anyway.
			default:
				return nil, fmt.Errorf("load subscription plan: %w", err)
			}
			plans[sub.PlanID] = pv
		}
		view.Plan = pv

		if withUsers {
			u, ok := users[sub.UserID]
			if !ok {
				user, err := s.repos.Users.GetByID(ctx, sub.UserID)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return nil, fmt.Errorf("load subscriber: %w", err)
				}
				u = user
				users[sub.UserID] = u
			}
			view.User = u
		}
		views = append(views, view)
	}
	return views, nil
}

// ListMyPayments lists the caller's payments, newest first.
func (s *subscriptionService) ListMyPayments(ctx context.Context, userID primitive.ObjectID, page domain.PageRequest) (*domain.Page[domain.Payment], error) {
	filter := repository.PaymentFilter{UserID: &userID}
	payments, err := s.repos.Payments.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	total, err := s.repos.Payments.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}
	return &domain.Page[domain.Payment]{Items: payments, Pagination: domain.NewPagination(page, total)}, nil
}

// ExpireDue moves active subscriptions past their endDate to expired.
func (s *subscriptionService) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	n, err := s.repos.Subscriptions.ExpireDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire subscriptions: %w", err)
	}
	if n > 0 {
		s.metrics.RecordExpired(n)
		s.log.Infof("expired %d subscriptions", n)
	}
	return n, nil
}

func containsObjectID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
