package memory

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type subscriptionRepo struct{ s *Store }

func subscriptionField(s domain.Subscription, _ string) any   { return s.CreatedAt }
func subscriptionID(s domain.Subscription) primitive.ObjectID { return s.ID }

// activeConflict reports whether another active subscription holds (user, plan).
// Callers must hold the store lock.
func (r *subscriptionRepo) activeConflict(sub *domain.Subscription) bool {
	if sub.Status != domain.SubscriptionActive {
		return false
	}
	for id, existing := range r.s.subscriptions {
		if id != sub.ID && existing.Status == domain.SubscriptionActive &&
			existing.UserID == sub.UserID && existing.PlanID == sub.PlanID {
			return true
		}
	}
	return false
}

func (r *subscriptionRepo) Create(_ context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	if sub.UserID == primitive.NilObjectID || sub.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("subscription requires userId and planId")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.activeConflict(sub) {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	sub.ID = primitive.NewObjectID()
	now := r.s.now()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.CompletedWorkouts == nil {
		sub.CompletedWorkouts = []domain.WorkoutLog{}
	}
	stored := *sub
	stored.CompletedWorkouts = append([]domain.WorkoutLog(nil), sub.CompletedWorkouts...)
	r.s.subscriptions[sub.ID] = stored
	return sub.ID, nil
}

func (r *subscriptionRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sub, ok := r.s.subscriptions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	sub.CompletedWorkouts = append([]domain.WorkoutLog{}, sub.CompletedWorkouts...)
	return &sub, nil
}

func (r *subscriptionRepo) Update(_ context.Context, sub *domain.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.subscriptions[sub.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if r.activeConflict(sub) {
		return repository.ErrDuplicate
	}
	stored.Status = sub.Status
	stored.CurrentDay = sub.CurrentDay
	stored.ProgressPercentage = sub.ProgressPercentage
	stored.CompletedWorkouts = append([]domain.WorkoutLog{}, sub.CompletedWorkouts...)
	stored.LastActive = sub.LastActive
	stored.CancelledAt = sub.CancelledAt
	stored.PaymentID = sub.PaymentID
	stored.UpdatedAt = r.s.now()
	sub.UpdatedAt = stored.UpdatedAt
	r.s.subscriptions[sub.ID] = stored
	return nil
}

func (r *subscriptionRepo) FindActive(_ context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sub := range r.s.subscriptions {
		if sub.UserID == userID && sub.PlanID == planID && sub.Status == domain.SubscriptionActive {
			sub.CompletedWorkouts = append([]domain.WorkoutLog{}, sub.CompletedWorkouts...)
			return &sub, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *subscriptionRepo) Exists(_ context.Context, userID, planID primitive.ObjectID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, sub := range r.s.subscriptions {
		if sub.UserID == userID && sub.PlanID == planID {
			return true, nil
		}
	}
	return false, nil
}

func (r *subscriptionRepo) ActivePlanIDs(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	subs := r.match(repository.SubscriptionFilter{UserID: &userID, Status: domain.SubscriptionActive})
	ids := make([]primitive.ObjectID, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.PlanID)
	}
	return ids, nil
}

func (r *subscriptionRepo) List(_ context.Context, f repository.SubscriptionFilter, page domain.PageRequest) ([]domain.Subscription, error) {
	return paginate(r.match(f), page), nil
}

func (r *subscriptionRepo) Count(_ context.Context, f repository.SubscriptionFilter) (int64, error) {
	return int64(len(r.match(f))), nil
}

func (r *subscriptionRepo) ExpireDue(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, sub := range r.s.subscriptions {
		if sub.Status == domain.SubscriptionActive && sub.EndDate.Before(now) {
			sub.Status = domain.SubscriptionExpired
			sub.UpdatedAt = now.UTC()
			r.s.subscriptions[id] = sub
			n++
		}
	}
	return n, nil
}

// match returns subscriptions matching f, newest first.
func (r *subscriptionRepo) match(f repository.SubscriptionFilter) []domain.Subscription {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Subscription{}
	for _, sub := range r.s.subscriptions {
		if f.UserID != nil && sub.UserID != *f.UserID {
			continue
		}
		if len(f.PlanIDs) > 0 && !containsID(f.PlanIDs, sub.PlanID) {
			continue
		}
		if f.Status != "" && sub.Status != f.Status {
			continue
		}
		sub.CompletedWorkouts = append([]domain.WorkoutLog{}, sub.CompletedWorkouts...)
		out = append(out, sub)
	}
	sortBy(out, newestFirst, subscriptionField, subscriptionID)
	return out
}
