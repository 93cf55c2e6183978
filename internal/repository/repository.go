package repository

import (
	"context" // Standard for request-scoped deadlines, cancellation signals, etc.
	"fitplanhub/backend/internal/domain"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with account data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) // ErrDuplicate on email
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update domain.ProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error

	// Denormalized counters. Integer counters never go below zero.
	ApplyCounterDelta(ctx context.Context, id primitive.ObjectID, delta domain.CounterDelta) error
	SetCounters(ctx context.Context, id primitive.ObjectID, counters domain.AccountCounters) error
	SetRating(ctx context.Context, id primitive.ObjectID, agg domain.RatingAggregate) error

	// Trainer directory (active trainers only)
	FindTrainers(ctx context.Context, filter domain.TrainerFilter, sort domain.Sort, page domain.PageRequest) ([]domain.User, error)
	CountTrainers(ctx context.Context, filter domain.TrainerFilter) (int64, error)

	ListAll(ctx context.Context) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}

// PlanRepository defines the interface for interacting with the plan catalog.
type PlanRepository interface {
	Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error)
	Update(ctx context.Context, plan *domain.Plan) error // Content fields and publication flags only
	Delete(ctx context.Context, id primitive.ObjectID) error

	// Find returns plans matching filter. A zero page returns every match.
	Find(ctx context.Context, filter domain.PlanFilter, sort domain.Sort, page domain.PageRequest) ([]domain.Plan, error)
	Count(ctx context.Context, filter domain.PlanFilter) (int64, error)
	IDsByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]primitive.ObjectID, error) // Includes unpublished
	ListAll(ctx context.Context) ([]domain.Plan, error)

	// Denormalized aggregates
	IncrementSubscribers(ctx context.Context, id primitive.ObjectID, delta int) error
	SetSubscribersCount(ctx context.Context, id primitive.ObjectID, count int) error
	SetRatingAggregate(ctx context.Context, id primitive.ObjectID, agg domain.RatingAggregate) error
}

// FollowRepository defines the interface for the social graph.
type FollowRepository interface {
	Create(ctx context.Context, follow *domain.Follow) (primitive.ObjectID, error) // ErrDuplicate on (follower, following)
	Delete(ctx context.Context, follower, following primitive.ObjectID) error      // ErrNotFound when no edge
	Exists(ctx context.Context, follower, following primitive.ObjectID) (bool, error)
	FollowingIDs(ctx context.Context, follower primitive.ObjectID) ([]primitive.ObjectID, error)
	ListByFollower(ctx context.Context, follower primitive.ObjectID, page domain.PageRequest) ([]domain.Follow, error)
	ListByFollowing(ctx context.Context, following primitive.ObjectID, page domain.PageRequest) ([]domain.Follow, error)
	CountByFollower(ctx context.Context, follower primitive.ObjectID) (int64, error)
	CountByFollowing(ctx context.Context, following primitive.ObjectID) (int64, error)
}

// SubscriptionFilter selects subscriptions. Empty fields are not applied.
type SubscriptionFilter struct {
	UserID  *primitive.ObjectID
	PlanIDs []primitive.ObjectID
	Status  domain.SubscriptionStatus
}

// SubscriptionRepository defines the interface for the subscription ledger.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) // ErrDuplicate on a second active (user, plan)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subscription, error)
	Update(ctx context.Context, sub *domain.Subscription) error
	FindActive(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error)
	Exists(ctx context.Context, userID, planID primitive.ObjectID) (bool, error) // Any status
	ActivePlanIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	List(ctx context.Context, filter SubscriptionFilter, page domain.PageRequest) ([]domain.Subscription, error) // createdAt desc
	Count(ctx context.Context, filter SubscriptionFilter) (int64, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// PaymentFilter selects payments. Empty fields are not applied.
type PaymentFilter struct {
	UserID  *primitive.ObjectID
	PlanIDs []primitive.ObjectID
}

// PaymentRepository defines the interface for the payment journal.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Payment, error)
	List(ctx context.Context, filter PaymentFilter, page domain.PageRequest) ([]domain.Payment, error) // createdAt desc, any status
	Count(ctx context.Context, filter PaymentFilter) (int64, error)

	// Completed payments only
	SumCompleted(ctx context.Context, filter PaymentFilter) (float64, error)
	CountCompleted(ctx context.Context, filter PaymentFilter) (int64, error)
}

// ReviewRepository defines the interface for plan reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) (primitive.ObjectID, error)                                 // ErrDuplicate on (user, plan)
	ListApproved(ctx context.Context, planID primitive.ObjectID, page domain.PageRequest) ([]domain.Review, error) // newest first
	CountApproved(ctx context.Context, planID primitive.ObjectID) (int64, error)
	ApprovedRatings(ctx context.Context, planIDs []primitive.ObjectID) ([]int, error)
}

// Repositories bundles every store the services depend on.
type Repositories struct {
	Users         UserRepository
	Plans         PlanRepository
	Follows       FollowRepository
	Subscriptions SubscriptionRepository
	Payments      PaymentRepository
	Reviews       ReviewRepository
}
