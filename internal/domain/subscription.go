package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus is the lifecycle state of an enrollment.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
	SubscriptionPending   SubscriptionStatus = "pending"
)

// Valid reports whether s is a known status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionActive, SubscriptionCancelled, SubscriptionExpired, SubscriptionPending:
		return true
	}
	return false
}

// Subscription is a time-bounded enrollment of a user into a plan.
// Only one active subscription may exist per (user, plan).
type Subscription struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID  `bson:"userId" json:"userId"`
	PlanID             primitive.ObjectID  `bson:"planId" json:"planId"`
	PaymentID          *primitive.ObjectID `bson:"paymentId,omitempty" json:"paymentId,omitempty"`
	StartDate          time.Time           `bson:"startDate" json:"startDate"`
	EndDate            time.Time           `bson:"endDate" json:"endDate"`
	Status             SubscriptionStatus  `bson:"status" json:"status"`
	CurrentDay         int                 `bson:"currentDay" json:"currentDay"`
	ProgressPercentage int                 `bson:"progressPercentage" json:"progressPercentage"`
	CompletedWorkouts  []WorkoutLog        `bson:"completedWorkouts" json:"completedWorkouts"`
	LastActive         time.Time           `bson:"lastActive" json:"lastActive"`
	CancelledAt        *time.Time          `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CreatedAt          time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsActive reports whether the subscription is currently active.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

// WorkoutLog records one completed workout day.
type WorkoutLog struct {
	Day         int       `bson:"day" json:"day"`
	CompletedAt time.Time `bson:"completedAt" json:"completedAt"`               // Server-assigned
	Duration    int       `bson:"duration,omitempty" json:"duration,omitempty"` // minutes
	Notes       string    `bson:"notes,omitempty" json:"notes,omitempty"`
}

// WorkoutLogInput is the caller-supplied part of a workout log entry.
type WorkoutLogInput struct {
	Day      int    `json:"day" validate:"gte=1"`
	Duration int    `json:"duration" validate:"gte=0"`
	Notes    string `json:"notes" validate:"max=500"`
}

// ProgressUpdate optionally advances the current day and/or logs a workout.
type ProgressUpdate struct {
	CurrentDay       *int             `json:"currentDay,omitempty" validate:"omitempty,gte=1"`
	CompletedWorkout *WorkoutLogInput `json:"completedWorkout,omitempty" validate:"omitempty"`
}

// ProgressPercentage returns min(100, round(currentDay/duration*100)).
// A non-positive duration yields 0.
func ProgressPercentage(currentDay, duration int) int {
	if duration <= 0 || currentDay <= 0 {
		return 0
	}
	pct := int(math.Round(float64(currentDay) / float64(duration) * 100))
	if pct > 100 {
		return 100
	}
	return pct
}

// SubscriptionView is a subscription with its plan and payment attached.
type SubscriptionView struct {
	Subscription
	Plan    *PlanView `json:"plan,omitempty"`
	User    *User     `json:"user,omitempty"`
	Payment *Payment  `json:"payment,omitempty"`
}
