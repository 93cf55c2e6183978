package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between account roles
type Role string

// Define constants for roles
const (
	RoleUser    Role = "user"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleTrainer, RoleAdmin:
		return true
	}
	return false
}

// User represents an account in the system (end user, trainer or admin).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Unique, stored lowercased
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`

	ProfileImage    string   `bson:"profileImage,omitempty" json:"profileImage,omitempty"`
	Bio             string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Phone           string   `bson:"phone,omitempty" json:"phone,omitempty"`
	FitnessGoals    []string `bson:"fitnessGoals,omitempty" json:"fitnessGoals,omitempty"`
	ExperienceLevel string   `bson:"experienceLevel,omitempty" json:"experienceLevel,omitempty"`

	// --- Trainer-specific profile ---
	Certification     string   `bson:"certification,omitempty" json:"certification,omitempty"`
	Specialization    []string `bson:"specialization,omitempty" json:"specialization,omitempty"`
	YearsOfExperience int      `bson:"yearsOfExperience,omitempty" json:"yearsOfExperience,omitempty"`

	IsActive   bool `bson:"isActive" json:"isActive"`
	IsVerified bool `bson:"isVerified" json:"isVerified"`

	// --- Denormalized counters ---
	// Derived from follows, payments, plans and reviews. Reconcilable at any time.
	FollowersCount   int     `bson:"followersCount" json:"followersCount"`
	FollowingCount   int     `bson:"followingCount" json:"followingCount"`
	TotalSubscribers int     `bson:"totalSubscribers" json:"totalSubscribers"`
	TotalRevenue     float64 `bson:"totalRevenue" json:"totalRevenue"`
	TotalPlans       int     `bson:"totalPlans" json:"totalPlans"`
	Rating           float64 `bson:"rating" json:"rating"`
	TotalReviews     int     `bson:"totalReviews" json:"totalReviews"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsTrainer() bool {
	return u.Role == RoleTrainer
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CounterDelta describes relative changes to an account's denormalized counters.
// Integer counters are clamped at zero by the stores.
type CounterDelta struct {
	FollowersCount   int
	FollowingCount   int
	TotalSubscribers int
	TotalRevenue     float64
	TotalPlans       int
}

// IsZero reports whether applying d would be a no-op.
func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

// AccountCounters is an absolute snapshot of every denormalized account counter.
type AccountCounters struct {
	FollowersCount   int     `json:"followersCount"`
	FollowingCount   int     `json:"followingCount"`
	TotalSubscribers int     `json:"totalSubscribers"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalPlans       int     `json:"totalPlans"`
	Rating           float64 `json:"rating"`
	TotalReviews     int     `json:"totalReviews"`
}

// Counters returns the current counter snapshot of u.
func (u *User) Counters() AccountCounters {
	return AccountCounters{
		FollowersCount:   u.FollowersCount,
		FollowingCount:   u.FollowingCount,
		TotalSubscribers: u.TotalSubscribers,
		TotalRevenue:     u.TotalRevenue,
		TotalPlans:       u.TotalPlans,
		Rating:           u.Rating,
		TotalReviews:     u.TotalReviews,
	}
}

// ProfileUpdate carries the user-editable profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	Name              *string   `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio               *string   `json:"bio,omitempty" validate:"omitempty,max=500"`
	ProfileImage      *string   `json:"profileImage,omitempty" validate:"omitempty,url"`
	Phone             *string   `json:"phone,omitempty" validate:"omitempty,max=30"`
	FitnessGoals      *[]string `json:"fitnessGoals,omitempty" validate:"omitempty,dive,oneof=weight-loss muscle-gain endurance flexibility general-fitness"`
	ExperienceLevel   *string   `json:"experienceLevel,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Certification     *string   `json:"certification,omitempty" validate:"omitempty,max=200"`
	Specialization    *[]string `json:"specialization,omitempty" validate:"omitempty,dive,max=50"`
	YearsOfExperience *int      `json:"yearsOfExperience,omitempty" validate:"omitempty,gte=0,lte=80"`
}

// TrainerFilter narrows the trainer directory.
type TrainerFilter struct {
	Search         string
	Specialization string
}

// TrainerView is a directory entry annotated for the viewer.
type TrainerView struct {
	User
	IsFollowing *bool `json:"isFollowing,omitempty"`
}

// ProfileView is a public profile with the viewer's follow state and,
// for trainers, a sample of their published plans.
type ProfileView struct {
	User
	IsFollowing bool   `json:"isFollowing"`
	Plans       []Plan `json:"plans"`
}

// RegisterInput is the validated sign-up payload. Role defaults to user.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     Role   `json:"role"`
}

// LoginInput is the credential payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// PasswordChange is the payload for changing the caller's password.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
