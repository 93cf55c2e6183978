package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Plan categories (closed set)
const (
	CategoryWeightLoss     = "weight-loss"
	CategoryMuscleBuilding = "muscle-building"
	CategoryCardio         = "cardio"
	CategoryFlexibility    = "flexibility"
	CategoryYoga           = "yoga"
	CategoryHIIT           = "hiit"
	CategoryStrength       = "strength"
	CategoryGeneralFitness = "general-fitness"
)

// Difficulty levels (closed set)
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
	DifficultyAllLevels    = "all-levels"
)

// FilterAll disables a category/difficulty filter.
const FilterAll = "all"

// Plan is a trainer-authored, priced fitness program with fixed duration.
type Plan struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TrainerID       primitive.ObjectID `bson:"trainerId" json:"trainerId"` // Owner
	Title           string             `bson:"title" json:"title"`
	Description     string             `bson:"description" json:"description"`
	FullDescription string             `bson:"fullDescription" json:"fullDescription"`
	Price           float64            `bson:"price" json:"price"`
	Duration        int                `bson:"duration" json:"duration"` // days
	Category        string             `bson:"category" json:"category"`
	Difficulty      string             `bson:"difficulty" json:"difficulty"`
	WeeklyWorkouts  int                `bson:"weeklyWorkouts" json:"weeklyWorkouts"`
	DailyTime       string             `bson:"dailyTime" json:"dailyTime"`
	Equipment       []string           `bson:"equipmentRequired,omitempty" json:"equipmentRequired,omitempty"`
	CoverImage      string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	CoverImageKey   string             `bson:"coverImageKey,omitempty" json:"-"` // S3 object key, internal
	Tags            []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Workouts        []PlanWorkout      `bson:"workouts,omitempty" json:"workouts,omitempty"`
	IsPublished     bool               `bson:"isPublished" json:"isPublished"`
	IsFeatured      bool               `bson:"isFeatured" json:"isFeatured"`

	// Denormalized
	SubscribersCount int     `bson:"subscribersCount" json:"subscribersCount"`
	AverageRating    float64 `bson:"averageRating" json:"averageRating"`
	TotalReviews     int     `bson:"totalReviews" json:"totalReviews"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PlanWorkout is one day of structured workout content inside a plan.
type PlanWorkout struct {
	Day         int            `bson:"day" json:"day" validate:"gte=1"`
	Title       string         `bson:"title" json:"title" validate:"required,max=100"`
	Description string         `bson:"description,omitempty" json:"description,omitempty" validate:"max=1000"`
	Exercises   []PlanExercise `bson:"exercises,omitempty" json:"exercises,omitempty" validate:"dive"`
}

type PlanExercise struct {
	Name  string `bson:"name" json:"name" validate:"required,max=100"`
	Sets  int    `bson:"sets,omitempty" json:"sets,omitempty" validate:"gte=0"`
	Reps  string `bson:"reps,omitempty" json:"reps,omitempty"`
	Rest  string `bson:"rest,omitempty" json:"rest,omitempty"`
	Notes string `bson:"notes,omitempty" json:"notes,omitempty"`
}

// PlanInput is the validated payload for creating a plan.
type PlanInput struct {
	Title           string        `json:"title" validate:"required,max=100"`
	Description     string        `json:"description" validate:"required,max=500"`
	FullDescription string        `json:"fullDescription" validate:"required,max=5000"`
	Price           float64       `json:"price" validate:"gte=0"`
	Duration        int           `json:"duration" validate:"gte=1"`
	Category        string        `json:"category" validate:"required,oneof=weight-loss muscle-building cardio flexibility yoga hiit strength general-fitness"`
	Difficulty      string        `json:"difficulty" validate:"required,oneof=beginner intermediate advanced all-levels"`
	WeeklyWorkouts  int           `json:"weeklyWorkouts" validate:"gte=1,lte=7"`
	DailyTime       string        `json:"dailyTime" validate:"required,oneof='15-30 mins' '30-45 mins' '45-60 mins' '60-90 mins' '90+ mins'"`
	Equipment       []string      `json:"equipmentRequired" validate:"omitempty,dive,oneof=none dumbbells barbell kettlebell resistance-bands yoga-mat"`
	Tags            []string      `json:"tags" validate:"omitempty,dive,max=30"`
	Workouts        []PlanWorkout `json:"workouts" validate:"omitempty,dive"`
	IsPublished     *bool         `json:"isPublished"`
	IsFeatured      bool          `json:"isFeatured"`
}

// PlanPatch is a partial update of a plan. Nil fields are left untouched.
type PlanPatch struct {
	Title           *string        `json:"title,omitempty" validate:"omitempty,max=100"`
	Description     *string        `json:"description,omitempty" validate:"omitempty,max=500"`
	FullDescription *string        `json:"fullDescription,omitempty" validate:"omitempty,max=5000"`
	Price           *float64       `json:"price,omitempty" validate:"omitempty,gte=0"`
	Duration        *int           `json:"duration,omitempty" validate:"omitempty,gte=1"`
	Category        *string        `json:"category,omitempty" validate:"omitempty,oneof=weight-loss muscle-building cardio flexibility yoga hiit strength general-fitness"`
	Difficulty      *string        `json:"difficulty,omitempty" validate:"omitempty,oneof=beginner intermediate advanced all-levels"`
	WeeklyWorkouts  *int           `json:"weeklyWorkouts,omitempty" validate:"omitempty,gte=1,lte=7"`
	DailyTime       *string        `json:"dailyTime,omitempty" validate:"omitempty,oneof='15-30 mins' '30-45 mins' '45-60 mins' '60-90 mins' '90+ mins'"`
	Equipment       *[]string      `json:"equipmentRequired,omitempty" validate:"omitempty,dive,oneof=none dumbbells barbell kettlebell resistance-bands yoga-mat"`
	Tags            *[]string      `json:"tags,omitempty" validate:"omitempty,dive,max=30"`
	Workouts        *[]PlanWorkout `json:"workouts,omitempty" validate:"omitempty,dive"`
	IsPublished     *bool          `json:"isPublished,omitempty"`
	IsFeatured      *bool          `json:"isFeatured,omitempty"`
}

// Apply copies the non-nil fields of p onto plan.
func (p PlanPatch) Apply(plan *Plan) {
	if p.Title != nil {
		plan.Title = *p.Title
	}
	if p.Description != nil {
		plan.Description = *p.Description
	}
	if p.FullDescription != nil {
		plan.FullDescription = *p.FullDescription
	}
	if p.Price != nil {
		plan.Price = *p.Price
	}
	if p.Duration != nil {
		plan.Duration = *p.Duration
	}
	if p.Category != nil {
		plan.Category = *p.Category
	}
	if p.Difficulty != nil {
		plan.Difficulty = *p.Difficulty
	}
	if p.WeeklyWorkouts != nil {
		plan.WeeklyWorkouts = *p.WeeklyWorkouts
	}
	if p.DailyTime != nil {
		plan.DailyTime = *p.DailyTime
	}
	if p.Equipment != nil {
		plan.Equipment = *p.Equipment
	}
	if p.Tags != nil {
		plan.Tags = *p.Tags
	}
	if p.Workouts != nil {
		plan.Workouts = *p.Workouts
	}
	if p.IsPublished != nil {
		plan.IsPublished = *p.IsPublished
	}
	if p.IsFeatured != nil {
		plan.IsFeatured = *p.IsFeatured
	}
}

// PlanFilter selects plans for browse, feed and recommendation queries.
// Zero values disable the corresponding condition.
type PlanFilter struct {
	PublishedOnly bool
	Category      string
	Categories    []string
	Difficulty    string
	TrainerID     *primitive.ObjectID
	TrainerIDs    []primitive.ObjectID
	MinPrice      *float64
	MaxPrice      *float64
	Search        string
	ExcludeIDs    []primitive.ObjectID
}

// PlanQuery is the catalog browse request as sent over the query string.
// Zero values fall back to the defaults: first page, DefaultLimit, createdAt desc.
type PlanQuery struct {
	Page       int      `form:"page" json:"page" validate:"omitempty,gte=1"`
	Limit      int      `form:"limit" json:"limit" validate:"omitempty,gte=1,lte=100"`
	Category   string   `form:"category" json:"category" validate:"omitempty,oneof=all weight-loss muscle-building cardio flexibility yoga hiit strength general-fitness"`
	Difficulty string   `form:"difficulty" json:"difficulty" validate:"omitempty,oneof=all beginner intermediate advanced all-levels"`
	TrainerID  string   `form:"trainerId" json:"trainerId" validate:"omitempty,mongodb"`
	Search     string   `form:"search" json:"search" validate:"max=100"`
	MinPrice   *float64 `form:"minPrice" json:"minPrice" validate:"omitempty,gte=0"`
	MaxPrice   *float64 `form:"maxPrice" json:"maxPrice" validate:"omitempty,gte=0"`
	Sort       string   `form:"sort" json:"sort" validate:"omitempty,oneof=createdAt price rating subscribers popularity"`
	Order      string   `form:"order" json:"order" validate:"omitempty,oneof=asc desc"`
}

// Filter converts a validated query into a published-only plan filter.
func (q PlanQuery) Filter() PlanFilter {
	f := PlanFilter{
		PublishedOnly: true,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		Search:        q.Search,
		MinPrice:      q.MinPrice,
		MaxPrice:      q.MaxPrice,
	}
	if id, err := primitive.ObjectIDFromHex(q.TrainerID); err == nil {
		f.TrainerID = &id
	}
	return f
}

// PageRequest returns the requested page with defaults applied.
func (q PlanQuery) PageRequest() PageRequest {
	return NewPageRequest(q.Page, q.Limit)
}

// PlanView is a plan annotated for a particular viewer.
type PlanView struct {
	Plan
	Trainer      *TrainerSummary `json:"trainerDetails,omitempty"`
	IsSubscribed *bool           `json:"isSubscribed,omitempty"`
}

// PlanDetails is the single-plan view with related content.
type PlanDetails struct {
	PlanView
	RelatedPlans []PlanView `json:"relatedPlans"`
	Reviews      []Review   `json:"reviews"`
}

// TrainerSummary is the public slice of a trainer shown next to plans.
type TrainerSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Name           string             `json:"name"`
	Email          string             `json:"email,omitempty"`
	ProfileImage   string             `json:"profileImage,omitempty"`
	Rating         float64            `json:"rating"`
	FollowersCount int                `json:"followersCount"`
	Certification  string             `json:"certification,omitempty"`
}

// SummarizeTrainer builds the public summary of a trainer account.
func SummarizeTrainer(u *User) *TrainerSummary {
	if u == nil {
		return nil
	}
	return &TrainerSummary{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		ProfileImage:   u.ProfileImage,
		Rating:         u.Rating,
		FollowersCount: u.FollowersCount,
		Certification:  u.Certification,
	}
}

// Feed types
const (
	FeedPopular   = "popular"
	FeedFollowing = "following"
)

// Feed is one page of the personalized plan feed.
type Feed struct {
	FeedType string `json:"feedType"`
	Page[PlanView]
}
