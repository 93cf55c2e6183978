package domain

// TrainerStats is the dashboard of a trainer account.
type TrainerStats struct {
	TotalPlans       int64   `json:"totalPlans"`
	TotalSubscribers int64   `json:"totalSubscribers"`
	TotalRevenue     float64 `json:"totalRevenue"`
	AverageRating    float64 `json:"averageRating"`
	FollowersCount   int     `json:"followersCount"`
	TotalReviews     int     `json:"totalReviews"`
}

// MemberStats is the dashboard of an end-user account.
type MemberStats struct {
	ActiveSubscriptions int64   `json:"activeSubscriptions"`
	FollowingCount      int64   `json:"followingCount"`
	TotalSpent          float64 `json:"totalSpent"`
	CompletedWorkouts   int     `json:"completedWorkouts"`
	TotalPlansPurchased int64   `json:"totalPlansPurchased"`
}

// PlatformStats is the dashboard of an admin account.
type PlatformStats struct {
	TotalUsers          int64   `json:"totalUsers"`
	TotalTrainers       int64   `json:"totalTrainers"`
	PublishedPlans      int64   `json:"publishedPlans"`
	ActiveSubscriptions int64   `json:"activeSubscriptions"`
	TotalRevenue        float64 `json:"totalRevenue"`
}

// Drift is one denormalized field whose stored value differs from the value
// recomputed from source records.
type Drift struct {
	Collection string      `json:"collection"`
	ID         string      `json:"id"`
	Field      string      `json:"field"`
	Stored     interface{} `json:"stored"`
	Actual     interface{} `json:"actual"`
}

// ReconcileReport summarizes a reconciliation run.
type ReconcileReport struct {
	DryRun       bool    `json:"dryRun"`
	UsersChecked int     `json:"usersChecked"`
	PlansChecked int     `json:"plansChecked"`
	Repaired     int     `json:"repaired"`
	Drift        []Drift `json:"drift"`
}
