package memory

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range r.s.users {
		if u.Email == email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.Email = email
	now := r.s.now()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = *user
	return user.ID, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.User{}
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, id primitive.ObjectID, update domain.ProfileUpdate) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if update.Name != nil {
		u.Name = strings.TrimSpace(*update.Name)
	}
	if update.Bio != nil {
		u.Bio = *update.Bio
	}
	if update.ProfileImage != nil {
		u.ProfileImage = *update.ProfileImage
	}
	if update.Phone != nil {
		u.Phone = *update.Phone
	}
	if update.FitnessGoals != nil {
		u.FitnessGoals = *update.FitnessGoals
	}
	if update.ExperienceLevel != nil {
		u.ExperienceLevel = *update.ExperienceLevel
	}
	if update.Certification != nil {
		u.Certification = *update.Certification
	}
	if update.Specialization != nil {
		u.Specialization = *update.Specialization
	}
	if update.YearsOfExperience != nil {
		u.YearsOfExperience = *update.YearsOfExperience
	}
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return &u, nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	return r.mutate(id, func(u *domain.User) { u.PasswordHash = passwordHash })
}

func (r *userRepo) ApplyCounterDelta(_ context.Context, id primitive.ObjectID, d domain.CounterDelta) error {
	if d.IsZero() {
		return nil
	}
	return r.mutate(id, func(u *domain.User) {
		u.FollowersCount = clampAdd(u.FollowersCount, d.FollowersCount)
		u.FollowingCount = clampAdd(u.FollowingCount, d.FollowingCount)
		u.TotalSubscribers = clampAdd(u.TotalSubscribers, d.TotalSubscribers)
		u.TotalPlans = clampAdd(u.TotalPlans, d.TotalPlans)
		u.TotalRevenue = domain.AddMoney(u.TotalRevenue, d.TotalRevenue)
	})
}

func (r *userRepo) SetCounters(_ context.Context, id primitive.ObjectID, c domain.AccountCounters) error {
	return r.mutate(id, func(u *domain.User) {
		u.FollowersCount = c.FollowersCount
		u.FollowingCount = c.FollowingCount
		u.TotalSubscribers = c.TotalSubscribers
		u.TotalRevenue = c.TotalRevenue
		u.TotalPlans = c.TotalPlans
		u.Rating = c.Rating
		u.TotalReviews = c.TotalReviews
	})
}

func (r *userRepo) SetRating(_ context.Context, id primitive.ObjectID, agg domain.RatingAggregate) error {
	return r.mutate(id, func(u *domain.User) {
		u.Rating = agg.Average
		u.TotalReviews = agg.Count
	})
}

func (r *userRepo) mutate(id primitive.ObjectID, fn func(*domain.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

func matchTrainer(u domain.User, f domain.TrainerFilter) bool {
	if u.Role != domain.RoleTrainer || !u.IsActive {
		return false
	}
	if f.Search != "" &&
		!containsFold(u.Name, f.Search) &&
		!containsFold(u.Certification, f.Search) &&
		!anyContainsFold(u.Specialization, f.Search) {
		return false
	}
	if f.Specialization != "" && !anyContainsFold(u.Specialization, f.Specialization) {
		return false
	}
	return true
}

func userField(u domain.User, field string) any {
	switch field {
	case "rating":
		return u.Rating
	case "followersCount":
		return u.FollowersCount
	case "totalSubscribers":
		return u.TotalSubscribers
	case "yearsOfExperience":
		return u.YearsOfExperience
	case "name":
		return u.Name
	default:
		return u.CreatedAt
	}
}

func (r *userRepo) FindTrainers(_ context.Context, f domain.TrainerFilter, sort domain.Sort, page domain.PageRequest) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.User{}
	for _, u := range r.s.users {
		if matchTrainer(u, f) {
			out = append(out, u)
		}
	}
	sortBy(out, sort, userField, func(u domain.User) primitive.ObjectID { return u.ID })
	return paginate(out, page), nil
}

func (r *userRepo) CountTrainers(_ context.Context, f domain.TrainerFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, u := range r.s.users {
		if matchTrainer(u, f) {
			n++
		}
	}
	return n, nil
}

func (r *userRepo) ListAll(_ context.Context) ([]domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sortBy(out, nil, userField, func(u domain.User) primitive.ObjectID { return u.ID })
	return out, nil
}

func (r *userRepo) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, u := range r.s.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}
