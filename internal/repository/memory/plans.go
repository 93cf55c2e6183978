package memory

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type planRepo struct{ s *Store }

func (r *planRepo) Create(_ context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.TrainerID == primitive.NilObjectID || plan.Title == "" {
		return primitive.NilObjectID, errors.New("plan requires trainerId and title")
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	plan.ID = primitive.NewObjectID()
	now := r.s.now()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	r.s.plans[plan.ID] = *plan
	return plan.ID, nil
}

func (r *planRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.plans[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (r *planRepo) Update(_ context.Context, plan *domain.Plan) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.plans[plan.ID]
	if !ok {
		return repository.ErrNotFound
	}
	next := *plan
	// Denormalized aggregates are owned by their dedicated setters.
	next.TrainerID = stored.TrainerID
	next.SubscribersCount = stored.SubscribersCount
	next.AverageRating = stored.AverageRating
	next.TotalReviews = stored.TotalReviews
	next.CreatedAt = stored.CreatedAt
	next.UpdatedAt = r.s.now()
	plan.UpdatedAt = next.UpdatedAt
	r.s.plans[plan.ID] = next
	return nil
}

func (r *planRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.plans[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.plans, id)
	return nil
}

func matchPlan(p domain.Plan, f domain.PlanFilter) bool {
	if f.PublishedOnly && !p.IsPublished {
		return false
	}
	if f.Category != "" && f.Category != domain.FilterAll {
		if p.Category != f.Category {
			return false
		}
	} else if len(f.Categories) > 0 && !containsString(f.Categories, p.Category) {
		return false
	}
	if f.Difficulty != "" && f.Difficulty != domain.FilterAll && p.Difficulty != f.Difficulty {
		return false
	}
	if f.TrainerID != nil {
		if p.TrainerID != *f.TrainerID {
			return false
		}
	} else if len(f.TrainerIDs) > 0 && !containsID(f.TrainerIDs, p.TrainerID) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" &&
		!containsFold(p.Title, f.Search) &&
		!containsFold(p.Description, f.Search) &&
		!anyContainsFold(p.Tags, f.Search) {
		return false
	}
	if len(f.ExcludeIDs) > 0 && containsID(f.ExcludeIDs, p.ID) {
		return false
	}
	return true
}

func containsString(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}

func planField(p domain.Plan, field string) any {
	switch field {
	case "price":
		return p.Price
	case "averageRating":
		return p.AverageRating
	case "subscribersCount":
		return p.SubscribersCount
	case "title":
		return p.Title
	default:
		return p.CreatedAt
	}
}

func planID(p domain.Plan) primitive.ObjectID { return p.ID }

func (r *planRepo) Find(_ context.Context, f domain.PlanFilter, sort domain.Sort, page domain.PageRequest) ([]domain.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Plan{}
	for _, p := range r.s.plans {
		if matchPlan(p, f) {
			out = append(out, p)
		}
	}
	sortBy(out, sort, planField, planID)
	return paginate(out, page), nil
}

func (r *planRepo) Count(_ context.Context, f domain.PlanFilter) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, p := range r.s.plans {
		if matchPlan(p, f) {
			n++
		}
	}
	return n, nil
}

func (r *planRepo) IDsByTrainer(_ context.Context, trainerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := []primitive.ObjectID{}
	for _, p := range r.s.plans {
		if p.TrainerID == trainerID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (r *planRepo) ListAll(_ context.Context) ([]domain.Plan, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]domain.Plan, 0, len(r.s.plans))
	for _, p := range r.s.plans {
		out = append(out, p)
	}
	sortBy(out, nil, planField, planID)
	return out, nil
}

func (r *planRepo) IncrementSubscribers(_ context.Context, id primitive.ObjectID, delta int) error {
	return r.mutate(id, func(p *domain.Plan) { p.SubscribersCount = clampAdd(p.SubscribersCount, delta) })
}

func (r *planRepo) SetSubscribersCount(_ context.Context, id primitive.ObjectID, count int) error {
	return r.mutate(id, func(p *domain.Plan) { p.SubscribersCount = count })
}

func (r *planRepo) SetRatingAggregate(_ context.Context, id primitive.ObjectID, agg domain.RatingAggregate) error {
	return r.mutate(id, func(p *domain.Plan) {
		p.AverageRating = agg.Average
		p.TotalReviews = agg.Count
	})
}

func (r *planRepo) mutate(id primitive.ObjectID, fn func(*domain.Plan)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.plans[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&p)
	p.UpdatedAt = r.s.now()
	r.s.plans[id] = p
	return nil
}
