package memory

import (
	"context"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reviewRepo struct{ s *Store }

func reviewField(r domain.Review, _ string) any   { return r.CreatedAt }
func reviewID(r domain.Review) primitive.ObjectID { return r.ID }

func (r *reviewRepo) Create(_ context.Context, review *domain.Review) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.reviews {
		if existing.UserID == review.UserID && existing.PlanID == review.PlanID {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	review.ID = primitive.NewObjectID()
	now := r.s.now()
	review.CreatedAt = now
	review.UpdatedAt = now
	r.s.reviews[review.ID] = *review
	return review.ID, nil
}

func (r *reviewRepo) ListApproved(_ context.Context, planID primitive.ObjectID, page domain.PageRequest) ([]domain.Review, error) {
	return paginate(r.approved([]primitive.ObjectID{planID}), page), nil
}

func (r *reviewRepo) CountApproved(_ context.Context, planID primitive.ObjectID) (int64, error) {
	return int64(len(r.approved([]primitive.ObjectID{planID}))), nil
}

func (r *reviewRepo) ApprovedRatings(_ context.Context, planIDs []primitive.ObjectID) ([]int, error) {
	reviews := r.approved(planIDs)
	ratings := make([]int, 0, len(reviews))
	for _, rv := range reviews {
		ratings = append(ratings, rv.Rating)
	}
	return ratings, nil
}

// approved returns approved reviews on any of planIDs, newest first.
func (r *reviewRepo) approved(planIDs []primitive.ObjectID) []domain.Review {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Review{}
	if len(planIDs) == 0 {
		return out
	}
	for _, rv := range r.s.reviews {
		if rv.IsApproved && containsID(planIDs, rv.PlanID) {
			out = append(out, rv)
		}
	}
	sortBy(out, newestFirst, reviewField, reviewID)
	return out
}
