package memory

import (
	"context"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type followRepo struct{ s *Store }

func followField(f domain.Follow, _ string) any   { return f.CreatedAt }
func followID(f domain.Follow) primitive.ObjectID { return f.ID }

func (r *followRepo) Create(_ context.Context, follow *domain.Follow) (primitive.ObjectID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, f := range r.s.follows {
		if f.Follower == follow.Follower && f.Following == follow.Following {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	follow.ID = primitive.NewObjectID()
	follow.CreatedAt = r.s.now()
	r.s.follows[follow.ID] = *follow
	return follow.ID, nil
}

func (r *followRepo) Delete(_ context.Context, follower, following primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, f := range r.s.follows {
		if f.Follower == follower && f.Following == following {
			delete(r.s.follows, id)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *followRepo) Exists(_ context.Context, follower, following primitive.ObjectID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, f := range r.s.follows {
		if f.Follower == follower && f.Following == following {
			return true, nil
		}
	}
	return false, nil
}

func (r *followRepo) FollowingIDs(_ context.Context, follower primitive.ObjectID) ([]primitive.ObjectID, error) {
	edges := r.filter(func(f domain.Follow) bool { return f.Follower == follower })
	ids := make([]primitive.ObjectID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Following)
	}
	return ids, nil
}

func (r *followRepo) ListByFollower(_ context.Context, follower primitive.ObjectID, page domain.PageRequest) ([]domain.Follow, error) {
	edges := r.filter(func(f domain.Follow) bool { return f.Follower == follower })
	return paginate(edges, page), nil
}

func (r *followRepo) ListByFollowing(_ context.Context, following primitive.ObjectID, page domain.PageRequest) ([]domain.Follow, error) {
	edges := r.filter(func(f domain.Follow) bool { return f.Following == following })
	return paginate(edges, page), nil
}

func (r *followRepo) CountByFollower(_ context.Context, follower primitive.ObjectID) (int64, error) {
	return int64(len(r.filter(func(f domain.Follow) bool { return f.Follower == follower }))), nil
}

func (r *followRepo) CountByFollowing(_ context.Context, following primitive.ObjectID) (int64, error) {
	return int64(len(r.filter(func(f domain.Follow) bool { return f.Following == following }))), nil
}

// filter returns matching edges, newest first.
func (r *followRepo) filter(match func(domain.Follow) bool) []domain.Follow {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Follow{}
	for _, f := range r.s.follows {
		if match(f) {
			out = append(out, f)
		}
	}
	sortBy(out, newestFirst, followField, followID)
	return out
}
