package mongo

import (
	"context"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const followCollectionName = "follows"

// mongoFollowRepository implements repository.FollowRepository
type mongoFollowRepository struct {
	collection *mongo.Collection
}

// NewMongoFollowRepository creates a new social graph repository.
func NewMongoFollowRepository(db *mongo.Database) repository.FollowRepository {
	return &mongoFollowRepository{
		collection: db.Collection(followCollectionName),
	}
}

// Create inserts a follow edge. The unique (follower, following) index
// turns a concurrent duplicate into repository.ErrDuplicate.
func (r *mongoFollowRepository) Create(ctx context.Context, follow *domain.Follow) (primitive.ObjectID, error) {
	follow.ID = primitive.NewObjectID()
	follow.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, follow)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// Delete removes the edge between follower and following.
func (r *mongoFollowRepository) Delete(ctx context.Context, follower, following primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"follower": follower, "following": following})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Exists reports whether follower follows following.
func (r *mongoFollowRepository) Exists(ctx context.Context, follower, following primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"follower": follower, "following": following}, options.Count().SetLimit(1))
	return n > 0, err
}

// FollowingIDs returns the ids of every account follower follows.
func (r *mongoFollowRepository) FollowingIDs(ctx context.Context, follower primitive.ObjectID) ([]primitive.ObjectID, error) {
	edges, err := findAll[domain.Follow](ctx, r.collection, bson.M{"follower": follower},
		options.Find().SetProjection(bson.M{"following": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Following)
	}
	return ids, nil
}

var newestFirst = domain.Sort{{Field: "createdAt", Desc: true}}

// ListByFollower lists the edges created by follower, newest first.
func (r *mongoFollowRepository) ListByFollower(ctx context.Context, follower primitive.ObjectID, page domain.PageRequest) ([]domain.Follow, error) {
	return findAll[domain.Follow](ctx, r.collection, bson.M{"follower": follower}, findOptions(newestFirst, page))
}

// ListByFollowing lists the edges pointing at following, newest first.
func (r *mongoFollowRepository) ListByFollowing(ctx context.Context, following primitive.ObjectID, page domain.PageRequest) ([]domain.Follow, error) {
	return findAll[domain.Follow](ctx, r.collection, bson.M{"following": following}, findOptions(newestFirst, page))
}

func (r *mongoFollowRepository) CountByFollower(ctx context.Context, follower primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"follower": follower})
}

func (r *mongoFollowRepository) CountByFollowing(ctx context.Context, following primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"following": following})
}

// EnsureFollowIndexes creates the unique edge index and lookup indexes.
func EnsureFollowIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "follower", Value: 1}, {Key: "following", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "following", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
