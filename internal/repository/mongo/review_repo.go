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

const reviewCollectionName = "reviews"

// mongoReviewRepository implements repository.ReviewRepository
type mongoReviewRepository struct {
	collection *mongo.Collection
}

// NewMongoReviewRepository creates a new review repository.
func NewMongoReviewRepository(db *mongo.Database) repository.ReviewRepository {
	return &mongoReviewRepository{
		collection: db.Collection(reviewCollectionName),
	}
}

// Create inserts a review. A second review by the same user on the same plan
// is reported as repository.ErrDuplicate.
func (r *mongoReviewRepository) Create(ctx context.Context, review *domain.Review) (primitive.ObjectID, error) {
	review.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, review)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// ListApproved lists the approved reviews of a plan, newest first.
func (r *mongoReviewRepository) ListApproved(ctx context.Context, planID primitive.ObjectID, page domain.PageRequest) ([]domain.Review, error) {
	filter := bson.M{"planId": planID, "isApproved": true}
	return findAll[domain.Review](ctx, r.collection, filter, findOptions(newestFirst, page))
}

func (r *mongoReviewRepository) CountApproved(ctx context.Context, planID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"planId": planID, "isApproved": true})
}

// ApprovedRatings returns every approved rating across planIDs.
func (r *mongoReviewRepository) ApprovedRatings(ctx context.Context, planIDs []primitive.ObjectID) ([]int, error) {
	if len(planIDs) == 0 {
		return []int{}, nil
	}
	reviews, err := findAll[domain.Review](ctx, r.collection,
		bson.M{"planId": bson.M{"$in": planIDs}, "isApproved": true},
		options.Find().SetProjection(bson.M{"rating": 1}))
	if err != nil {
		return nil, err
	}
	ratings := make([]int, 0, len(reviews))
	for _, rv := range reviews {
		ratings = append(ratings, rv.Rating)
	}
	return ratings, nil
}

// EnsureReviewIndexes creates the unique (user, plan) index.
func EnsureReviewIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "planId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "planId", Value: 1}, {Key: "isApproved", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
