package mongo

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const planCollectionName = "plans"

// mongoPlanRepository implements repository.PlanRepository
type mongoPlanRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanRepository creates a new plan catalog repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		collection: db.Collection(planCollectionName),
	}
}

// Create inserts a new plan.
func (r *mongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) (primitive.ObjectID, error) {
	if plan.TrainerID == primitive.NilObjectID || plan.Title == "" {
		return primitive.NilObjectID, errors.New("plan requires trainerId and title")
	}
	plan.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, plan)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// GetByID retrieves a single plan by its ID.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Plan, error) {
	var plan domain.Plan
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&plan); err != nil {
		return nil, mapFindError(err)
	}
	return &plan, nil
}

// Update writes the editable content of plan. Denormalized aggregates are untouched.
func (r *mongoPlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	plan.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"title":             plan.Title,
		"description":       plan.Description,
		"fullDescription":   plan.FullDescription,
		"price":             plan.Price,
		"duration":          plan.Duration,
		"category":          plan.Category,
		"difficulty":        plan.Difficulty,
		"weeklyWorkouts":    plan.WeeklyWorkouts,
		"dailyTime":         plan.DailyTime,
		"equipmentRequired": plan.Equipment,
		"coverImage":        plan.CoverImage,
		"coverImageKey":     plan.CoverImageKey,
		"tags":              plan.Tags,
		"workouts":          plan.Workouts,
		"isPublished":       plan.IsPublished,
		"isFeatured":        plan.IsFeatured,
		"updatedAt":         plan.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": plan.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a plan document.
func (r *mongoPlanRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// planFilterDoc translates a domain filter into a Mongo query document.
func planFilterDoc(f domain.PlanFilter) bson.M {
	doc := bson.M{}
	if f.PublishedOnly {
		doc["isPublished"] = true
	}
	if f.Category != "" && f.Category != domain.FilterAll {
		doc["category"] = f.Category
	} else if len(f.Categories) > 0 {
		doc["category"] = bson.M{"$in": f.Categories}
	}
	if f.Difficulty != "" && f.Difficulty != domain.FilterAll {
		doc["difficulty"] = f.Difficulty
	}
	if f.TrainerID != nil {
		doc["trainerId"] = *f.TrainerID
	} else if len(f.TrainerIDs) > 0 {
		doc["trainerId"] = bson.M{"$in": f.TrainerIDs}
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		doc["price"] = price
	}
	if f.Search != "" {
		rx := containsRegex(f.Search)
		doc["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"tags": rx},
		}
	}
	if len(f.ExcludeIDs) > 0 {
		doc["_id"] = bson.M{"$nin": f.ExcludeIDs}
	}
	return doc
}

// Find lists plans matching filter in the requested order.
func (r *mongoPlanRepository) Find(ctx context.Context, filter domain.PlanFilter, sort domain.Sort, page domain.PageRequest) ([]domain.Plan, error) {
	return findAll[domain.Plan](ctx, r.collection, planFilterDoc(filter), findOptions(sort, page))
}

// Count counts plans matching filter.
func (r *mongoPlanRepository) Count(ctx context.Context, filter domain.PlanFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, planFilterDoc(filter))
}

// IDsByTrainer returns the ids of every plan owned by trainerID, published or not.
func (r *mongoPlanRepository) IDsByTrainer(ctx context.Context, trainerID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"trainerId": trainerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	ids := []primitive.ObjectID{}
	for cursor.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cursor.Err()
}

// ListAll returns every plan. Used by reconciliation.
func (r *mongoPlanRepository) ListAll(ctx context.Context) ([]domain.Plan, error) {
	return findAll[domain.Plan](ctx, r.collection, bson.M{})
}

// IncrementSubscribers adjusts subscribersCount by delta, floored at zero.
func (r *mongoPlanRepository) IncrementSubscribers(ctx context.Context, id primitive.ObjectID, delta int) error {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		"subscribersCount": clampedInc("subscribersCount", delta),
		"updatedAt":        time.Now().UTC(),
	}}}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetSubscribersCount overwrites subscribersCount with a recomputed value.
func (r *mongoPlanRepository) SetSubscribersCount(ctx context.Context, id primitive.ObjectID, count int) error {
	return r.setFields(ctx, id, bson.M{"subscribersCount": count})
}

// SetRatingAggregate stores a recomputed averageRating and totalReviews.
func (r *mongoPlanRepository) SetRatingAggregate(ctx context.Context, id primitive.ObjectID, agg domain.RatingAggregate) error {
	return r.setFields(ctx, id, bson.M{"averageRating": agg.Average, "totalReviews": agg.Count})
}

func (r *mongoPlanRepository) setFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updatedAt"] = time.Now().UTC()
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsurePlanIndexes creates indexes backing catalog browse and feed queries.
func EnsurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "trainerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "subscribersCount", Value: -1}, {Key: "averageRating", Value: -1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
