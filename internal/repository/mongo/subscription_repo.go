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

const subscriptionCollectionName = "subscriptions"

// mongoSubscriptionRepository implements repository.SubscriptionRepository
type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new subscription ledger repository.
func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{
		collection: db.Collection(subscriptionCollectionName),
	}
}

// Create inserts a subscription. A second active (user, plan) pair violates the
// partial unique index and is reported as repository.ErrDuplicate.
func (r *mongoSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	if sub.UserID == primitive.NilObjectID || sub.PlanID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("subscription requires userId and planId")
	}
	sub.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.CompletedWorkouts == nil {
		sub.CompletedWorkouts = []domain.WorkoutLog{}
	}

	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// GetByID retrieves a subscription by its ID.
func (r *mongoSubscriptionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Subscription, error) {
	var sub domain.Subscription
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sub); err != nil {
		return nil, mapFindError(err)
	}
	return &sub, nil
}

// Update writes the mutable lifecycle and progress fields.
func (r *mongoSubscriptionRepository) Update(ctx context.Context, sub *domain.Subscription) error {
	sub.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"status":             sub.Status,
		"currentDay":         sub.CurrentDay,
		"progressPercentage": sub.ProgressPercentage,
		"completedWorkouts":  sub.CompletedWorkouts,
		"lastActive":         sub.LastActive,
		"cancelledAt":        sub.CancelledAt,
		"paymentId":          sub.PaymentID,
		"updatedAt":          sub.UpdatedAt,
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": sub.ID}, bson.M{"$set": set})
	if err != nil {
		return mapWriteError(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// FindActive returns the active subscription of userID to planID.
func (r *mongoSubscriptionRepository) FindActive(ctx context.Context, userID, planID primitive.ObjectID) (*domain.Subscription, error) {
	var sub domain.Subscription
	filter := bson.M{"userId": userID, "planId": planID, "status": domain.SubscriptionActive}
	if err := r.collection.FindOne(ctx, filter).Decode(&sub); err != nil {
		return nil, mapFindError(err)
	}
	return &sub, nil
}

// Exists reports whether userID ever subscribed to planID, in any status.
func (r *mongoSubscriptionRepository) Exists(ctx context.Context, userID, planID primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"userId": userID, "planId": planID}, options.Count().SetLimit(1))
	return n > 0, err
}

// ActivePlanIDs returns the plan ids userID is actively subscribed to.
func (r *mongoSubscriptionRepository) ActivePlanIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	subs, err := findAll[domain.Subscription](ctx, r.collection,
		bson.M{"userId": userID, "status": domain.SubscriptionActive},
		options.Find().SetProjection(bson.M{"planId": 1}))
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.PlanID)
	}
	return ids, nil
}

func subscriptionFilterDoc(f repository.SubscriptionFilter) bson.M {
	doc := bson.M{}
	if f.UserID != nil {
		doc["userId"] = *f.UserID
	}
	if len(f.PlanIDs) > 0 {
		doc["planId"] = bson.M{"$in": f.PlanIDs}
	}
	if f.Status != "" {
		doc["status"] = f.Status
	}
	return doc
}

// List returns subscriptions matching filter, newest first.
func (r *mongoSubscriptionRepository) List(ctx context.Context, filter repository.SubscriptionFilter, page domain.PageRequest) ([]domain.Subscription, error) {
	return findAll[domain.Subscription](ctx, r.collection, subscriptionFilterDoc(filter), findOptions(newestFirst, page))
}

// Count counts subscriptions matching filter.
func (r *mongoSubscriptionRepository) Count(ctx context.Context, filter repository.SubscriptionFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, subscriptionFilterDoc(filter))
}

// ExpireDue marks every active subscription whose endDate has passed as expired.
func (r *mongoSubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{"status": domain.SubscriptionActive, "endDate": bson.M{"$lt": now}}
	update := bson.M{"$set": bson.M{"status": domain.SubscriptionExpired, "updatedAt": now.UTC()}}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsureSubscriptionIndexes creates the partial unique index enforcing one
// active subscription per (user, plan), plus lookup indexes.
func EnsureSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "planId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_active_user_plan").
				SetPartialFilterExpression(bson.M{"status": domain.SubscriptionActive}),
		},
		{Keys: bson.D{{Key: "planId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "endDate", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
