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

const paymentCollectionName = "payments"

// mongoPaymentRepository implements repository.PaymentRepository
type mongoPaymentRepository struct {
	collection *mongo.Collection
}

// NewMongoPaymentRepository creates a new payment journal repository.
func NewMongoPaymentRepository(db *mongo.Database) repository.PaymentRepository {
	return &mongoPaymentRepository{
		collection: db.Collection(paymentCollectionName),
	}
}

// Create inserts a payment.
func (r *mongoPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (primitive.ObjectID, error) {
	if payment.TransactionID == "" {
		return primitive.NilObjectID, errors.New("payment requires a transaction id")
	}
	payment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, payment)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err)
	}
	return insertedObjectID(result)
}

// GetByID retrieves a payment by its ID.
func (r *mongoPaymentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Payment, error) {
	var payment domain.Payment
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&payment); err != nil {
		return nil, mapFindError(err)
	}
	return &payment, nil
}

func paymentFilterDoc(f repository.PaymentFilter) bson.M {
	doc := bson.M{}
	if f.UserID != nil {
		doc["userId"] = *f.UserID
	}
	if len(f.PlanIDs) > 0 {
		doc["planId"] = bson.M{"$in": f.PlanIDs}
	}
	return doc
}

// List returns payments matching filter, newest first.
func (r *mongoPaymentRepository) List(ctx context.Context, filter repository.PaymentFilter, page domain.PageRequest) ([]domain.Payment, error) {
	return findAll[domain.Payment](ctx, r.collection, paymentFilterDoc(filter), findOptions(newestFirst, page))
}

func (r *mongoPaymentRepository) Count(ctx context.Context, filter repository.PaymentFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, paymentFilterDoc(filter))
}

// SumCompleted sums the amount of completed payments matching filter.
func (r *mongoPaymentRepository) SumCompleted(ctx context.Context, filter repository.PaymentFilter) (float64, error) {
	match := paymentFilterDoc(filter)
	match["status"] = domain.PaymentCompleted
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return domain.SumMoney(rows[0].Total), nil
}

// CountCompleted counts completed payments matching filter.
func (r *mongoPaymentRepository) CountCompleted(ctx context.Context, filter repository.PaymentFilter) (int64, error) {
	match := paymentFilterDoc(filter)
	match["status"] = domain.PaymentCompleted
	return r.collection.CountDocuments(ctx, match)
}

// EnsurePaymentIndexes creates the unique transaction id index and lookup indexes.
func EnsurePaymentIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "transactionId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "planId", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
