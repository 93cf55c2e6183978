package mongo

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository" // Import the repository interfaces package
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Email == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user email, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		return primitive.NilObjectID, mapWriteError(err) // unique email index
	}
	return insertedObjectID(result)
}

// GetByEmail retrieves a user by their email address.
func (r *mongoUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	filter := bson.M{"email": strings.ToLower(strings.TrimSpace(email))}

	if err := r.collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, mapFindError(err)
	}
	return &user, nil
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mapFindError(err)
	}
	return &user, nil
}

// GetByIDs retrieves every user whose id is in ids. Missing ids are skipped.
func (r *mongoUserRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	return findAll[domain.User](ctx, r.collection, bson.M{"_id": bson.M{"$in": ids}})
}

// UpdateProfile sets the non-nil fields of update and returns the updated user.
func (r *mongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, update domain.ProfileUpdate) (*domain.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Name != nil {
		set["name"] = strings.TrimSpace(*update.Name)
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.ProfileImage != nil {
		set["profileImage"] = *update.ProfileImage
	}
	if update.Phone != nil {
		set["phone"] = *update.Phone
	}
	if update.FitnessGoals != nil {
		set["fitnessGoals"] = *update.FitnessGoals
	}
	if update.ExperienceLevel != nil {
		set["experienceLevel"] = *update.ExperienceLevel
	}
	if update.Certification != nil {
		set["certification"] = *update.Certification
	}
	if update.Specialization != nil {
		set["specialization"] = *update.Specialization
	}
	if update.YearsOfExperience != nil {
		set["yearsOfExperience"] = *update.YearsOfExperience
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user domain.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		return nil, mapFindError(err)
	}
	return &user, nil
}

// UpdatePassword replaces the stored password hash.
func (r *mongoUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	update := bson.M{"$set": bson.M{"passwordHash": passwordHash, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ApplyCounterDelta adjusts the denormalized counters in a single pipeline update.
// Integer counters are floored at zero, revenue is rounded to cents.
func (r *mongoUserRepository) ApplyCounterDelta(ctx context.Context, id primitive.ObjectID, delta domain.CounterDelta) error {
	if delta.IsZero() {
		return nil
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	if delta.FollowersCount != 0 {
		set["followersCount"] = clampedInc("followersCount", delta.FollowersCount)
	}
	if delta.FollowingCount != 0 {
		set["followingCount"] = clampedInc("followingCount", delta.FollowingCount)
	}
	if delta.TotalSubscribers != 0 {
		set["totalSubscribers"] = clampedInc("totalSubscribers", delta.TotalSubscribers)
	}
	if delta.TotalPlans != 0 {
		set["totalPlans"] = clampedInc("totalPlans", delta.TotalPlans)
	}
	if delta.TotalRevenue != 0 {
		set["totalRevenue"] = bson.M{"$round": bson.A{
			bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$totalRevenue", 0}}, delta.TotalRevenue}}, 2,
		}}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, mongo.Pipeline{{{Key: "$set", Value: set}}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetCounters overwrites every denormalized counter with an absolute snapshot.
func (r *mongoUserRepository) SetCounters(ctx context.Context, id primitive.ObjectID, c domain.AccountCounters) error {
	update := bson.M{"$set": bson.M{
		"followersCount":   c.FollowersCount,
		"followingCount":   c.FollowingCount,
		"totalSubscribers": c.TotalSubscribers,
		"totalRevenue":     c.TotalRevenue,
		"totalPlans":       c.TotalPlans,
		"rating":           c.Rating,
		"totalReviews":     c.TotalReviews,
		"updatedAt":        time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SetRating stores a recomputed rating aggregate on the account.
func (r *mongoUserRepository) SetRating(ctx context.Context, id primitive.ObjectID, agg domain.RatingAggregate) error {
	update := bson.M{"$set": bson.M{"rating": agg.Average, "totalReviews": agg.Count, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func trainerFilterDoc(filter domain.TrainerFilter) bson.M {
	doc := bson.M{"role": domain.RoleTrainer, "isActive": true}
	if filter.Search != "" {
		rx := containsRegex(filter.Search)
		doc["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"certification": rx},
			bson.M{"specialization": rx},
		}
	}
	if filter.Specialization != "" {
		doc["specialization"] = containsRegex(filter.Specialization)
	}
	return doc
}

// FindTrainers lists active trainers matching filter.
func (r *mongoUserRepository) FindTrainers(ctx context.Context, filter domain.TrainerFilter, sort domain.Sort, page domain.PageRequest) ([]domain.User, error) {
	return findAll[domain.User](ctx, r.collection, trainerFilterDoc(filter), findOptions(sort, page))
}

// CountTrainers counts active trainers matching filter.
func (r *mongoUserRepository) CountTrainers(ctx context.Context, filter domain.TrainerFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, trainerFilterDoc(filter))
}

// ListAll returns every account. Used by reconciliation.
func (r *mongoUserRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	return findAll[domain.User](ctx, r.collection, bson.M{})
}

// CountByRole counts accounts with the given role.
func (r *mongoUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"role": role})
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}, {Key: "isActive", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "followersCount", Value: -1}},
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
