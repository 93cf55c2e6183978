package mongo

import (
	"context"
	"errors"
	"fitplanhub/backend/internal/domain"
	"fitplanhub/backend/internal/repository"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// sortDoc converts a domain sort into an ordered bson document.
func sortDoc(sort domain.Sort) bson.D {
	doc := bson.D{}
	for _, key := range sort {
		dir := 1
		if key.Desc {
			dir = -1
		}
		doc = append(doc, bson.E{Key: key.Field, Value: dir})
	}
	return doc
}

// findOptions builds sort/skip/limit options. A zero page disables paging.
func findOptions(sort domain.Sort, page domain.PageRequest) *options.FindOptions {
	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sortDoc(sort))
	}
	if page.Limit > 0 {
		opts.SetSkip(int64(page.Skip())).SetLimit(int64(page.Limit))
	}
	return opts
}

// containsRegex matches s as a case-insensitive literal substring.
func containsRegex(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

// mapWriteError translates duplicate key violations into repository.ErrDuplicate.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicate
	}
	return err
}

// mapFindError translates mongo.ErrNoDocuments into repository.ErrNotFound.
func mapFindError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.ErrNotFound
	}
	return err
}

// insertedObjectID extracts the ObjectID of an InsertOne result.
func insertedObjectID(result *mongo.InsertOneResult) (primitive.ObjectID, error) {
	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return id, nil
}

// findAll runs a Find and decodes every document into a slice of T.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// clampedInc returns an aggregation expression adding delta to field, floored at 0.
func clampedInc(field string, delta int) bson.M {
	return bson.M{"$max": bson.A{0, bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$" + field, 0}}, delta}}}}
}
