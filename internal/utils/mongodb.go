package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultQueryTimeout is the default timeout for MongoDB operations
const DefaultQueryTimeout = 10 * time.Second

// FindOneWithTimeout performs a MongoDB FindOne operation with timeout
func FindOneWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, result interface{}, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return collection.FindOne(ctx, filter).Decode(result)
}

// FindOneAndUpdateWithTimeout applies update and decodes the updated document into result
func FindOneAndUpdateWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, update bson.M, result interface{}, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(result)
}

// UpdateOneWithTimeout performs a MongoDB UpdateOne operation with timeout
func UpdateOneWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, update bson.M, timeout time.Duration) (*mongo.UpdateResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return collection.UpdateOne(ctx, filter, update)
}

// FindOneAndUpsertWithTimeout applies update, inserting when nothing matches, and decodes the result
func FindOneAndUpsertWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, update bson.M, result interface{}, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(true)
	return collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(result)
}

// InsertOneWithTimeout performs a MongoDB InsertOne operation with timeout
func InsertOneWithTimeout(ctx context.Context, collection *mongo.Collection, document interface{}, timeout time.Duration) (*mongo.InsertOneResult, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return collection.InsertOne(ctx, document)
}

// CountDocumentsWithTimeout performs a MongoDB CountDocuments operation with timeout
func CountDocumentsWithTimeout(ctx context.Context, collection *mongo.Collection, filter bson.M, timeout time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return collection.CountDocuments(ctx, filter)
}
