package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/redisclient"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"
)

var (
	// MongoDB database handle
	MongoDB *mongo.Database
	// Redis client
	Redis *redisclient.Client
)

// indexSpec describes one index the service relies on
type indexSpec struct {
	collection func() string
	name       string
	keys       bson.D
	unique     bool
}

// requiredIndexes lists the indexes backing the uniqueness checks of the
// submission endpoints. The unique indexes are the authoritative guard
// against two concurrent submissions of the same CPF/CNPJ.
var requiredIndexes = []indexSpec{
	{collection: func() string { return AppConfig.UserCollection }, name: "auth_subject_1", keys: bson.D{{Key: "auth_subject", Value: 1}}, unique: true},
	{collection: func() string { return AppConfig.WorkerCollection }, name: "cpf_1", keys: bson.D{{Key: "cpf", Value: 1}}, unique: true},
	{collection: func() string { return AppConfig.WorkerCollection }, name: "user_id_1", keys: bson.D{{Key: "user_id", Value: 1}}, unique: true},
	{collection: func() string { return AppConfig.WorkerCollection }, name: "city_1_state_1", keys: bson.D{{Key: "city", Value: 1}, {Key: "state", Value: 1}}},
	{collection: func() string { return AppConfig.MarketCollection }, name: "cnpj_1", keys: bson.D{{Key: "cnpj", Value: 1}}, unique: true},
	{collection: func() string { return AppConfig.MarketCollection }, name: "user_id_1", keys: bson.D{{Key: "user_id", Value: 1}}, unique: true},
}

// InitMongoDB initializes the MongoDB connection
func InitMongoDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(AppConfig.MongoURI).
		SetMonitor(otelmongo.NewMonitor()).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true).
		SetRetryReads(true)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	MongoDB = client.Database(AppConfig.MongoDatabase)

	if err := ensureIndexes(); err != nil {
		logging.Logger.Error("failed to ensure indexes on startup", zap.Error(err))
	}

	logging.Logger.Info("connected to MongoDB",
		zap.String("uri", maskMongoURI(AppConfig.MongoURI)),
		zap.String("database", AppConfig.MongoDatabase),
	)
	return nil
}

// InitRedis initializes the Redis connection
func InitRedis() {
	if AppConfig.RedisClusterEnabled {
		Redis = redisclient.NewClusterClient(redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        AppConfig.RedisClusterAddrs,
			Password:     AppConfig.RedisPassword,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}))
	} else {
		Redis = redisclient.NewClient(redis.NewClient(&redis.Options{
			Addr:         AppConfig.RedisURI,
			Password:     AppConfig.RedisPassword,
			DB:           AppConfig.RedisDB,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PoolSize:     10,
			MinIdleConns: 2,
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	target := AppConfig.RedisURI
	if AppConfig.RedisClusterEnabled {
		target = strings.Join(AppConfig.RedisClusterAddrs, ",")
	}
	if err := Redis.Ping(ctx).Err(); err != nil {
		logging.Logger.Error("failed to connect to Redis",
			zap.String("uri", target),
			zap.Bool("cluster", AppConfig.RedisClusterEnabled),
			zap.Error(err))
		return
	}

	logging.Logger.Info("connected to Redis",
		zap.String("uri", target),
		zap.Bool("cluster", AppConfig.RedisClusterEnabled))
}

// maskMongoURI hides the credentials part of a MongoDB URI
func maskMongoURI(uri string) string {
	at := strings.LastIndex(uri, "@")
	if at < 0 {
		return uri
	}
	scheme := "mongodb://"
	if i := strings.Index(uri, "://"); i >= 0 {
		scheme = uri[:i+3]
	}
	return scheme + "****:****@" + uri[at+1:]
}

// ensureIndexes creates required indexes if they don't exist
func ensureIndexes() error {
	logger := logging.Logger.Named("database")
	logger.Info("ensuring required indexes exist")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, spec := range requiredIndexes {
		if err := ensureIndex(ctx, logger, spec); err != nil {
			return err
		}
	}

	logger.Info("all required indexes verified")
	return nil
}

// ensureIndex creates a single index unless one with the same name exists
func ensureIndex(ctx context.Context, logger *logging.SafeLogger, spec indexSpec) error {
	collectionName := spec.collection()
	collection := MongoDB.Collection(collectionName)

	cursor, err := collection.Indexes().List(ctx)
	if err != nil {
		logger.Error("failed to list indexes", zap.String("collection", collectionName), zap.Error(err))
		return err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var index bson.M
		if err := cursor.Decode(&index); err != nil {
			continue
		}
		if name, ok := index["name"].(string); ok && name == spec.name {
			logger.Debug("index already exists",
				zap.String("collection", collectionName),
				zap.String("index", spec.name))
			return nil
		}
	}

	indexOptions := options.Index().SetName(spec.name)
	if spec.unique {
		indexOptions.SetUnique(true)
	}

	_, err = collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: spec.keys, Options: indexOptions})
	if err != nil {
		// Another instance may have created it concurrently
		if mongo.IsDuplicateKeyError(err) {
			logger.Info("index already exists (created by another instance)",
				zap.String("collection", collectionName),
				zap.String("index", spec.name))
			return nil
		}
		logger.Error("failed to create index",
			zap.String("collection", collectionName),
			zap.String("index", spec.name),
			zap.Error(err))
		return err
	}

	logger.Info("created index",
		zap.String("collection", collectionName),
		zap.String("index", spec.name),
		zap.Bool("unique", spec.unique))
	return nil
}
