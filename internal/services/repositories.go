package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/observability"
	"github.com/trampoja/app-onboarding/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository persists user accounts
type UserRepository interface {
	FindBySubject(ctx context.Context, subject string) (*models.User, error)
	UpsertBySubject(ctx context.Context, subject, email string) (*models.User, error)
	SetProfileType(ctx context.Context, id primitive.ObjectID, userType models.UserType, phone string) error
	SetPhone(ctx context.Context, id primitive.ObjectID, phone string) error
}

// WorkerRepository persists worker profiles
type WorkerRepository interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Worker, error)
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)
	Insert(ctx context.Context, worker *models.Worker) error
	Update(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Worker, error)
}

// MarketRepository persists market profiles
type MarketRepository interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Market, error)
	ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error)
	Insert(ctx context.Context, market *models.Market) error
	Update(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Market, error)
}

// duplicateIndex returns the name of the unique index a write collided with
func duplicateIndex(err error) (string, bool) {
	if !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	msg := err.Error()
	for _, index := range []string{"cpf_1", "cnpj_1", "user_id_1", "auth_subject_1"} {
		if strings.Contains(msg, "index: "+index) {
			return index, true
		}
	}
	return "", true
}

func recordDB(operation string, err error) {
	status := "success"
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		status = "error"
	}
	observability.DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// MongoUserRepository stores users in MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a user repository over collection
func NewMongoUserRepository(collection *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{collection: collection}
}

func (r *MongoUserRepository) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	ctx, span := utils.TraceDatabaseFind(ctx, r.collection.Name(), "auth_subject")
	defer span.End()

	var user models.User
	err := utils.FindOneWithTimeout(ctx, r.collection, bson.M{"auth_subject": subject}, &user, utils.DefaultQueryTimeout)
	recordDB("find_user", err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// UpsertBySubject creates the user on first sign-in and refreshes the email afterwards
func (r *MongoUserRepository) UpsertBySubject(ctx context.Context, subject, email string) (*models.User, error) {
	ctx, span := utils.TraceDatabaseUpdate(ctx, r.collection.Name(), "auth_subject")
	defer span.End()

	now := time.Now()
	set := bson.M{"updated_at": now}
	if email != "" {
		set["email"] = email
	}
	update := bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"type":       models.UserTypeNone,
			"created_at": now,
		},
	}

	var user models.User
	err := utils.FindOneAndUpsertWithTimeout(ctx, r.collection, bson.M{"auth_subject": subject}, update, &user, utils.DefaultQueryTimeout)
	recordDB("upsert_user", err)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &user, nil
}

func (r *MongoUserRepository) SetProfileType(ctx context.Context, id primitive.ObjectID, userType models.UserType, phone string) error {
	set := bson.M{"type": userType, "updated_at": time.Now()}
	if phone != "" {
		set["phone"] = phone
	}
	return r.update(ctx, id, set, "set_user_type")
}

func (r *MongoUserRepository) SetPhone(ctx context.Context, id primitive.ObjectID, phone string) error {
	return r.update(ctx, id, bson.M{"phone": phone, "updated_at": time.Now()}, "set_user_phone")
}

func (r *MongoUserRepository) update(ctx context.Context, id primitive.ObjectID, set bson.M, operation string) error {
	ctx, span := utils.TraceDatabaseUpdate(ctx, r.collection.Name(), "_id")
	defer span.End()

	result, err := utils.UpdateOneWithTimeout(ctx, r.collection, bson.M{"_id": id}, bson.M{"$set": set}, utils.DefaultQueryTimeout)
	recordDB(operation, err)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// MongoWorkerRepository stores worker profiles in MongoDB
type MongoWorkerRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkerRepository creates a worker repository over collection
func NewMongoWorkerRepository(collection *mongo.Collection) *MongoWorkerRepository {
	return &MongoWorkerRepository{collection: collection}
}

func (r *MongoWorkerRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Worker, error) {
	ctx, span := utils.TraceDatabaseFind(ctx, r.collection.Name(), "user_id")
	defer span.End()

	var worker models.Worker
	err := utils.FindOneWithTimeout(ctx, r.collection, bson.M{"user_id": userID}, &worker, utils.DefaultQueryTimeout)
	recordDB("find_worker", err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrWorkerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find worker: %w", err)
	}
	return &worker, nil
}

func (r *MongoWorkerRepository) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	ctx, span := utils.TraceDatabaseFind(ctx, r.collection.Name(), "cpf")
	defer span.End()

	count, err := utils.CountDocumentsWithTimeout(ctx, r.collection, bson.M{"cpf": cpf}, utils.DefaultQueryTimeout)
	recordDB("count_worker_cpf", err)
	if err != nil {
		return false, fmt.Errorf("failed to check CPF: %w", err)
	}
	return count > 0, nil
}

// Insert adds a worker; unique index collisions map to the domain conflicts
func (r *MongoWorkerRepository) Insert(ctx context.Context, worker *models.Worker) error {
	ctx, span := utils.TraceDatabaseInsert(ctx, r.collection.Name())
	defer span.End()

	result, err := utils.InsertOneWithTimeout(ctx, r.collection, worker, utils.DefaultQueryTimeout)
	recordDB("insert_worker", err)
	if index, dup := duplicateIndex(err); dup {
		if index == "user_id_1" {
			return models.ErrWorkerProfileExists
		}
		return models.ErrCPFAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("failed to insert worker: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		worker.ID = id
	}
	return nil
}

func (r *MongoWorkerRepository) Update(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Worker, error) {
	ctx, span := utils.TraceDatabaseUpdate(ctx, r.collection.Name(), "user_id")
	defer span.End()

	var worker models.Worker
	err := utils.FindOneAndUpdateWithTimeout(ctx, r.collection, bson.M{"user_id": userID}, bson.M{"$set": set}, &worker, utils.DefaultQueryTimeout)
	recordDB("update_worker", err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrWorkerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update worker: %w", err)
	}
	return &worker, nil
}

// MongoMarketRepository stores market profiles in MongoDB
type MongoMarketRepository struct {
	collection *mongo.Collection
}

// NewMongoMarketRepository creates a market repository over collection
func NewMongoMarketRepository(collection *mongo.Collection) *MongoMarketRepository {
	return &MongoMarketRepository{collection: collection}
}

func (r *MongoMarketRepository) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Market, error) {
	ctx, span := utils.TraceDatabaseFind(ctx, r.collection.Name(), "user_id")
	defer span.End()

	var market models.Market
	err := utils.FindOneWithTimeout(ctx, r.collection, bson.M{"user_id": userID}, &market, utils.DefaultQueryTimeout)
	recordDB("find_market", err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find market: %w", err)
	}
	return &market, nil
}

func (r *MongoMarketRepository) ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error) {
	ctx, span := utils.TraceDatabaseFind(ctx, r.collection.Name(), "cnpj")
	defer span.End()

	count, err := utils.CountDocumentsWithTimeout(ctx, r.collection, bson.M{"cnpj": cnpj}, utils.DefaultQueryTimeout)
	recordDB("count_market_cnpj", err)
	if err != nil {
		return false, fmt.Errorf("failed to check CNPJ: %w", err)
	}
	return count > 0, nil
}

// Insert adds a market; unique index collisions map to the domain conflicts
func (r *MongoMarketRepository) Insert(ctx context.Context, market *models.Market) error {
	ctx, span := utils.TraceDatabaseInsert(ctx, r.collection.Name())
	defer span.End()

	result, err := utils.InsertOneWithTimeout(ctx, r.collection, market, utils.DefaultQueryTimeout)
	recordDB("insert_market", err)
	if index, dup := duplicateIndex(err); dup {
		if index == "user_id_1" {
			return models.ErrMarketProfileExists
		}
		return models.ErrCNPJAlreadyRegistered
	}
	if err != nil {
		return fmt.Errorf("failed to insert market: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		market.ID = id
	}
	return nil
}

func (r *MongoMarketRepository) Update(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Market, error) {
	ctx, span := utils.TraceDatabaseUpdate(ctx, r.collection.Name(), "user_id")
	defer span.End()

	var market models.Market
	err := utils.FindOneAndUpdateWithTimeout(ctx, r.collection, bson.M{"user_id": userID}, bson.M{"$set": set}, &market, utils.DefaultQueryTimeout)
	recordDB("update_market", err)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrMarketNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update market: %w", err)
	}
	return &market, nil
}
