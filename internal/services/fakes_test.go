package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testLogger() *logging.SafeLogger {
	return logging.New(zap.NewNop())
}

// fakeKV is an in-memory KeyValueStore; err makes every call fail
type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStringResult("", f.err)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	f.data[key] = toString(value)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.data[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.data[key] = toString(value)
	f.ttls[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeKV) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func (f *fakeKV) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}

func toString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	}
	return fmt.Sprint(v)
}

type fakeUserRepo struct {
	users map[string]*models.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*models.User{}}
}

func (r *fakeUserRepo) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[subject]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpsertBySubject(ctx context.Context, subject, email string) (*models.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[subject]
	if !ok {
		u = &models.User{ID: primitive.NewObjectID(), AuthSubject: subject}
		r.users[subject] = u
	}
	u.Email = email
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) byID(id primitive.ObjectID) *models.User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (r *fakeUserRepo) SetProfileType(ctx context.Context, id primitive.ObjectID, userType models.UserType, phone string) error {
	if r.err != nil {
		return r.err
	}
	u := r.byID(id)
	if u == nil {
		return models.ErrUserNotFound
	}
	u.Type = userType
	if phone != "" {
		u.Phone = phone
	}
	return nil
}

func (r *fakeUserRepo) SetPhone(ctx context.Context, id primitive.ObjectID, phone string) error {
	u := r.byID(id)
	if u == nil {
		return models.ErrUserNotFound
	}
	u.Phone = phone
	return nil
}

type fakeWorkerRepo struct {
	workers map[primitive.ObjectID]*models.Worker
	sets    []bson.M
}

func newFakeWorkerRepo() *fakeWorkerRepo {
	return &fakeWorkerRepo{workers: map[primitive.ObjectID]*models.Worker{}}
}

func (r *fakeWorkerRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Worker, error) {
	w, ok := r.workers[userID]
	if !ok {
		return nil, models.ErrWorkerNotFound
	}
	return w, nil
}

func (r *fakeWorkerRepo) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	for _, w := range r.workers {
		if w.CPF == cpf {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWorkerRepo) Insert(ctx context.Context, worker *models.Worker) error {
	worker.ID = primitive.NewObjectID()
	r.workers[worker.UserID] = worker
	return nil
}

func (r *fakeWorkerRepo) Update(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Worker, error) {
	w, ok := r.workers[userID]
	if !ok {
		return nil, models.ErrWorkerNotFound
	}
	r.sets = append(r.sets, set)
	if v, ok := set["first_name"].(string); ok {
		w.FirstName = v
	}
	if v, ok := set["photo_url"].(string); ok {
		w.PhotoURL = v
	}
	if v, ok := set["document_url"].(string); ok {
		w.DocumentURL = v
	}
	return w, nil
}

type fakeMarketRepo struct {
	markets map[primitive.ObjectID]*models.Market
}

func newFakeMarketRepo() *fakeMarketRepo {
	return &fakeMarketRepo{markets: map[primitive.ObjectID]*models.Market{}}
}

func (r *fakeMarketRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Market, error) {
	m, ok := r.markets[userID]
	if !ok {
		return nil, models.ErrMarketNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMarketRepo) ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error) {
	for _, m := range r.markets {
		if m.CNPJ == cnpj {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMarketRepo) Insert(ctx context.Context, market *models.Market) error {
	market.ID = primitive.NewObjectID()
	cp := *market
	r.markets[market.UserID] = &cp
	return nil
}

func (r *fakeMarketRepo) Update(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Market, error) {
	m, ok := r.markets[userID]
	if !ok {
		return nil, models.ErrMarketNotFound
	}
	if v, ok := set["trade_name"].(string); ok {
		m.TradeName = v
	}
	if v, ok := set["photo_url"].(string); ok {
		m.PhotoURL = v
	}
	if v, ok := set["banner_url"].(string); ok {
		m.BannerURL = v
	}
	if v, ok := set["phone"].(string); ok {
		m.Phone = v
	}
	cp := *m
	return &cp, nil
}

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }

func validWorkerRequest() models.CreateWorkerRequest {
	return models.CreateWorkerRequest{
		FirstName:     "Carlos",
		LastName:      "Silva",
		CPF:           "52998224725",
		DateOfBirth:   "1990-05-12",
		Phone:         "11987654321",
		Address:       "Rua Vergueiro, 1000",
		City:          "Sao Paulo",
		State:         "SP",
		ZipCode:       "04010200",
		Lat:           float64Ptr(-23.57),
		Lng:           float64Ptr(-46.64),
		MinHourlyRate: 18,
		Skills:        []string{"REPOSITOR", "ESTOQUISTA"},
	}
}

func validMarketRequest() models.CreateMarketRequest {
	return models.CreateMarketRequest{
		CNPJ:            "11222333000181",
		TradeName:       "Mercado Bom Preco",
		LegalName:       "Bom Preco Comercio de Alimentos LTDA",
		Address:         "Avenida Paulista, 1500",
		City:            "Sao Paulo",
		State:           "SP",
		ZipCode:         "01310200",
		Lat:             float64Ptr(-23.56),
		Lng:             float64Ptr(-46.65),
		Phone:           "1133334444",
		Email:           "contato@bompreco.com.br",
		ResponsibleName: "Ana Souza",
	}
}
