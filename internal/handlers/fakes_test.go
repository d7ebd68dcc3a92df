package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/middleware"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/services"
	"github.com/trampoja/app-onboarding/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)
	pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n%%EOF\n")
)

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
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
	f.data[key] = fmt.Sprintf("%s", value)
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
	f.data[key] = fmt.Sprintf("%s", value)
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

// applySet merges a $set document into a model through its bson form
func applySet(dst interface{}, set bson.M) error {
	raw, err := bson.Marshal(dst)
	if err != nil {
		return err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return err
	}
	for k, v := range set {
		doc[k] = v
	}
	if raw, err = bson.Marshal(doc); err != nil {
		return err
	}
	return bson.Unmarshal(raw, dst)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (r *fakeUserRepo) FindBySubject(ctx context.Context, subject string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[subject]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpsertBySubject(ctx context.Context, subject, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[subject]
	if !ok {
		u = &models.User{ID: primitive.NewObjectID(), AuthSubject: subject}
		r.users[subject] = u
	}
	u.Email = email
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) update(id primitive.ObjectID, fn func(u *models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			fn(u)
			return nil
		}
	}
	return models.ErrUserNotFound
}

func (r *fakeUserRepo) SetProfileType(ctx context.Context, id primitive.ObjectID, userType models.UserType, phone string) error {
	return r.update(id, func(u *models.User) {
		u.Type = userType
		if phone != "" {
			u.Phone = phone
		}
	})
}

func (r *fakeUserRepo) SetPhone(ctx context.Context, id primitive.ObjectID, phone string) error {
	return r.update(id, func(u *models.User) { u.Phone = phone })
}

type fakeWorkerRepo struct {
	mu      sync.Mutex
	workers map[primitive.ObjectID]*models.Worker
}

func (r *fakeWorkerRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[userID]
	if !ok {
		return nil, models.ErrWorkerNotFound
	}
	cp := *w
	return &cp, nil
}

func (r *fakeWorkerRepo) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.workers {
		if w.CPF == cpf {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeWorkerRepo) Insert(ctx context.Context, worker *models.Worker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	worker.ID = primitive.NewObjectID()
	cp := *worker
	r.workers[worker.UserID] = &cp
	return nil
}

func (r *fakeWorkerRepo) Update(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Worker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.workers[userID]
	if !ok {
		return nil, models.ErrWorkerNotFound
	}
	if err := applySet(w, set); err != nil {
		return nil, err
	}
	cp := *w
	return &cp, nil
}

type fakeMarketRepo struct {
	mu      sync.Mutex
	markets map[primitive.ObjectID]*models.Market
}

func (r *fakeMarketRepo) FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markets[userID]
	if !ok {
		return nil, models.ErrMarketNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMarketRepo) ExistsByCNPJ(ctx context.Context, cnpj string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.markets {
		if m.CNPJ == cnpj {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMarketRepo) Insert(ctx context.Context, market *models.Market) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	market.ID = primitive.NewObjectID()
	cp := *market
	r.markets[market.UserID] = &cp
	return nil
}

func (r *fakeMarketRepo) Update(ctx context.Context, userID primitive.ObjectID, set bson.M) (*models.Market, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markets[userID]
	if !ok {
		return nil, models.ErrMarketNotFound
	}
	if err := applySet(m, set); err != nil {
		return nil, err
	}
	cp := *m
	return &cp, nil
}

// testEnv wires the real services over in-memory repositories
type testEnv struct {
	router    *gin.Engine
	users     *fakeUserRepo
	workers   *fakeWorkerRepo
	markets   *fakeMarketRepo
	kv        *fakeKV
	uploadDir string
	checks    map[string]HealthCheck
	brasilAPI http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	logger := logging.New(zap.NewNop())
	env := &testEnv{
		users:     &fakeUserRepo{users: map[string]*models.User{}},
		workers:   &fakeWorkerRepo{workers: map[primitive.ObjectID]*models.Worker{}},
		markets:   &fakeMarketRepo{markets: map[primitive.ObjectID]*models.Market{}},
		kv:        newFakeKV(),
		uploadDir: t.TempDir(),
		checks: map[string]HealthCheck{
			"mongodb": func(ctx context.Context) error { return nil },
			"redis":   func(ctx context.Context) error { return nil },
		},
	}

	brasilAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.brasilAPI == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		env.brasilAPI.ServeHTTP(w, r)
	}))
	t.Cleanup(brasilAPI.Close)

	userSvc := services.NewUserService(env.users, env.workers, env.markets, logger)
	workerSvc := services.NewWorkerService(env.users, env.workers, logger)
	marketSvc := services.NewMarketService(env.users, env.markets, logger)
	uploadSvc := services.NewUploadService(env.uploadDir, "/uploads", env.kv, time.Minute, logger)
	sessionSvc := services.NewOnboardingSessionService(env.kv, time.Hour, workerSvc, marketSvc, nil, logger)
	lookupSvc := services.NewCNPJLookupService(brasilAPI.Client(), brasilAPI.URL, env.kv, time.Hour, 60, logger)

	set := &Set{
		Health:     NewHealthHandlers(logger, env.checks),
		Users:      NewUserHandlers(logger, userSvc),
		Workers:    NewWorkerHandlers(logger, userSvc, workerSvc, uploadSvc),
		Markets:    NewMarketHandlers(logger, userSvc, marketSvc, uploadSvc),
		Documents:  NewDocumentHandlers(logger, utils.NewDocumentValidator(), lookupSvc),
		Onboarding: NewOnboardingHandlers(logger, userSvc, sessionSvc, uploadSvc),
	}
	env.router = gin.New()
	set.Register(env.router, middleware.AuthMiddleware())
	return env
}

// createTestJWT creates an unsigned token carrying claims
func createTestJWT(claims models.JWTClaims) string {
	claimsJSON, _ := json.Marshal(claims)
	return "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9." + base64.RawURLEncoding.EncodeToString(claimsJSON) + ".fake-signature"
}

const testSubject = "user-123"

func (e *testEnv) do(t *testing.T, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return httpRequestAs(t, e, method, url, body, testSubject)
}

// httpRequestAs sends a JSON request authenticated as subject
func httpRequestAs(t *testing.T, e *testEnv, method, url string, body interface{}, subject string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+createTestJWT(models.JWTClaims{
		SUB:   subject,
		Email: subject + "@example.com",
		Exp:   time.Now().Add(time.Hour).Unix(),
	}))
	return e.serve(req)
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	if req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+createTestJWT(models.JWTClaims{
			SUB:   testSubject,
			Email: "carlos@example.com",
			Exp:   time.Now().Add(time.Hour).Unix(),
		}))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type filePart struct {
	field       string
	contentType string
	data        []byte
}

func (e *testEnv) upload(t *testing.T, method, url string, fields map[string]string, files ...filePart) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="upload"`, f.field))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return e.serve(req)
}

// user returns the account registered for the test subject
func (e *testEnv) user(t *testing.T) *models.User {
	t.Helper()
	u, err := e.users.UpsertBySubject(context.Background(), testSubject, "carlos@example.com")
	require.NoError(t, err)
	return u
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details"`
	Success bool            `json:"success"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func float64Ptr(v float64) *float64 { return &v }

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
