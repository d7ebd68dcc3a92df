package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/onboarding"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixedLocator struct {
	lat, lng float64
	calls    int
}

func (l *fixedLocator) Locate(ctx context.Context, loc models.Location) models.Location {
	l.calls++
	if loc.HasCoordinates() {
		return loc
	}
	loc.Lat, loc.Lng = l.lat, l.lng
	return loc
}

type sessionFixture struct {
	svc     *OnboardingSessionService
	kv      *fakeKV
	users   *fakeUserRepo
	workers *fakeWorkerRepo
	markets *fakeMarketRepo
	locator *fixedLocator
	user    *models.User
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		kv:      newFakeKV(),
		users:   newFakeUserRepo(),
		workers: newFakeWorkerRepo(),
		markets: newFakeMarketRepo(),
		locator: &fixedLocator{lat: -23.56, lng: -46.65},
	}
	f.user, _ = f.users.UpsertBySubject(context.Background(), "sub-1", "user@example.com")
	f.svc = NewOnboardingSessionService(
		f.kv,
		24*time.Hour,
		NewWorkerService(f.users, f.workers, testLogger()),
		NewMarketService(f.users, f.markets, testLogger()),
		f.locator,
		testLogger(),
	)
	return f
}

func (f *sessionFixture) key(role onboarding.Role) string {
	return "onboarding:" + string(role) + ":" + f.user.ID.Hex()
}

func (f *sessionFixture) stored(t *testing.T, role onboarding.Role) sessionRecord {
	t.Helper()
	raw, err := f.kv.Get(context.Background(), f.key(role)).Result()
	require.NoError(t, err)
	var rec sessionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func workerStep1() *onboarding.WorkerPatch {
	return &onboarding.WorkerPatch{
		FirstName:   stringPtr("Carlos"),
		LastName:    stringPtr("Silva"),
		CPF:         stringPtr("529.982.247-25"),
		DateOfBirth: stringPtr("1990-05-12"),
		Phone:       stringPtr("(11) 98765-4321"),
	}
}

func workerStep2() *onboarding.WorkerPatch {
	return &onboarding.WorkerPatch{
		Address: stringPtr("Rua Vergueiro, 1000"),
		City:    stringPtr("Sao Paulo"),
		State:   stringPtr("sp"),
		ZipCode: stringPtr("04010-200"),
	}
}

func (f *sessionFixture) completeWorkerFlow(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	role := onboarding.RoleWorker

	_, err := f.svc.SubmitStep(ctx, f.user, role, 1, workerStep1())
	require.NoError(t, err)
	_, err = f.svc.SubmitStep(ctx, f.user, role, 2, workerStep2())
	require.NoError(t, err)
	_, _, err = f.svc.SetAsset(ctx, f.user, role, onboarding.SlotPhoto, "/uploads/workers/photos/p.png")
	require.NoError(t, err)
	_, _, err = f.svc.SetAsset(ctx, f.user, role, onboarding.SlotDocument, "/uploads/workers/documents/d.pdf")
	require.NoError(t, err)
	_, err = f.svc.SubmitStep(ctx, f.user, role, 3, nil)
	require.NoError(t, err)
	skills := []string{"repositor", "CAIXA", "repositor"}
	_, err = f.svc.SubmitStep(ctx, f.user, role, 4, &onboarding.WorkerPatch{Skills: &skills})
	require.NoError(t, err)
	_, err = f.svc.SubmitStep(ctx, f.user, role, 5, &onboarding.WorkerPatch{
		MinHourlyRate:    float64Ptr(20),
		PeriodPreference: stringPtr("NOITE"),
	})
	require.NoError(t, err)
}

func TestOnboardingSession_Start(t *testing.T) {
	f := newSessionFixture()

	session, err := f.svc.Start(context.Background(), f.user, onboarding.RoleWorker)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)
	assert.Equal(t, 0, session.CompletedStep)
	require.NotNil(t, session.Draft.Worker)
	assert.Equal(t, models.DefaultSearchRadius, session.Draft.Worker.SearchRadius)
	assert.Len(t, session.Steps, 5)
	assert.Equal(t, 24*time.Hour, f.kv.ttls[f.key(onboarding.RoleWorker)])

	market, err := f.svc.Start(context.Background(), f.user, onboarding.RoleMarket)
	require.NoError(t, err)
	assert.Len(t, market.Steps, 4)
}

func TestOnboardingSession_Start_ExistingProfile(t *testing.T) {
	f := newSessionFixture()
	f.user.Type = models.UserTypeMarket

	_, err := f.svc.Start(context.Background(), f.user, onboarding.RoleWorker)
	assert.ErrorIs(t, err, models.ErrMarketProfileExists)
}

func TestOnboardingSession_Start_InvalidRole(t *testing.T) {
	f := newSessionFixture()

	_, err := f.svc.Start(context.Background(), f.user, onboarding.Role("admin"))
	assert.ErrorIs(t, err, models.ErrInvalidRole)
}

func TestOnboardingSession_SubmitStep(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	session, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, workerStep1())
	require.NoError(t, err)
	assert.Equal(t, 2, session.CurrentStep)
	assert.Equal(t, 1, session.CompletedStep)
	assert.Equal(t, "52998224725", session.Draft.Worker.CPF)
	assert.True(t, session.Steps[0].Completed)
	assert.True(t, session.Steps[0].Clickable)
	assert.True(t, session.Steps[1].Current)

	rec := f.stored(t, onboarding.RoleWorker)
	assert.Equal(t, 1, rec.CompletedStep)
	assert.Equal(t, "Carlos", rec.Draft.Worker.FirstName)
}

func TestOnboardingSession_SubmitStep_Geocodes(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	_, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, workerStep1())
	require.NoError(t, err)

	session, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 2, workerStep2())
	require.NoError(t, err)
	assert.Equal(t, 1, f.locator.calls)
	assert.Equal(t, -23.56, session.Draft.Worker.Lat)
	assert.Equal(t, "SP", session.Draft.Worker.State)
	assert.Equal(t, "04010200", session.Draft.Worker.ZipCode)

	patch := workerStep2()
	patch.Lat, patch.Lng = float64Ptr(-23.1), float64Ptr(-46.1)
	session, err = f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 2, patch)
	require.NoError(t, err)
	assert.Equal(t, 1, f.locator.calls, "client coordinates are kept")
	assert.Equal(t, -23.1, session.Draft.Worker.Lat)
}

func TestOnboardingSession_SubmitStep_InvalidAddressNotGeocoded(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	_, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, workerStep1())
	require.NoError(t, err)

	patch := workerStep2()
	patch.State = stringPtr("XX")
	_, err = f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 2, patch)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 0, f.locator.calls)
}

func TestOnboardingSession_SubmitStep_RejectionLeavesState(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	_, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, workerStep1())
	require.NoError(t, err)
	before := f.stored(t, onboarding.RoleWorker)

	bad := workerStep1()
	bad.CPF = stringPtr("111.111.111-11")
	_, err = f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, bad)

	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "cpf", verr.Fields[0].Field)
	assert.Equal(t, before, f.stored(t, onboarding.RoleWorker))
}

func TestOnboardingSession_SubmitStep_Gating(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 3, nil)
	assert.ErrorIs(t, err, models.ErrStepNotReachable)

	_, err = f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 6, nil)
	assert.ErrorIs(t, err, models.ErrStepOutOfRange)

	_, err = f.svc.SubmitStep(ctx, f.user, onboarding.RoleMarket, 5, nil)
	assert.ErrorIs(t, err, models.ErrStepOutOfRange)

	_, err = f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, &onboarding.WorkerPatch{Skills: &[]string{"CAIXA"}})
	assert.ErrorIs(t, err, models.ErrValidation, "fields of another step are refused")

	_, err = f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, &onboarding.MarketPatch{CNPJ: stringPtr("11222333000181")})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestOnboardingSession_BackAndJump(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	_, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, workerStep1())
	require.NoError(t, err)
	_, err = f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 2, workerStep2())
	require.NoError(t, err)

	session, err := f.svc.Back(ctx, f.user, onboarding.RoleWorker, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, session.CurrentStep)
	assert.Equal(t, "Sao Paulo", session.Draft.Worker.City, "going back keeps data")

	session, err = f.svc.Back(ctx, f.user, onboarding.RoleWorker, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)

	session, err = f.svc.Jump(ctx, f.user, onboarding.RoleWorker, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)

	_, err = f.svc.Jump(ctx, f.user, onboarding.RoleWorker, 2, 4)
	assert.ErrorIs(t, err, models.ErrJumpNotAllowed)
	_, err = f.svc.Jump(ctx, f.user, onboarding.RoleWorker, 2, 2)
	assert.ErrorIs(t, err, models.ErrJumpNotAllowed)
}

func TestOnboardingSession_ClientStepCappedAtProgress(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	role := onboarding.RoleWorker

	_, err := f.svc.Jump(ctx, f.user, role, 5, 4)
	assert.ErrorIs(t, err, models.ErrJumpNotAllowed)

	session, err := f.svc.Get(ctx, f.user, role, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)
	assert.False(t, session.Steps[0].Completed)

	session, err = f.svc.Back(ctx, f.user, role, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)

	_, err = f.svc.SubmitStep(ctx, f.user, role, 1, workerStep1())
	require.NoError(t, err)
	_, err = f.svc.Jump(ctx, f.user, role, 5, 3)
	assert.ErrorIs(t, err, models.ErrJumpNotAllowed)
	session, err = f.svc.Jump(ctx, f.user, role, 5, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)
}

func TestOnboardingSession_ResetAndDiscard(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	_, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, workerStep1())
	require.NoError(t, err)

	session, err := f.svc.Reset(ctx, f.user, onboarding.RoleWorker)
	require.NoError(t, err)
	assert.Equal(t, 0, session.CompletedStep)
	assert.Empty(t, session.Draft.Worker.FirstName)
	assert.Equal(t, string(models.PeriodIntegral), session.Draft.Worker.PeriodPreference)

	require.NoError(t, f.svc.Discard(ctx, f.user, onboarding.RoleWorker))
	assert.False(t, f.kv.has(f.key(onboarding.RoleWorker)))
}

func TestOnboardingSession_Assets(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	_, previous, err := f.svc.SetAsset(ctx, f.user, onboarding.RoleMarket, onboarding.SlotBanner, "/uploads/markets/b1.png")
	require.NoError(t, err)
	assert.Empty(t, previous)

	session, previous, err := f.svc.SetAsset(ctx, f.user, onboarding.RoleMarket, onboarding.SlotBanner, "/uploads/markets/b2.png")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/markets/b1.png", previous)
	assert.Equal(t, "/uploads/markets/b2.png", session.Draft.Market.BannerURL)

	_, removed, err := f.svc.ClearAsset(ctx, f.user, onboarding.RoleMarket, onboarding.SlotBanner)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/markets/b2.png", removed)

	_, _, err = f.svc.ClearAsset(ctx, f.user, onboarding.RoleMarket, onboarding.SlotBanner)
	assert.ErrorIs(t, err, models.ErrNoAssetToRemove)

	_, _, err = f.svc.SetAsset(ctx, f.user, onboarding.RoleMarket, onboarding.SlotDocument, "/x")
	assert.ErrorIs(t, err, models.ErrInvalidAssetSlot)
}

func TestOnboardingSession_CompleteWorker(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.completeWorkerFlow(t)

	result, err := f.svc.Complete(ctx, f.user, onboarding.RoleWorker)
	require.NoError(t, err)
	require.NotNil(t, result.Worker)
	assert.Equal(t, "52998224725", result.Worker.CPF)
	assert.Equal(t, "04010200", result.Worker.ZipCode)
	assert.Equal(t, []models.Skill{models.SkillRepositor, models.SkillCaixa}, result.Worker.Skills)
	assert.Equal(t, models.PeriodNoite, result.Worker.PeriodPreference)
	assert.Equal(t, "/uploads/workers/documents/d.pdf", result.Worker.DocumentURL)
	assert.False(t, f.kv.has(f.key(onboarding.RoleWorker)), "session is deleted")
	assert.Equal(t, models.UserTypeWorker, f.users.byID(f.user.ID).Type)
}

func TestOnboardingSession_CompleteIncomplete(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	_, err := f.svc.SubmitStep(ctx, f.user, onboarding.RoleWorker, 1, workerStep1())
	require.NoError(t, err)

	_, err = f.svc.Complete(ctx, f.user, onboarding.RoleWorker)
	assert.ErrorIs(t, err, models.ErrOnboardingIncomplete)
}

func TestOnboardingSession_CompleteAfterClearedDocument(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.completeWorkerFlow(t)

	_, removed, err := f.svc.ClearAsset(ctx, f.user, onboarding.RoleWorker, onboarding.SlotDocument)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/workers/documents/d.pdf", removed)

	_, err = f.svc.Complete(ctx, f.user, onboarding.RoleWorker)
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Empty(t, f.workers.workers)
	assert.True(t, f.kv.has(f.key(onboarding.RoleWorker)))
}

func TestOnboardingSession_CompleteFailureKeepsSession(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	f.completeWorkerFlow(t)

	taken := &models.Worker{UserID: primitive.NewObjectID(), CPF: "52998224725"}
	require.NoError(t, f.workers.Insert(ctx, taken))

	_, err := f.svc.Complete(ctx, f.user, onboarding.RoleWorker)
	assert.ErrorIs(t, err, models.ErrCPFAlreadyRegistered)
	assert.True(t, f.kv.has(f.key(onboarding.RoleWorker)), "retry stays possible")
}

func TestOnboardingSession_CompleteMarket(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	role := onboarding.RoleMarket

	_, err := f.svc.SubmitStep(ctx, f.user, role, 1, &onboarding.MarketPatch{
		CNPJ:      stringPtr("11.222.333/0001-81"),
		LegalName: stringPtr("Bom Preco Comercio LTDA"),
		TradeName: stringPtr("Bom Preco"),
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitStep(ctx, f.user, role, 2, &onboarding.MarketPatch{
		Address: stringPtr("Avenida Paulista, 1500"),
		City:    stringPtr("Sao Paulo"),
		State:   stringPtr("SP"),
		ZipCode: stringPtr("01310200"),
	})
	require.NoError(t, err)
	_, err = f.svc.SubmitStep(ctx, f.user, role, 3, nil)
	require.NoError(t, err)
	session, err := f.svc.SubmitStep(ctx, f.user, role, 4, &onboarding.MarketPatch{ResponsibleName: stringPtr("Ana Souza")})
	require.NoError(t, err)
	assert.Equal(t, 4, session.CurrentStep, "last step stays put")

	result, err := f.svc.Complete(ctx, f.user, role)
	require.NoError(t, err)
	require.NotNil(t, result.Market)
	assert.Equal(t, "11222333000181", result.Market.CNPJ)
	assert.Equal(t, -23.56, result.Market.Lat)
	assert.Equal(t, models.UserTypeMarket, f.users.byID(f.user.ID).Type)
}

func TestOnboardingSession_RedisDown(t *testing.T) {
	f := newSessionFixture()
	f.kv.err = errors.New("connection refused")

	_, err := f.svc.Start(context.Background(), f.user, onboarding.RoleWorker)
	assert.Error(t, err)
	_, err = f.svc.SubmitStep(context.Background(), f.user, onboarding.RoleWorker, 1, workerStep1())
	assert.Error(t, err)
}

func TestOnboardingSession_GetResumes(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()
	role := onboarding.RoleWorker

	session, err := f.svc.Get(ctx, f.user, role, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)
	assert.False(t, f.kv.has(f.key(role)))

	_, err = f.svc.SubmitStep(ctx, f.user, role, 1, workerStep1())
	require.NoError(t, err)
	_, err = f.svc.SubmitStep(ctx, f.user, role, 2, workerStep2())
	require.NoError(t, err)

	session, err = f.svc.Get(ctx, f.user, role, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, session.CurrentStep)
	assert.Equal(t, 2, session.CompletedStep)

	session, err = f.svc.Get(ctx, f.user, role, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, session.CurrentStep)
	assert.True(t, session.Steps[0].Current)

	session, err = f.svc.Get(ctx, f.user, role, 42)
	require.NoError(t, err)
	assert.Equal(t, 3, session.CurrentStep, "capped at the first open step")
}

func TestMaskedPatch(t *testing.T) {
	cpf := "529.982.247-25"
	name := "Carlos"
	masked := maskedPatch(&onboarding.WorkerPatch{CPF: &cpf, FirstName: &name})

	assert.Equal(t, "********", masked["cpf"])
	assert.Equal(t, "Carlos", masked["firstName"])
	assert.NotContains(t, masked, "phone")
	assert.Empty(t, maskedPatch(nil))
}
