package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trampoja/app-onboarding/internal/config"
	"github.com/trampoja/app-onboarding/internal/logging"
	"github.com/trampoja/app-onboarding/internal/models"
	"github.com/trampoja/app-onboarding/internal/observability"
	"github.com/trampoja/app-onboarding/internal/onboarding"
	"github.com/trampoja/app-onboarding/internal/utils"
	"go.uber.org/zap"
)

// WorkerCreator persists a finished worker onboarding
type WorkerCreator interface {
	Create(ctx context.Context, user *models.User, req models.CreateWorkerRequest) (*models.Worker, error)
}

// MarketCreator persists a finished market onboarding
type MarketCreator interface {
	Create(ctx context.Context, user *models.User, req models.CreateMarketRequest) (*models.Market, error)
}

// Locator fills missing coordinates of an address
type Locator interface {
	Locate(ctx context.Context, loc models.Location) models.Location
}

// sessionRecord is what is kept in Redis for one session
type sessionRecord struct {
	Draft         onboarding.Draft `json:"draft"`
	CompletedStep int              `json:"completed_step"`
}

// OnboardingSession is the state returned to the client
type OnboardingSession struct {
	Role          onboarding.Role        `json:"role"`
	Draft         onboarding.Draft       `json:"draft"`
	CompletedStep int                    `json:"completedStep"`
	CurrentStep   int                    `json:"currentStep"`
	Steps         []onboarding.StepState `json:"steps"`
}

// OnboardingResult is the profile created by Complete
type OnboardingResult struct {
	Role   onboarding.Role `json:"role"`
	Worker *models.Worker  `json:"worker,omitempty"`
	Market *models.Market  `json:"market,omitempty"`
}

// OnboardingSessionService keeps onboarding drafts in Redis and drives the
// step sequencer over them
type OnboardingSessionService struct {
	store   KeyValueStore
	ttl     time.Duration
	workers WorkerCreator
	markets MarketCreator
	locator Locator
	logger  *logging.SafeLogger
}

// NewOnboardingSessionService creates a new onboarding session service
func NewOnboardingSessionService(store KeyValueStore, ttl time.Duration, workers WorkerCreator, markets MarketCreator, locator Locator, logger *logging.SafeLogger) *OnboardingSessionService {
	return &OnboardingSessionService{
		store:   store,
		ttl:     ttl,
		workers: workers,
		markets: markets,
		locator: locator,
		logger:  logger,
	}
}

// Global onboarding session service instance
var OnboardingSessionServiceInstance *OnboardingSessionService

// InitOnboardingSessionService initializes the global onboarding session
// service. Worker, market and geocoding services must be initialized first.
func InitOnboardingSessionService() {
	OnboardingSessionServiceInstance = NewOnboardingSessionService(
		config.Redis,
		config.AppConfig.OnboardingSessionTTL,
		WorkerServiceInstance,
		MarketServiceInstance,
		GeocodingServiceInstance,
		logging.Logger.Named("onboarding_session"),
	)
	logging.Logger.Info("onboarding session service initialized successfully",
		zap.Duration("ttl", config.AppConfig.OnboardingSessionTTL))
}

func sessionKey(role onboarding.Role, user *models.User) string {
	return fmt.Sprintf("onboarding:%s:%s", role, user.ID.Hex())
}

// load returns the stored session, or a fresh one when none exists
func (s *OnboardingSessionService) load(ctx context.Context, user *models.User, role onboarding.Role) (*sessionRecord, error) {
	if !role.Valid() {
		return nil, models.ErrInvalidRole
	}
	key := sessionKey(role, user)
	ctx, span := utils.TraceCacheGet(ctx, key)
	defer span.End()

	raw, err := s.store.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		store, _ := onboarding.NewStore(role)
		return &sessionRecord{Draft: store.Draft()}, nil
	}
	if err != nil {
		utils.RecordErrorInSpan(span, err, nil)
		return nil, fmt.Errorf("failed to load onboarding session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil || rec.Draft.Role != role || rec.Draft.Check() != nil {
		s.logger.Warn("discarding unreadable onboarding session", zap.String("key", key))
		store, _ := onboarding.NewStore(role)
		return &sessionRecord{Draft: store.Draft()}, nil
	}
	return &rec, nil
}

// save writes the session and refreshes its TTL
func (s *OnboardingSessionService) save(ctx context.Context, user *models.User, role onboarding.Role, rec *sessionRecord) error {
	key := sessionKey(role, user)
	ctx, span := utils.TraceCacheSet(ctx, key, s.ttl)
	defer span.End()

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode onboarding session: %w", err)
	}
	if err := s.store.Set(ctx, key, data, s.ttl).Err(); err != nil {
		utils.RecordErrorInSpan(span, err, nil)
		return fmt.Errorf("failed to save onboarding session: %w", err)
	}
	return nil
}

func (s *OnboardingSessionService) view(role onboarding.Role, rec *sessionRecord, current int) *OnboardingSession {
	seq, _ := onboarding.NewSequencer(role)
	if current < 1 {
		current = 1
	}
	if current > seq.Total() {
		current = seq.Total()
	}
	return &OnboardingSession{
		Role:          role,
		Draft:         rec.Draft,
		CompletedStep: rec.CompletedStep,
		CurrentStep:   current,
		Steps:         seq.Steps(current),
	}
}

// reachable caps a client-reported step at the first step not yet completed
func reachable(rec *sessionRecord, current int) int {
	if limit := rec.CompletedStep + 1; current > limit {
		return limit
	}
	return current
}

func recordTransition(role onboarding.Role, action string, step int) {
	observability.OnboardingStepTransitions.WithLabelValues(string(role), action, strconv.Itoa(step)).Inc()
}

// Start returns the user's session for role, creating it with defaults.
// Users that already chose a role cannot onboard again.
func (s *OnboardingSessionService) Start(ctx context.Context, user *models.User, role onboarding.Role) (*OnboardingSession, error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "start_onboarding")
	defer span.End()

	switch user.Type {
	case models.UserTypeWorker:
		return nil, models.ErrWorkerProfileExists
	case models.UserTypeMarket:
		return nil, models.ErrMarketProfileExists
	}

	rec, err := s.load(ctx, user, role)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, user, role, rec); err != nil {
		return nil, err
	}
	current := rec.CompletedStep + 1
	recordTransition(role, "start", current)
	return s.view(role, rec, current), nil
}

// Get returns the session as seen from step current.
// A current below 1 resumes at the first step not yet completed.
func (s *OnboardingSessionService) Get(ctx context.Context, user *models.User, role onboarding.Role, current int) (*OnboardingSession, error) {
	rec, err := s.load(ctx, user, role)
	if err != nil {
		return nil, err
	}
	if current < 1 {
		current = rec.CompletedStep + 1
	}
	return s.view(role, rec, reachable(rec, current)), nil
}

// SubmitStep validates patch against step, merges it and advances.
// A rejected patch leaves the stored session untouched.
func (s *OnboardingSessionService) SubmitStep(ctx context.Context, user *models.User, role onboarding.Role, step int, patch onboarding.Patch) (*OnboardingSession, error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "submit_onboarding_step")
	defer span.End()

	seq, err := onboarding.NewSequencer(role)
	if err != nil {
		return nil, err
	}
	if !seq.InRange(step) {
		return nil, models.ErrStepOutOfRange
	}

	rec, err := s.load(ctx, user, role)
	if err != nil {
		return nil, err
	}
	if step > rec.CompletedStep+1 {
		return nil, models.ErrStepNotReachable
	}
	if patch != nil {
		if err := onboarding.CheckPatchFields(role, step, patch); err != nil {
			return nil, err
		}
	}

	store, err := onboarding.RestoreStore(rec.Draft)
	if err != nil {
		return nil, err
	}
	draft, err := store.Update(patch)
	if err != nil {
		return nil, err
	}

	if err := onboarding.ValidateStep(draft, step); err != nil {
		recordTransition(role, "rejected", step)
		s.logger.Debug("onboarding step rejected",
			zap.String("role", string(role)),
			zap.String("user_id", user.ID.Hex()),
			zap.Int("step", step),
			zap.Any("patch", maskedPatch(patch)),
			zap.Error(err))
		return nil, err
	}

	// geocode only an address that passed validation
	if s.locator != nil && onboarding.StepOwnsField(role, step, "lat") && !patchSetsCoordinates(patch) {
		loc := draft.Location()
		loc.Lat, loc.Lng = 0, 0
		if located := s.locator.Locate(ctx, loc); located.HasCoordinates() {
			draft, _ = store.Update(onboarding.CoordinatesPatch(role, located.Lat, located.Lng))
		}
	}

	next, err := seq.Advance(step, true)
	if err != nil {
		return nil, err
	}
	rec.Draft = draft
	if step > rec.CompletedStep {
		rec.CompletedStep = step
	}
	if err := s.save(ctx, user, role, rec); err != nil {
		return nil, err
	}

	recordTransition(role, "advance", step)
	s.logger.Debug("onboarding step submitted",
		zap.String("role", string(role)),
		zap.String("user_id", user.ID.Hex()),
		zap.Int("step", step),
		zap.Int("next_step", next))
	return s.view(role, rec, next), nil
}

// maskedPatch renders patch for logs with personal data hidden
func maskedPatch(patch onboarding.Patch) map[string]interface{} {
	fields := map[string]interface{}{}
	if patch == nil {
		return fields
	}
	raw, err := json.Marshal(patch)
	if err != nil {
		return fields
	}
	_ = json.Unmarshal(raw, &fields)
	return observability.MaskSensitiveData(fields)
}

func patchSetsCoordinates(patch onboarding.Patch) bool {
	if patch == nil {
		return false
	}
	for _, f := range onboarding.Fields(patch) {
		if f == "lat" || f == "lng" {
			return true
		}
	}
	return false
}

// Back returns the session positioned on the step before current.
// Nothing is discarded.
func (s *OnboardingSessionService) Back(ctx context.Context, user *models.User, role onboarding.Role, current int) (*OnboardingSession, error) {
	seq, err := onboarding.NewSequencer(role)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, user, role)
	if err != nil {
		return nil, err
	}
	prev := seq.Back(reachable(rec, current))
	recordTransition(role, "back", prev)
	return s.view(role, rec, prev), nil
}

// Jump moves from current straight to an earlier step
func (s *OnboardingSessionService) Jump(ctx context.Context, user *models.User, role onboarding.Role, current, target int) (*OnboardingSession, error) {
	seq, err := onboarding.NewSequencer(role)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, user, role)
	if err != nil {
		return nil, err
	}
	if !seq.CanJump(reachable(rec, current), target) {
		return nil, models.ErrJumpNotAllowed
	}
	recordTransition(role, "jump", target)
	return s.view(role, rec, target), nil
}

// Reset clears the draft back to its defaults and restarts at step 1
func (s *OnboardingSessionService) Reset(ctx context.Context, user *models.User, role onboarding.Role) (*OnboardingSession, error) {
	store, err := onboarding.NewStore(role)
	if err != nil {
		return nil, err
	}
	rec := &sessionRecord{Draft: store.Draft()}
	if err := s.save(ctx, user, role, rec); err != nil {
		return nil, err
	}
	recordTransition(role, "reset", 1)
	return s.view(role, rec, 1), nil
}

// Discard deletes the session without a trace
func (s *OnboardingSessionService) Discard(ctx context.Context, user *models.User, role onboarding.Role) error {
	if !role.Valid() {
		return models.ErrInvalidRole
	}
	if err := s.store.Del(ctx, sessionKey(role, user)).Err(); err != nil {
		return fmt.Errorf("failed to discard onboarding session: %w", err)
	}
	recordTransition(role, "discard", 0)
	return nil
}

// SetAsset stores url in slot and returns the URL it replaced
func (s *OnboardingSessionService) SetAsset(ctx context.Context, user *models.User, role onboarding.Role, slot onboarding.Slot, url string) (*OnboardingSession, string, error) {
	return s.updateAsset(ctx, user, role, slot, url)
}

// ClearAsset empties slot and returns the URL that was removed
func (s *OnboardingSessionService) ClearAsset(ctx context.Context, user *models.User, role onboarding.Role, slot onboarding.Slot) (*OnboardingSession, string, error) {
	session, removed, err := s.updateAsset(ctx, user, role, slot, "")
	if err == nil && removed == "" {
		return nil, "", models.ErrNoAssetToRemove
	}
	return session, removed, err
}

func (s *OnboardingSessionService) updateAsset(ctx context.Context, user *models.User, role onboarding.Role, slot onboarding.Slot, url string) (*OnboardingSession, string, error) {
	if !role.HasSlot(slot) {
		return nil, "", models.ErrInvalidAssetSlot
	}
	rec, err := s.load(ctx, user, role)
	if err != nil {
		return nil, "", err
	}
	previous := rec.Draft.AssetURL(slot)
	if url == "" && previous == "" {
		return s.view(role, rec, rec.CompletedStep+1), "", nil
	}

	store, err := onboarding.RestoreStore(rec.Draft)
	if err != nil {
		return nil, "", err
	}
	if rec.Draft, err = store.SetAsset(slot, url); err != nil {
		return nil, "", err
	}
	if err := s.save(ctx, user, role, rec); err != nil {
		return nil, "", err
	}
	return s.view(role, rec, rec.CompletedStep+1), previous, nil
}

// Complete submits the finished draft and deletes the session. On failure
// the session is kept so the user can retry.
func (s *OnboardingSessionService) Complete(ctx context.Context, user *models.User, role onboarding.Role) (*OnboardingResult, error) {
	ctx, span := utils.TraceBusinessLogic(ctx, "complete_onboarding")
	defer span.End()

	seq, err := onboarding.NewSequencer(role)
	if err != nil {
		return nil, err
	}
	rec, err := s.load(ctx, user, role)
	if err != nil {
		return nil, err
	}
	if rec.CompletedStep < seq.Total() {
		return nil, models.ErrOnboardingIncomplete
	}
	if err := onboarding.ValidateComplete(rec.Draft); err != nil {
		return nil, err
	}

	result := &OnboardingResult{Role: role}
	switch role {
	case onboarding.RoleWorker:
		result.Worker, err = s.workers.Create(ctx, user, rec.Draft.Worker.CreateRequest())
	case onboarding.RoleMarket:
		result.Market, err = s.markets.Create(ctx, user, rec.Draft.Market.CreateRequest())
	}
	if err != nil {
		recordTransition(role, "complete_failed", seq.Total())
		return nil, err
	}

	if err := s.store.Del(ctx, sessionKey(role, user)).Err(); err != nil {
		s.logger.Warn("failed to delete completed onboarding session",
			zap.String("user_id", user.ID.Hex()),
			zap.Error(err))
	}
	recordTransition(role, "complete", seq.Total())
	s.logger.Info("onboarding completed",
		zap.String("role", string(role)),
		zap.String("user_id", user.ID.Hex()))
	return result, nil
}
