package onboarding

import (
	"fmt"

	"github.com/trampoja/app-onboarding/internal/models"
)

// Store holds the draft of one onboarding session.
// It performs no I/O; callers persist Draft() themselves.
type Store struct {
	role  Role
	draft Draft
}

// NewStore creates a store for role holding the role defaults
func NewStore(role Role) (*Store, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("new store: %w", models.ErrInvalidRole)
	}
	return &Store{role: role, draft: defaultDraft(role)}, nil
}

// RestoreStore rebuilds a store from a persisted draft
func RestoreStore(draft Draft) (*Store, error) {
	if err := draft.Check(); err != nil {
		return nil, fmt.Errorf("restore store: %w", err)
	}
	return &Store{role: draft.Role, draft: draft.clone()}, nil
}

// Role returns the flow this store belongs to
func (s *Store) Role() Role {
	return s.role
}

// Initialize returns the role defaults without touching the held draft
func (s *Store) Initialize() Draft {
	return defaultDraft(s.role)
}

// Update merges the non-nil fields of patch into the draft.
// A patch for another role is rejected and leaves the draft untouched.
func (s *Store) Update(patch Patch) (Draft, error) {
	if isNilPatch(patch) {
		return s.Draft(), nil
	}
	if patch.Role() != s.role {
		return s.Draft(), fmt.Errorf("update %s draft with %s patch: %w", s.role, patch.Role(), models.ErrInvalidRole)
	}
	patch.normalize()
	patch.applyTo(&s.draft)
	return s.Draft(), nil
}

// SetAsset stores an uploaded file URL in slot
func (s *Store) SetAsset(slot Slot, url string) (Draft, error) {
	field := s.draft.assetField(slot)
	if field == nil {
		return s.Draft(), fmt.Errorf("%s slot %q: %w", s.role, slot, models.ErrInvalidAssetSlot)
	}
	*field = url
	return s.Draft(), nil
}

// ClearAsset empties slot; this is the only way a set field is removed
func (s *Store) ClearAsset(slot Slot) (Draft, error) {
	return s.SetAsset(slot, "")
}

// Reset discards all input and returns the defaults
func (s *Store) Reset() Draft {
	s.draft = defaultDraft(s.role)
	return s.Draft()
}

// Draft returns a copy of the current state
func (s *Store) Draft() Draft {
	return s.draft.clone()
}
