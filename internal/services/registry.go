package services

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/FTanBorn/tan-link-sub000/internal/models"

	"gorm.io/gorm"
)

var handlePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// RegistryService enforces the global 1:1 mapping handle -> identity.
// Handles are stored lowercase; lookups are case-insensitive by construction.
type RegistryService struct {
	db     *gorm.DB
	logger *slog.Logger
	audit  *AuditService
}

func NewRegistryService(db *gorm.DB, logger *slog.Logger, audit *AuditService) *RegistryService {
	return &RegistryService{db: db, logger: logger, audit: audit}
}

// ValidateFormat rejects handles outside ^[a-zA-Z0-9_]{3,20}$.
func (s *RegistryService) ValidateFormat(handle string) error {
	if !handlePattern.MatchString(handle) {
		return &ValidationError{Field: "handle", Reason: "must be 3-20 characters, letters, digits and underscore only"}
	}
	return nil
}

// IsAvailable reports whether identity could claim handle. The caller's own
// current handle counts as available so a no-op change succeeds.
func (s *RegistryService) IsAvailable(identity, handle string) (bool, error) {
	var res models.HandleReservation
	err := s.db.Where("handle = ?", strings.ToLower(handle)).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, &TransientError{Op: "lookup handle", Err: err}
	}
	return res.Identity == identity, nil
}

// Claim reserves handle for identity: validate, check availability, release
// the identity's old handle, reserve the new one, and update the profile, all
// in one transaction so a failure never leaves the new handle reserved with
// the old one still held. Re-running a claim that already went through is a
// no-op because the availability check finds the handle held by the same
// identity.
func (s *RegistryService) Claim(identity, handle string) error {
	if err := s.ValidateFormat(handle); err != nil {
		return err
	}
	lower := strings.ToLower(handle)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.HandleReservation
		err := tx.Where("handle = ?", lower).First(&existing).Error
		switch {
		case err == nil && existing.Identity != identity:
			return &ConflictError{Handle: lower}
		case err == nil:
			// Already ours; make sure the profile field agrees and finish.
			return s.setProfileHandle(tx, identity, lower)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return &TransientError{Op: "lookup handle", Err: err}
		}

		if err := tx.Where("identity = ?", identity).Delete(&models.HandleReservation{}).Error; err != nil {
			return &TransientError{Op: "release handle", Err: err}
		}
		if err := tx.Create(&models.HandleReservation{Handle: lower, Identity: identity}).Error; err != nil {
			return &TransientError{Op: "reserve handle", Err: err}
		}
		return s.setProfileHandle(tx, identity, lower)
	})
	if err != nil {
		return err
	}

	s.audit.LogAction(identity, "CLAIM_HANDLE", lower, nil, "")
	return nil
}

// Resolve maps a handle to the identity holding it, case-insensitively.
func (s *RegistryService) Resolve(handle string) (string, error) {
	lower := strings.ToLower(handle)
	var res models.HandleReservation
	if err := s.db.Where("handle = ?", lower).First(&res).Error; err != nil {
		return "", storeErr("lookup handle", "handle", lower, err)
	}
	return res.Identity, nil
}

func (s *RegistryService) setProfileHandle(tx *gorm.DB, identity, lower string) error {
	result := tx.Model(&models.Profile{}).Where("identity = ?", identity).Update("handle", lower)
	if result.Error != nil {
		return &TransientError{Op: "update profile handle", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return &NotFoundError{Kind: "profile", ID: identity}
	}
	return nil
}
