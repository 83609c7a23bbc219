package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/FTanBorn/tan-link-sub000/internal/models"
	"github.com/FTanBorn/tan-link-sub000/pkg/utils"

	"gorm.io/gorm"
)

const (
	MoveUp   = "up"
	MoveDown = "down"
)

// LinkService owns the ordered link set of a profile. The contract it
// guarantees: after any successful mutation, the positions of a profile's
// links are exactly {0..N-1} with their relative sequence preserved.
type LinkService struct {
	db             *gorm.DB
	logger         *slog.Logger
	audit          *AuditService
	whatsappPrefix string
	idGenerator    func() string
}

func NewLinkService(db *gorm.DB, logger *slog.Logger, audit *AuditService, whatsappPrefix string) *LinkService {
	return &LinkService{
		db:             db,
		logger:         logger,
		audit:          audit,
		whatsappPrefix: whatsappPrefix,
		idGenerator:    utils.NewLinkID,
	}
}

type LinkInput struct {
	Platform models.Platform
	Title    string
	RawURL   string
}

// LinkUpdate carries only the fields the caller wants changed. Position is
// deliberately absent: edits never touch ordering.
type LinkUpdate struct {
	Platform *models.Platform
	Title    *string
	RawURL   *string
}

// Add appends a new link at the end of the profile's list. Existing links are
// never renumbered by an add.
func (s *LinkService) Add(profileID string, in LinkInput) (*models.Link, error) {
	if !in.Platform.Valid() {
		return nil, &ValidationError{Field: "platform", Reason: "unknown platform " + string(in.Platform)}
	}
	normalized, err := NormalizeURL(in.Platform, in.RawURL, s.whatsappPrefix)
	if err != nil {
		return nil, err
	}

	link := models.Link{
		ID:        s.idGenerator(),
		ProfileID: profileID,
		Platform:  in.Platform,
		Title:     in.Title,
		URL:       normalized,
		CreatedAt: time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Link{}).Where("profile_id = ?", profileID).Count(&count).Error; err != nil {
			return &TransientError{Op: "count links", Err: err}
		}
		link.Position = int(count)
		if err := tx.Create(&link).Error; err != nil {
			return &TransientError{Op: "create link", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogAction(profileID, "ADD_LINK", link.ID, map[string]interface{}{
		"platform": link.Platform,
		"url":      link.URL,
	}, "")

	return &link, nil
}

// Update edits fields of an existing link; position is never touched.
func (s *LinkService) Update(linkID string, in LinkUpdate) (*models.Link, error) {
	var link models.Link
	if err := s.db.Where("id = ?", linkID).First(&link).Error; err != nil {
		return nil, storeErr("load link", "link", linkID, err)
	}

	if in.Platform != nil {
		if !in.Platform.Valid() {
			return nil, &ValidationError{Field: "platform", Reason: "unknown platform " + string(*in.Platform)}
		}
		link.Platform = *in.Platform
	}
	if in.Title != nil {
		link.Title = *in.Title
	}
	// Normalization applies only when the caller supplies a new URL. The
	// stored URL is already normalized; running it through another platform's
	// rules would mangle it.
	if in.RawURL != nil {
		normalized, err := NormalizeURL(link.Platform, *in.RawURL, s.whatsappPrefix)
		if err != nil {
			return nil, err
		}
		link.URL = normalized
	}

	if err := s.db.Save(&link).Error; err != nil {
		return nil, &TransientError{Op: "save link", Err: err}
	}
	return &link, nil
}

// Delete removes the link and renumbers the survivors so positions stay
// contiguous. Both steps run in one transaction; a failure rolls back the
// delete rather than leaving a gap.
func (s *LinkService) Delete(profileID, linkID string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var link models.Link
		if err := tx.Where("id = ? AND profile_id = ?", linkID, profileID).First(&link).Error; err != nil {
			return storeErr("load link", "link", linkID, err)
		}
		if err := tx.Delete(&models.Link{}, "id = ?", link.ID).Error; err != nil {
			return &TransientError{Op: "delete link", Err: err}
		}

		var rest []models.Link
		if err := tx.Where("profile_id = ?", profileID).
			Order("position asc").Order("created_at asc").Find(&rest).Error; err != nil {
			return &TransientError{Op: "load links", Err: err}
		}
		for i := range rest {
			if rest[i].Position == i {
				continue
			}
			if err := tx.Model(&models.Link{}).Where("id = ?", rest[i].ID).
				Update("position", i).Error; err != nil {
				return &TransientError{Op: "renumber links", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.LogAction(profileID, "DELETE_LINK", linkID, nil, "")
	return nil
}

// Reorder applies the caller's desired final sequence: position = index of
// the id in orderedIDs. The id set must match the profile's links exactly,
// and all position writes commit together or not at all.
func (s *LinkService) Reorder(profileID string, orderedIDs []string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current []models.Link
		if err := tx.Where("profile_id = ?", profileID).Find(&current).Error; err != nil {
			return &TransientError{Op: "load links", Err: err}
		}

		if len(orderedIDs) != len(current) {
			return &ValidationError{Field: "order", Reason: "id set does not match current links"}
		}
		existing := make(map[string]bool, len(current))
		for _, l := range current {
			existing[l.ID] = true
		}
		seen := make(map[string]bool, len(orderedIDs))
		for _, id := range orderedIDs {
			if !existing[id] || seen[id] {
				return &ValidationError{Field: "order", Reason: "id set does not match current links"}
			}
			seen[id] = true
		}

		for i, id := range orderedIDs {
			if err := tx.Model(&models.Link{}).Where("id = ?", id).
				Update("position", i).Error; err != nil {
				return &TransientError{Op: "reorder links", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.LogAction(profileID, "REORDER_LINKS", profileID, map[string]interface{}{
		"order": orderedIDs,
	}, "")
	return nil
}

// MoveAdjacent swaps the link with its immediate neighbor. At either boundary
// it is a no-op, not an error.
func (s *LinkService) MoveAdjacent(profileID, linkID, direction string) error {
	if direction != MoveUp && direction != MoveDown {
		return &ValidationError{Field: "direction", Reason: "must be up or down"}
	}

	links, err := s.List(profileID)
	if err != nil {
		return err
	}

	idx := -1
	for i, l := range links {
		if l.ID == linkID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return &NotFoundError{Kind: "link", ID: linkID}
	}

	target := idx - 1
	if direction == MoveDown {
		target = idx + 1
	}
	if target < 0 || target >= len(links) {
		return nil
	}

	ids := make([]string, len(links))
	for i, l := range links {
		ids[i] = l.ID
	}
	ids[idx], ids[target] = ids[target], ids[idx]

	return s.Reorder(profileID, ids)
}

// List returns the profile's links in position order. If the stored positions
// violate contiguity the set is repaired in place before returning.
func (s *LinkService) List(profileID string) ([]models.Link, error) {
	var links []models.Link
	if err := s.db.Where("profile_id = ?", profileID).
		Order("position asc").Order("created_at asc").Find(&links).Error; err != nil {
		return nil, &TransientError{Op: "load links", Err: err}
	}

	if err := s.checkOrder(profileID, links); err != nil {
		var ie *IntegrityError
		if errors.As(err, &ie) {
			s.logger.Error("Repairing link order", "profile", profileID, "detail", ie.Detail)
			if err := s.repairOrder(profileID, links); err != nil {
				return nil, err
			}
			for i := range links {
				links[i].Position = i
			}
			return links, nil
		}
		return nil, err
	}
	return links, nil
}

// Count reports how many links a profile has; used by the onboarding facts.
func (s *LinkService) Count(profileID string) (int, error) {
	var count int64
	if err := s.db.Model(&models.Link{}).Where("profile_id = ?", profileID).Count(&count).Error; err != nil {
		return 0, &TransientError{Op: "count links", Err: err}
	}
	return int(count), nil
}

func (s *LinkService) checkOrder(profileID string, links []models.Link) error {
	for i, l := range links {
		if l.Position != i {
			return &IntegrityError{
				ProfileID: profileID,
				Detail:    fmt.Sprintf("expected position %d, found %d", i, l.Position),
			}
		}
	}
	return nil
}

// repairOrder rewrites positions 0..N-1 following the current sequence.
func (s *LinkService) repairOrder(profileID string, links []models.Link) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for i := range links {
			if err := tx.Model(&models.Link{}).Where("id = ?", links[i].ID).
				Update("position", i).Error; err != nil {
				return &TransientError{Op: "repair link order", Err: err}
			}
		}
		return nil
	})
}
