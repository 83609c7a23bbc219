package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/FTanBorn/tan-link-sub000/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Snapshot is the full renderable public view of one profile: attributes,
// theme and links in display order.
type Snapshot struct {
	Profile ProfileView `json:"profile"`
	Links   []LinkView  `json:"links"`
}

type ProfileView struct {
	Identity    string              `json:"identity"`
	Handle      string              `json:"handle"`
	DisplayName string              `json:"display_name"`
	Bio         string              `json:"bio"`
	PhotoRef    string              `json:"photo_ref,omitempty"`
	Theme       *models.ThemePreset `json:"theme,omitempty"`
}

type LinkView struct {
	ID       string          `json:"id"`
	Platform models.Platform `json:"platform"`
	Title    string          `json:"title"`
	URL      string          `json:"url"`
	Order    int             `json:"order"`
}

// ResolverService assembles a consistent snapshot for a handle: reservation
// lookup, profile load, ordered links. Transport failures are retried a fixed
// number of times with a fixed delay; logical absence is surfaced immediately
// as not found, never a partial result.
type ResolverService struct {
	db            *gorm.DB
	rdb           *redis.Client
	logger        *slog.Logger
	links         *LinkService
	retryAttempts int
	retryDelay    time.Duration
	cacheTTL      time.Duration
}

func NewResolverService(db *gorm.DB, rdb *redis.Client, logger *slog.Logger, links *LinkService,
	retryAttempts int, retryDelay, cacheTTL time.Duration) *ResolverService {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &ResolverService{
		db:            db,
		rdb:           rdb,
		logger:        logger,
		links:         links,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
		cacheTTL:      cacheTTL,
	}
}

func snapshotKey(handle string) string {
	return "snapshot:" + handle
}

// Resolve returns the snapshot for handle, case-insensitively.
func (s *ResolverService) Resolve(ctx context.Context, handle string) (*Snapshot, error) {
	lower := strings.ToLower(handle)

	if s.rdb != nil {
		if val, err := s.rdb.Get(ctx, snapshotKey(lower)).Result(); err == nil {
			var snap Snapshot
			if err := json.Unmarshal([]byte(val), &snap); err == nil {
				return &snap, nil
			}
		}
	}

	var res models.HandleReservation
	err := s.withRetry(ctx, "lookup handle", func() error {
		return s.db.Where("handle = ?", lower).First(&res).Error
	})
	if err != nil {
		return nil, wrapResolveErr("handle", lower, err)
	}

	var profile models.Profile
	err = s.withRetry(ctx, "load profile", func() error {
		return s.db.Where("identity = ?", res.Identity).First(&profile).Error
	})
	if err != nil {
		return nil, wrapResolveErr("profile", res.Identity, err)
	}

	var links []models.Link
	err = s.withRetry(ctx, "load links", func() error {
		var e error
		links, e = s.links.List(res.Identity)
		return e
	})
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Profile: ProfileView{
			Identity:    profile.Identity,
			Handle:      lower,
			DisplayName: profile.DisplayName,
			Bio:         profile.Bio,
			Theme:       profile.Theme,
		},
		Links: make([]LinkView, 0, len(links)),
	}
	if profile.PhotoRef != nil {
		snap.Profile.PhotoRef = *profile.PhotoRef
	}
	for _, l := range links {
		snap.Links = append(snap.Links, LinkView{
			ID:       l.ID,
			Platform: l.Platform,
			Title:    l.DisplayTitle(),
			URL:      l.URL,
			Order:    l.Position,
		})
	}

	if s.rdb != nil {
		if data, err := json.Marshal(snap); err == nil {
			s.rdb.Set(ctx, snapshotKey(lower), data, s.cacheTTL)
		}
	}

	return snap, nil
}

// Invalidate drops the cached snapshot after any mutation of the owning
// profile. The cache is never trusted across mutations.
func (s *ResolverService) Invalidate(ctx context.Context, handle string) {
	if s.rdb == nil || handle == "" {
		return
	}
	if err := s.rdb.Del(ctx, snapshotKey(strings.ToLower(handle))).Err(); err != nil {
		s.logger.Warn("Failed to invalidate snapshot cache", "handle", handle, "error", err)
	}
}

// withRetry runs fn up to the configured attempt count with a fixed delay.
// Record-not-found is a logical outcome and returns immediately; only
// transport errors are retried.
func (s *ResolverService) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= s.retryAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) || IsNotFound(err) {
			return err
		}
		lastErr = err
		s.logger.Warn("Transient read failure", "op", op, "attempt", attempt, "error", err)

		if attempt < s.retryAttempts {
			select {
			case <-time.After(s.retryDelay):
			case <-ctx.Done():
				return &TransientError{Op: op, Err: ctx.Err()}
			}
		}
	}
	return &TransientError{Op: op, Err: lastErr}
}

func wrapResolveErr(kind, id string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &NotFoundError{Kind: kind, ID: id}
	}
	return err
}
