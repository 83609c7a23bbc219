package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/FTanBorn/tan-link-sub000/internal/models"

	"github.com/mssola/user_agent"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type eventKind int

const (
	eventView eventKind = iota
	eventClick
)

// StatEvent is one page view or link click. Events are queued to a worker so
// recording can never block or fail the page delivery path.
type StatEvent struct {
	Kind          eventKind
	ProfileID     string
	LinkID        string
	Platform      models.Platform
	URL           string
	IPAddress     string
	UserAgent     string
	VisitorHandle string
	At            time.Time
}

// StatsService aggregates view and click events into total counters and
// day/month buckets. All counter writes are atomic increments executed
// server-side; nothing here ever reads a count to write it back.
type StatsService struct {
	db           *gorm.DB
	logger       *slog.Logger
	eventChannel chan StatEvent
	geoIPService *GeoIPService
}

func NewStatsService(db *gorm.DB, logger *slog.Logger, geoIPService *GeoIPService) *StatsService {
	return &StatsService{
		db:           db,
		logger:       logger,
		eventChannel: make(chan StatEvent, 1000),
		geoIPService: geoIPService,
	}
}

func (s *StatsService) Start(ctx context.Context) {
	s.logger.Info("Stats worker starting")
	for {
		select {
		case ev := <-s.eventChannel:
			if err := s.apply(ev); err != nil {
				s.logger.Error("Failed to record stat event", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Stats worker stopping")
			return
		}
	}
}

// RecordViewAsync queues a page view. Drops the event when the channel is
// full rather than blocking the visitor request.
func (s *StatsService) RecordViewAsync(ev StatEvent) {
	ev.Kind = eventView
	s.enqueue(ev)
}

// RecordClickAsync queues a link click.
func (s *StatsService) RecordClickAsync(ev StatEvent) {
	ev.Kind = eventClick
	s.enqueue(ev)
}

func (s *StatsService) enqueue(ev StatEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case s.eventChannel <- ev:
	default:
		s.logger.Warn("Stats channel full, dropping event", "profile", ev.ProfileID)
	}
}

func (s *StatsService) apply(ev StatEvent) error {
	switch ev.Kind {
	case eventView:
		return s.applyView(ev)
	case eventClick:
		return s.applyClick(ev)
	}
	return nil
}

func (s *StatsService) applyView(ev StatEvent) error {
	visitor := s.describeVisitor(ev)

	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "profile_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_views": gorm.Expr("total_views + ?", 1),
			}),
		}).Create(&models.ViewStat{
			ProfileID:   ev.ProfileID,
			TotalViews:  1,
			LastVisitor: visitor,
		}).Error
		if err != nil {
			return err
		}
		// OnConflict assignments cannot carry the serialized visitor struct,
		// so the overwrite happens as its own plain update. It is display
		// data only; counting never reads it.
		if err := tx.Model(&models.ViewStat{}).Where("profile_id = ?", ev.ProfileID).
			Update("last_visitor", visitor).Error; err != nil {
			return err
		}

		return s.bumpBuckets(tx, models.BucketScopeView, ev.ProfileID, ev.At)
	})
}

func (s *StatsService) applyClick(ev StatEvent) error {
	now := ev.At

	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "link_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_clicks":    gorm.Expr("total_clicks + ?", 1),
				"last_clicked_at": now,
				"platform":        string(ev.Platform),
				"url":             ev.URL,
			}),
		}).Create(&models.ClickStat{
			LinkID:        ev.LinkID,
			ProfileID:     ev.ProfileID,
			Platform:      ev.Platform,
			URL:           ev.URL,
			TotalClicks:   1,
			LastClickedAt: &now,
		}).Error
		if err != nil {
			return err
		}

		return s.bumpBuckets(tx, models.BucketScopeClick, ev.LinkID, ev.At)
	})
}

// bumpBuckets upserts the day and month rows with a count increment.
func (s *StatsService) bumpBuckets(tx *gorm.DB, scope, refID string, at time.Time) error {
	buckets := []models.StatBucket{
		{Scope: scope, RefID: refID, Period: models.BucketPeriodDay, Key: models.DayKey(at), Count: 1},
		{Scope: scope, RefID: refID, Period: models.BucketPeriodMon, Key: models.MonthKey(at), Count: 1},
	}
	for i := range buckets {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "scope"}, {Name: "ref_id"}, {Name: "period"}, {Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"count": gorm.Expr("count + ?", 1),
			}),
		}).Create(&buckets[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *StatsService) describeVisitor(ev StatEvent) *models.Visitor {
	ua := user_agent.New(ev.UserAgent)
	device := "Desktop"
	if ua.Mobile() {
		device = "Mobile"
	} else if ua.Bot() {
		device = "Bot"
	}

	country := ""
	if s.geoIPService != nil {
		country = s.geoIPService.Country(ev.IPAddress)
	}

	return &models.Visitor{
		At:      ev.At,
		Handle:  ev.VisitorHandle,
		Device:  device,
		Country: country,
		IP:      maskIP(ev.IPAddress),
	}
}

// maskIP zeroes the last IPv4 octet; IPv6 addresses are dropped entirely.
func maskIP(ip string) string {
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == '.' {
			return ip[:i] + ".0"
		}
		if ip[i] == ':' {
			return "IPv6 (Masked)"
		}
	}
	return ip
}

// Stats is the owner-facing aggregate for one profile.
type Stats struct {
	TotalViews  int64       `json:"total_views"`
	TotalClicks int64       `json:"total_clicks"`
	ActiveLinks int         `json:"active_links"`
	CTR         float64     `json:"ctr"`
	Links       []LinkStats `json:"links"`
}

type LinkStats struct {
	LinkID   string          `json:"link_id"`
	Platform models.Platform `json:"platform"`
	Title    string          `json:"title"`
	URL      string          `json:"url"`
	Clicks   int64           `json:"clicks"`
	Progress float64         `json:"progress"`
}

// ComputeStats reads the persisted counters and derives totals, CTR and the
// per-link progress ranking. CTR is 0 when there are no views; progress is
// each link's clicks relative to the profile's most clicked link, 0-100.
func (s *StatsService) ComputeStats(profileID string, links []models.Link) (*Stats, error) {
	var view models.ViewStat
	if err := s.db.Where("profile_id = ?", profileID).First(&view).Error; err != nil &&
		!errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &TransientError{Op: "load view stats", Err: err}
	}

	var clickStats []models.ClickStat
	if err := s.db.Where("profile_id = ?", profileID).Find(&clickStats).Error; err != nil {
		return nil, &TransientError{Op: "load click stats", Err: err}
	}
	clicksByLink := make(map[string]int64, len(clickStats))
	for _, cs := range clickStats {
		clicksByLink[cs.LinkID] = cs.TotalClicks
	}

	stats := &Stats{
		TotalViews:  view.TotalViews,
		ActiveLinks: len(links),
		Links:       make([]LinkStats, 0, len(links)),
	}

	var maxClicks int64
	for _, l := range links {
		c := clicksByLink[l.ID]
		stats.TotalClicks += c
		if c > maxClicks {
			maxClicks = c
		}
	}
	if stats.TotalViews > 0 {
		stats.CTR = float64(stats.TotalClicks) / float64(stats.TotalViews)
	}

	for _, l := range links {
		c := clicksByLink[l.ID]
		ls := LinkStats{
			LinkID:   l.ID,
			Platform: l.Platform,
			Title:    l.DisplayTitle(),
			URL:      l.URL,
			Clicks:   c,
		}
		if maxClicks > 0 {
			ls.Progress = float64(c) / float64(maxClicks) * 100
		}
		stats.Links = append(stats.Links, ls)
	}

	// Rank by clicks descending; ties keep the original link order, which is
	// how links arrives (position ascending).
	sort.SliceStable(stats.Links, func(i, j int) bool {
		return stats.Links[i].Clicks > stats.Links[j].Clicks
	})

	return stats, nil
}

// Buckets returns the stored day or month series for a profile's views or a
// link's clicks, newest first.
func (s *StatsService) Buckets(scope, refID, period string) ([]models.StatBucket, error) {
	var buckets []models.StatBucket
	if err := s.db.Where("scope = ? AND ref_id = ? AND period = ?", scope, refID, period).
		Order("key desc").Find(&buckets).Error; err != nil {
		return nil, &TransientError{Op: "load stat buckets", Err: err}
	}
	return buckets, nil
}
