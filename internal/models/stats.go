package models

import (
	"time"
)

// ClickStat is the per-link counter row. Totals are only ever written through
// atomic increment expressions; Platform and URL are denormalized so the
// stats page renders without joining links.
type ClickStat struct {
	LinkID        string     `gorm:"primaryKey;size:36" json:"link_id"`
	ProfileID     string     `gorm:"not null;index;size:64" json:"profile_id"`
	Platform      Platform   `gorm:"size:20" json:"platform"`
	URL           string     `gorm:"type:text" json:"url"`
	TotalClicks   int64      `gorm:"not null;default:0" json:"total_clicks"`
	LastClickedAt *time.Time `json:"last_clicked_at,omitempty"`
}

// Visitor is a display-only snapshot of the most recent visit. It is never
// read back for counting.
type Visitor struct {
	At      time.Time `json:"at"`
	Handle  string    `json:"handle,omitempty"`
	Device  string    `json:"device,omitempty"`
	Country string    `json:"country,omitempty"`
	IP      string    `json:"ip,omitempty"` // masked before storage
}

// ViewStat is the per-profile counter row.
type ViewStat struct {
	ProfileID   string   `gorm:"primaryKey;size:64" json:"profile_id"`
	TotalViews  int64    `gorm:"not null;default:0" json:"total_views"`
	LastVisitor *Visitor `gorm:"type:text;serializer:json" json:"last_visitor,omitempty"`
}

// Bucket scopes and periods for StatBucket rows.
const (
	BucketScopeView  = "view"
	BucketScopeClick = "click"
	BucketPeriodDay  = "day"   // key YYYY-MM-DD
	BucketPeriodMon  = "month" // key YYYY-MM
)

// StatBucket holds one day or month counter for a profile (views) or a link
// (clicks). Rows are upserted with an atomic count increment so concurrent
// visitors never lose updates.
type StatBucket struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Scope  string `gorm:"size:8;not null;uniqueIndex:idx_bucket" json:"scope"`
	RefID  string `gorm:"size:64;not null;uniqueIndex:idx_bucket" json:"ref_id"`
	Period string `gorm:"size:8;not null;uniqueIndex:idx_bucket" json:"period"`
	Key    string `gorm:"size:10;not null;uniqueIndex:idx_bucket" json:"key"`
	Count  int64  `gorm:"not null;default:0" json:"count"`
}

func (StatBucket) TableName() string {
	return "stat_buckets"
}

// DayKey and MonthKey format bucket keys in UTC.
func DayKey(t time.Time) string   { return t.UTC().Format("2006-01-02") }
func MonthKey(t time.Time) string { return t.UTC().Format("2006-01") }
