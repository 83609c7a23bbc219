package handlers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/FTanBorn/tan-link-sub000/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestStatsHandlers(t *testing.T) {
	h, db := setupTestHandler(t)
	r := setupTestRouter(h)
	cookie := registerTestUser(t, r, "stats@example.com")

	var profile models.Profile
	db.Where("email = ?", "stats@example.com").First(&profile)

	// Two links with recorded clicks, one without.
	var popular, quiet linkResp
	w := doJSON(r, "POST", "/api/v1/links", cookie, map[string]string{"platform": "github", "url": "statsuser"})
	json.Unmarshal(w.Body.Bytes(), &popular)
	w = doJSON(r, "POST", "/api/v1/links", cookie, map[string]string{"platform": "website", "url": "example.com"})
	json.Unmarshal(w.Body.Bytes(), &quiet)

	now := time.Now().UTC()
	db.Create(&models.ViewStat{ProfileID: profile.Identity, TotalViews: 10})
	db.Create(&models.ClickStat{
		LinkID:    popular.ID,
		ProfileID: profile.Identity,
		Platform:  models.Platform(popular.Platform),
		URL:       popular.URL,
		TotalClicks: 4,
	})
	db.Create(&models.StatBucket{Scope: models.BucketScopeView, RefID: profile.Identity, Period: models.BucketPeriodDay, Key: models.DayKey(now), Count: 10})
	db.Create(&models.StatBucket{Scope: models.BucketScopeView, RefID: profile.Identity, Period: models.BucketPeriodMon, Key: models.MonthKey(now), Count: 10})
	db.Create(&models.StatBucket{Scope: models.BucketScopeClick, RefID: popular.ID, Period: models.BucketPeriodDay, Key: models.DayKey(now), Count: 4})

	t.Run("Dashboard stats", func(t *testing.T) {
		w := doJSON(r, "GET", "/api/v1/stats", cookie, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var stats struct {
			TotalViews  int64   `json:"total_views"`
			TotalClicks int64   `json:"total_clicks"`
			CTR         float64 `json:"ctr"`
			ActiveLinks int     `json:"active_links"`
			Links       []struct {
				LinkID   string  `json:"link_id"`
				Clicks   int64   `json:"clicks"`
				Progress float64 `json:"progress"`
			} `json:"links"`
		}
		json.Unmarshal(w.Body.Bytes(), &stats)

		assert.Equal(t, int64(10), stats.TotalViews)
		assert.Equal(t, int64(4), stats.TotalClicks)
		assert.InDelta(t, 0.4, stats.CTR, 0.0001)
		assert.Equal(t, 2, stats.ActiveLinks)
		if assert.Len(t, stats.Links, 2) {
			assert.Equal(t, popular.ID, stats.Links[0].LinkID)
			assert.InDelta(t, 100.0, stats.Links[0].Progress, 0.0001)
			assert.Equal(t, quiet.ID, stats.Links[1].LinkID)
			assert.InDelta(t, 0.0, stats.Links[1].Progress, 0.0001)
		}
	})

	t.Run("View buckets daily", func(t *testing.T) {
		w := doJSON(r, "GET", "/api/v1/stats/views", cookie, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Period  string              `json:"period"`
			Buckets []models.StatBucket `json:"buckets"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, models.BucketPeriodDay, resp.Period)
		if assert.Len(t, resp.Buckets, 1) {
			assert.Equal(t, int64(10), resp.Buckets[0].Count)
		}
	})

	t.Run("View buckets monthly", func(t *testing.T) {
		w := doJSON(r, "GET", "/api/v1/stats/views?period=month", cookie, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Period  string              `json:"period"`
			Buckets []models.StatBucket `json:"buckets"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, models.BucketPeriodMon, resp.Period)
		assert.Len(t, resp.Buckets, 1)
	})

	t.Run("Click buckets for link", func(t *testing.T) {
		w := doJSON(r, "GET", "/api/v1/stats/links/"+popular.ID, cookie, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Buckets []models.StatBucket `json:"buckets"`
		}
		json.Unmarshal(w.Body.Bytes(), &resp)
		if assert.Len(t, resp.Buckets, 1) {
			assert.Equal(t, int64(4), resp.Buckets[0].Count)
		}
	})

	t.Run("Click buckets hidden from other accounts", func(t *testing.T) {
		other := registerTestUser(t, r, "snoop@example.com")
		w := doJSON(r, "GET", "/api/v1/stats/links/"+popular.ID, other, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Click buckets for unknown link", func(t *testing.T) {
		w := doJSON(r, "GET", "/api/v1/stats/links/no-such-id", cookie, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Stats for fresh profile", func(t *testing.T) {
		fresh := registerTestUser(t, r, "fresh@example.com")
		w := doJSON(r, "GET", "/api/v1/stats", fresh, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var stats struct {
			TotalViews int64   `json:"total_views"`
			CTR        float64 `json:"ctr"`
		}
		json.Unmarshal(w.Body.Bytes(), &stats)
		assert.Equal(t, int64(0), stats.TotalViews)
		assert.Equal(t, 0.0, stats.CTR)
	})
}
