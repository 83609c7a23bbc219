package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/FTanBorn/tan-link-sub000/internal/config"
	"github.com/FTanBorn/tan-link-sub000/internal/handlers"
	"github.com/FTanBorn/tan-link-sub000/internal/models"
	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type env struct {
	router *gin.Engine
	db     *gorm.DB
	cookie string
}

func setupEnv(t *testing.T) *env {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Profile{},
		&models.HandleReservation{},
		&models.Link{},
		&models.ClickStat{},
		&models.ViewStat{},
		&models.StatBucket{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.Config{
		BaseURL:        "http://localhost:8080",
		SessionSecret:  "integration-secret-0123456789012345678901",
		WhatsAppPrefix: "1",
		UploadDir:      t.TempDir(),
	}

	audit := services.NewAuditService(db, logger)
	stats := services.NewStatsService(db, logger, nil)
	links := services.NewLinkService(db, logger, audit, cfg.WhatsAppPrefix)
	registry := services.NewRegistryService(db, logger, audit)
	onboarding := services.NewOnboardingService(db, links)
	resolver := services.NewResolverService(db, nil, logger, links, 3, time.Millisecond, time.Minute)
	qr := services.NewQRService()
	blob, err := services.NewDiskBlobStore(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go stats.Start(ctx)
	go audit.Start(ctx)

	h := handlers.NewHandler(cfg, logger, db, nil, links, registry, onboarding, stats, resolver, audit, qr, blob)
	return &env{router: h.SetupRouter(nil), db: db}
}

func (e *env) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if e.cookie != "" {
		req.Header.Set("Cookie", e.cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// TestProfileLifecycle walks the whole product flow: register, claim a
// handle, build the link list, reorder it, publish, visit, and read stats.
func TestProfileLifecycle(t *testing.T) {
	e := setupEnv(t)

	// Register and keep the session.
	w := e.do("POST", "/api/register", map[string]string{
		"email":        "newuser@example.com",
		"password":     "password123",
		"display_name": "New User",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	e.cookie = w.Header().Get("Set-Cookie")

	// Onboarding starts at the username step.
	w = e.do("GET", "/api/v1/onboarding", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var flow struct {
		Current string `json:"current"`
	}
	json.Unmarshal(w.Body.Bytes(), &flow)
	assert.Equal(t, "username", flow.Current)

	// Claim the handle.
	w = e.do("PUT", "/api/v1/profile/handle", map[string]string{"handle": "NewUser"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Two links; handles are normalized into full URLs.
	type linkResp struct {
		ID    string `json:"id"`
		URL   string `json:"url"`
		Order int    `json:"order"`
	}
	var insta, gh linkResp

	w = e.do("POST", "/api/v1/links", map[string]string{"platform": "instagram", "url": "@x"})
	assert.Equal(t, http.StatusCreated, w.Code)
	json.Unmarshal(w.Body.Bytes(), &insta)
	assert.Equal(t, "https://instagram.com/x", insta.URL)
	assert.Equal(t, 0, insta.Order)

	w = e.do("POST", "/api/v1/links", map[string]string{"platform": "github", "url": "x"})
	assert.Equal(t, http.StatusCreated, w.Code)
	json.Unmarshal(w.Body.Bytes(), &gh)
	assert.Equal(t, "https://github.com/x", gh.URL)
	assert.Equal(t, 1, gh.Order)

	// Deleting the first link closes the gap.
	w = e.do("DELETE", "/api/v1/links/"+insta.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do("GET", "/api/v1/links", nil)
	var list struct {
		Links []linkResp `json:"links"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if assert.Len(t, list.Links, 1) {
		assert.Equal(t, gh.ID, list.Links[0].ID)
		assert.Equal(t, 0, list.Links[0].Order)
	}

	// Handle and links exist, no theme: onboarding lands on theme.
	w = e.do("GET", "/api/v1/onboarding", nil)
	json.Unmarshal(w.Body.Bytes(), &flow)
	assert.Equal(t, "theme", flow.Current)

	w = e.do("PUT", "/api/v1/profile/theme", map[string]string{
		"name":       "midnight",
		"background": "#1A1A2E",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do("GET", "/api/v1/onboarding", nil)
	var done struct {
		Current string `json:"current"`
		Done    bool   `json:"done"`
	}
	json.Unmarshal(w.Body.Bytes(), &done)
	assert.Equal(t, "preview", done.Current)
	assert.True(t, done.Done)

	// Public page resolves case-insensitively with the theme applied.
	pub := &env{router: e.router, db: e.db}
	w = pub.do("GET", "/newuser", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var snap struct {
		Profile struct {
			Handle string `json:"handle"`
			Theme  *struct {
				Name string `json:"name"`
			} `json:"theme"`
		} `json:"profile"`
		Links []linkResp `json:"links"`
	}
	json.Unmarshal(w.Body.Bytes(), &snap)
	assert.Equal(t, "newuser", snap.Profile.Handle)
	if assert.NotNil(t, snap.Profile.Theme) {
		assert.Equal(t, "midnight", snap.Profile.Theme.Name)
	}
	assert.Len(t, snap.Links, 1)

	// A visitor follows the link.
	w = pub.do("GET", "/newuser/"+gh.ID, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://github.com/x", w.Header().Get("Location"))

	// Async counters land; stats reflect them.
	assert.Eventually(t, func() bool {
		var stat models.ClickStat
		return e.db.Where("link_id = ?", gh.ID).First(&stat).Error == nil &&
			stat.TotalClicks == 1
	}, 2*time.Second, 10*time.Millisecond)

	w = e.do("GET", "/api/v1/stats", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var stats struct {
		TotalViews  int64 `json:"total_views"`
		TotalClicks int64 `json:"total_clicks"`
		ActiveLinks int   `json:"active_links"`
	}
	json.Unmarshal(w.Body.Bytes(), &stats)
	assert.Equal(t, int64(1), stats.TotalViews)
	assert.Equal(t, int64(1), stats.TotalClicks)
	assert.Equal(t, 1, stats.ActiveLinks)

	// The day bucket exists for today.
	w = e.do("GET", "/api/v1/stats/views", nil)
	var buckets struct {
		Buckets []models.StatBucket `json:"buckets"`
	}
	json.Unmarshal(w.Body.Bytes(), &buckets)
	if assert.Len(t, buckets.Buckets, 1) {
		assert.Equal(t, models.DayKey(time.Now()), buckets.Buckets[0].Key)
		assert.Equal(t, int64(1), buckets.Buckets[0].Count)
	}
}

// TestHandleExclusivity covers two accounts contending for one handle.
func TestHandleExclusivity(t *testing.T) {
	e := setupEnv(t)

	w := e.do("POST", "/api/register", map[string]string{
		"email": "first@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	e.cookie = w.Header().Get("Set-Cookie")

	w = e.do("PUT", "/api/v1/profile/handle", map[string]string{"handle": "shared"})
	assert.Equal(t, http.StatusOK, w.Code)

	second := &env{router: e.router, db: e.db}
	w = second.do("POST", "/api/register", map[string]string{
		"email": "second@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	second.cookie = w.Header().Get("Set-Cookie")

	// Taken for the second account.
	w = second.do("PUT", "/api/v1/profile/handle", map[string]string{"handle": "SHARED"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// First account moves to a new handle, releasing the old one.
	w = e.do("PUT", "/api/v1/profile/handle", map[string]string{"handle": "moved"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = second.do("PUT", "/api/v1/profile/handle", map[string]string{"handle": "shared"})
	assert.Equal(t, http.StatusOK, w.Code)

	// The old page is gone, the new ones resolve.
	pub := &env{router: e.router, db: e.db}
	assert.Equal(t, http.StatusOK, pub.do("GET", "/moved", nil).Code)
	assert.Equal(t, http.StatusOK, pub.do("GET", "/shared", nil).Code)
}
