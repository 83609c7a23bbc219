package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/FTanBorn/tan-link-sub000/internal/config"
	"github.com/FTanBorn/tan-link-sub000/internal/models"
	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	db, _ := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	db.AutoMigrate(
		&models.Profile{},
		&models.HandleReservation{},
		&models.Link{},
		&models.ClickStat{},
		&models.ViewStat{},
		&models.StatBucket{},
		&models.AuditLog{},
	)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.Config{
		BaseURL:        "http://localhost:8080",
		SessionSecret:  "test-secret-12345678901234567890123456789012",
		WhatsAppPrefix: "1",
		UploadDir:      t.TempDir(),
	}

	audit := services.NewAuditService(db, logger)
	stats := services.NewStatsService(db, logger, nil)
	links := services.NewLinkService(db, logger, audit, cfg.WhatsAppPrefix)
	registry := services.NewRegistryService(db, logger, audit)
	onboarding := services.NewOnboardingService(db, links)
	resolver := services.NewResolverService(db, nil, logger, links, 1, time.Millisecond, time.Minute)
	qr := services.NewQRService()
	blob, _ := services.NewDiskBlobStore(cfg.UploadDir, cfg.BaseURL)

	h := NewHandler(cfg, logger, db, nil, links, registry, onboarding, stats, resolver, audit, qr, blob)
	return h, db
}

func setupTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return h.SetupRouter(nil)
}

func performRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doJSON(r *gin.Engine, method, path, cookie string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// registerTestUser registers through the API and returns the session cookie.
func registerTestUser(t *testing.T, r *gin.Engine, email string) string {
	w := doJSON(r, "POST", "/api/register", "", map[string]string{
		"email":    email,
		"password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", w.Code, w.Body.String())
	}
	return w.Header().Get("Set-Cookie")
}
