package handlers

import (
	"log/slog"

	"github.com/FTanBorn/tan-link-sub000/internal/config"
	"github.com/FTanBorn/tan-link-sub000/internal/services"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Handler struct {
	cfg               config.Config
	logger            *slog.Logger
	db                *gorm.DB
	rdb               *redis.Client
	linkService       *services.LinkService
	registryService   *services.RegistryService
	onboardingService *services.OnboardingService
	statsService      *services.StatsService
	resolverService   *services.ResolverService
	auditService      *services.AuditService
	qrService         *services.QRService
	blobStore         services.BlobStore
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	db *gorm.DB,
	rdb *redis.Client,
	linkService *services.LinkService,
	registryService *services.RegistryService,
	onboardingService *services.OnboardingService,
	statsService *services.StatsService,
	resolverService *services.ResolverService,
	auditService *services.AuditService,
	qrService *services.QRService,
	blobStore services.BlobStore,
) *Handler {
	return &Handler{
		cfg:               cfg,
		logger:            logger,
		db:                db,
		rdb:               rdb,
		linkService:       linkService,
		registryService:   registryService,
		onboardingService: onboardingService,
		statsService:      statsService,
		resolverService:   resolverService,
		auditService:      auditService,
		qrService:         qrService,
		blobStore:         blobStore,
	}
}
