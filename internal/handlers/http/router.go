package http

import (
	"net/http"

	"proctorhub/internal/core/ports"
	"proctorhub/internal/infrastructure/middleware"
	"proctorhub/internal/infrastructure/monitoring"
	"proctorhub/internal/infrastructure/objectstore/disk"
	"proctorhub/pkg/config"
	"proctorhub/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Rooms    ports.RoomService
	Logs     ports.LogService
	Students ports.StudentService
	Papers   ports.PaperService
	Auth     ports.AuthService

	// Dashboards upgrades GET /ws.
	Dashboards http.HandlerFunc
	// DiskObjects is set when objects live on local disk and must be served by us.
	DiskObjects *disk.Store

	Health   *monitoring.HealthChecker
	Metrics  *monitoring.PrometheusCollector
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// NewRouter wires middleware and every route onto a fresh engine.
func NewRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	sugar := deps.Logger.Sugar()

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		sugar.Warnw("ignoring invalid trusted proxies", "proxies", cfg.Server.TrustedProxies, "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(middleware.RecoveryMiddleware(sugar))
	router.Use(middleware.RequestIDMiddleware())
	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware())
	}
	router.Use(middleware.AccessLogMiddleware(logger.NewContextLogger(deps.Logger)))
	if deps.Metrics != nil {
		router.Use(deps.Metrics.GinMiddleware())
	}
	router.Use(middleware.ErrorHandlerMiddleware(sugar))
	router.Use(middleware.NewHTTPRateLimitMiddleware(cfg))

	public := router.Group("")
	examiner := router.Group("", middleware.AuthMiddleware(deps.Auth, cfg.Auth.Enabled))

	NewRoomHandler(deps.Rooms).SetupRoutes(public, examiner)
	NewLogHandler(deps.Logs).SetupRoutes(public, examiner)
	NewStudentHandler(deps.Students).SetupRoutes(public, examiner)
	NewPaperHandler(deps.Papers).SetupRoutes(public, examiner)
	NewAuthHandler(deps.Auth, cfg.Auth.AccessTokenTTL).SetupRoutes(router)
	NewHealthHandler(deps.Health, deps.Gatherer).SetupRoutes(router)

	if deps.Dashboards != nil {
		examiner.GET("/ws", gin.WrapF(deps.Dashboards))
	}
	if deps.DiskObjects != nil {
		NewObjectHandler(deps.DiskObjects).SetupRoutes(router)
	}

	return router
}
