package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/auth"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/config"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/http/handlers"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/http/middleware"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/version"
	"github.com/Ex-Ignis/RiTrackApp-sub001/internal/ws"
)

type Dependencies struct {
	Pinger          handlers.Pinger
	RiderHandler    *handlers.RiderHandler
	RealtimeHandler *handlers.RealtimeHandler
	WSHandler       *ws.Handler
	JWTManager      *auth.JWTManager
}

func NewRouter(cfg config.Config, logger *slog.Logger, deps Dependencies) *gin.Engine {
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		logger.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.Next()
	})

	health := handlers.NewHealthHandler(deps.Pinger)
	meta := handlers.NewMetaHandler(cfg.Env, version.Version)

	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/v1/meta", meta.GetMeta)

	// The websocket endpoint authenticates in-band via the authenticate
	// control message, not via the admin API's bearer tokens.
	if deps.WSHandler != nil {
		r.GET("/v1/ws/locations", deps.WSHandler.HandleWebSocket)
	}

	if deps.RiderHandler != nil && deps.JWTManager != nil {
		riderGroup := r.Group("/v1")
		riderGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleOperator, auth.RoleAdmin))
		riderGroup.GET("/riders", deps.RiderHandler.ListRiders)
		riderGroup.GET("/riders/:riderId", deps.RiderHandler.GetRider)
		riderGroup.POST("/riders/:riderId/block", deps.RiderHandler.BlockRider)
		riderGroup.POST("/riders/:riderId/unblock", deps.RiderHandler.UnblockRider)
		riderGroup.POST("/metrics/upload", deps.RiderHandler.UploadMetrics)
		riderGroup.GET("/capacity", deps.RiderHandler.Capacity)
	}

	if deps.RealtimeHandler != nil && deps.JWTManager != nil {
		adminGroup := r.Group("/admin")
		adminGroup.Use(middleware.RequireAuth(deps.JWTManager), middleware.RequireRole(auth.RoleAdmin))
		adminGroup.GET("/ws/stats", deps.RealtimeHandler.Stats)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	})

	return r
}
