package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/app"
	iauth "github.com/charlesng35/mediaplatform/internal/auth"
	"github.com/charlesng35/mediaplatform/internal/directory"
	"github.com/charlesng35/mediaplatform/internal/handlers"
	"github.com/charlesng35/mediaplatform/internal/middleware"
	"github.com/charlesng35/mediaplatform/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers the catalog routes.
// stats may be nil when no legacy statistics database is configured.
func NewRouter(db *gorm.DB, jwt *iauth.JWTService, resolver *directory.Resolver, cfg *app.Config, stats services.StatsSource) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if jwt == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}
	if resolver == nil {
		return nil, fmt.Errorf("principal resolver must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, db)

	api := r.Group("/api")
	api.Use(middleware.Authenticate(jwt, resolver))
	api.Use(middleware.RequireSignedIn())

	permHandler, err := handlers.NewPermissionHandler(db)
	if err != nil {
		return nil, err
	}

	if err := registerProfileRoutes(api, db, resolver); err != nil {
		return nil, err
	}
	if err := registerMediaRoutes(api, db, stats, permHandler); err != nil {
		return nil, err
	}
	if err := registerPlaylistRoutes(api, db, permHandler); err != nil {
		return nil, err
	}
	if err := registerChannelRoutes(api, db, permHandler); err != nil {
		return nil, err
	}
	if err := registerBillingAccountRoutes(api, db); err != nil {
		return nil, err
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func registerPermissionRoutes(group *gin.RouterGroup, kind string, handler *handlers.PermissionHandler) {
	group.GET("/:id/permissions", handler.Show(kind))
	group.PUT("/:id/permissions/:which", handler.Replace(kind))
}
