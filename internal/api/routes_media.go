package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/handlers"
	"github.com/charlesng35/mediaplatform/internal/permissions"
	"github.com/charlesng35/mediaplatform/internal/services"
)

func registerMediaRoutes(api *gin.RouterGroup, db *gorm.DB, stats services.StatsSource, perms *handlers.PermissionHandler) error {
	handler, err := handlers.NewMediaHandler(db, stats)
	if err != nil {
		return err
	}

	media := api.Group("/media")
	{
		media.GET("", handler.List)
		media.POST("", handler.Create)
		media.GET("/:id", handler.Get)
		media.PATCH("/:id", handler.Update)
		media.DELETE("/:id", handler.Delete)
		media.GET("/:id/analytics", handler.Analytics)
	}
	registerPermissionRoutes(media, permissions.KindMediaItem, perms)
	return nil
}
