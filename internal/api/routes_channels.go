package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/handlers"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

func registerChannelRoutes(api *gin.RouterGroup, db *gorm.DB, perms *handlers.PermissionHandler) error {
	handler, err := handlers.NewChannelHandler(db)
	if err != nil {
		return err
	}

	channels := api.Group("/channels")
	{
		channels.GET("", handler.List)
		channels.POST("", handler.Create)
		channels.GET("/:id", handler.Get)
		channels.PATCH("/:id", handler.Update)
		channels.DELETE("/:id", handler.Delete)
	}
	registerPermissionRoutes(channels, permissions.KindChannel, perms)
	return nil
}
