package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/handlers"
	"github.com/charlesng35/mediaplatform/internal/permissions"
)

func registerPlaylistRoutes(api *gin.RouterGroup, db *gorm.DB, perms *handlers.PermissionHandler) error {
	handler, err := handlers.NewPlaylistHandler(db)
	if err != nil {
		return err
	}

	playlists := api.Group("/playlists")
	{
		playlists.GET("", handler.List)
		playlists.POST("", handler.Create)
		playlists.GET("/:id", handler.Get)
		playlists.PATCH("/:id", handler.Update)
		playlists.DELETE("/:id", handler.Delete)
	}
	registerPermissionRoutes(playlists, permissions.KindPlaylist, perms)
	return nil
}
