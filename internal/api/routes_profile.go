package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/directory"
	"github.com/charlesng35/mediaplatform/internal/handlers"
)

func registerProfileRoutes(api *gin.RouterGroup, db *gorm.DB, resolver *directory.Resolver) error {
	handler, err := handlers.NewProfileHandler(db, resolver)
	if err != nil {
		return err
	}
	api.GET("/profile", handler.Get)
	return nil
}
