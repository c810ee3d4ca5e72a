package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/handlers"
)

func registerBillingAccountRoutes(api *gin.RouterGroup, db *gorm.DB) error {
	handler, err := handlers.NewBillingAccountHandler(db)
	if err != nil {
		return err
	}

	accounts := api.Group("/billing_accounts")
	{
		accounts.GET("", handler.List)
		accounts.GET("/:id", handler.Get)
	}
	return nil
}
