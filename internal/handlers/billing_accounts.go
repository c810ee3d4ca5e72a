package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/middleware"
	"github.com/charlesng35/mediaplatform/internal/services"
	"github.com/charlesng35/mediaplatform/pkg/response"
)

type BillingAccountHandler struct {
	svc *services.BillingAccountService
}

func NewBillingAccountHandler(db *gorm.DB) (*BillingAccountHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewBillingAccountService(db, audit)
	if err != nil {
		return nil, err
	}
	return &BillingAccountHandler{svc: svc}, nil
}

// GET /api/billing_accounts
func (h *BillingAccountHandler) List(c *gin.Context) {
	result, err := h.svc.List(requestContext(c), middleware.PrincipalFrom(c), pageOptions(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, result)
}

// GET /api/billing_accounts/:id
func (h *BillingAccountHandler) Get(c *gin.Context) {
	account, err := h.svc.Get(requestContext(c), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, account)
}
