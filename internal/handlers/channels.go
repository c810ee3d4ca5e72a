package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/middleware"
	"github.com/charlesng35/mediaplatform/internal/services"
	"github.com/charlesng35/mediaplatform/pkg/response"
)

type ChannelHandler struct {
	svc *services.ChannelService
}

type createChannelRequest struct {
	Title            string `json:"title" validate:"required,max=1024"`
	Description      string `json:"description"`
	BillingAccountID string `json:"billing_account_id" validate:"required"`
}

type updateChannelRequest struct {
	Title            *string `json:"title" validate:"omitempty,min=1,max=1024"`
	Description      *string `json:"description"`
	BillingAccountID *string `json:"billing_account_id"`
}

func NewChannelHandler(db *gorm.DB) (*ChannelHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewChannelService(db, audit)
	if err != nil {
		return nil, err
	}
	return &ChannelHandler{svc: svc}, nil
}

// GET /api/channels
func (h *ChannelHandler) List(c *gin.Context) {
	result, err := h.svc.List(requestContext(c), middleware.PrincipalFrom(c), services.ChannelListOptions{
		Search:           strings.TrimSpace(c.Query("search")),
		BillingAccountID: strings.TrimSpace(c.Query("billing_account")),
		Page:             pageOptions(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, result)
}

// GET /api/channels/:id
func (h *ChannelHandler) Get(c *gin.Context) {
	channel, err := h.svc.Get(requestContext(c), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, channel)
}

// POST /api/channels
func (h *ChannelHandler) Create(c *gin.Context) {
	var body createChannelRequest
	if !bindAndValidate(c, &body) {
		return
	}

	channel, err := h.svc.Create(requestContext(c), middleware.PrincipalFrom(c), services.CreateChannelInput{
		Title:            body.Title,
		Description:      body.Description,
		BillingAccountID: strings.TrimSpace(body.BillingAccountID),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, channel)
}

// PATCH /api/channels/:id
func (h *ChannelHandler) Update(c *gin.Context) {
	var body updateChannelRequest
	if !bindAndValidate(c, &body) {
		return
	}

	channel, err := h.svc.Update(requestContext(c), middleware.PrincipalFrom(c), c.Param("id"), services.UpdateChannelInput{
		Title:            body.Title,
		Description:      body.Description,
		BillingAccountID: body.BillingAccountID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, channel)
}

// DELETE /api/channels/:id
func (h *ChannelHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
