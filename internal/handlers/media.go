package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/middleware"
	"github.com/charlesng35/mediaplatform/internal/services"
	"github.com/charlesng35/mediaplatform/pkg/response"
)

type MediaHandler struct {
	svc *services.MediaService
}

type createMediaRequest struct {
	ChannelID    string     `json:"channel_id" validate:"required"`
	Title        string     `json:"title" validate:"required,max=1024"`
	Description  string     `json:"description"`
	Type         string     `json:"type" validate:"omitempty,oneof=video audio unknown"`
	Duration     float64    `json:"duration" validate:"gte=0"`
	Downloadable bool       `json:"downloadable"`
	Language     string     `json:"language" validate:"omitempty,max=10"`
	Copyright    string     `json:"copyright"`
	Tags         []string   `json:"tags" validate:"omitempty,dive,max=128"`
	PublishedAt  *time.Time `json:"published_at"`
}

type updateMediaRequest struct {
	ChannelID    *string    `json:"channel_id"`
	Title        *string    `json:"title" validate:"omitempty,min=1,max=1024"`
	Description  *string    `json:"description"`
	Downloadable *bool      `json:"downloadable"`
	Language     *string    `json:"language" validate:"omitempty,max=10"`
	Copyright    *string    `json:"copyright"`
	Tags         *[]string  `json:"tags"`
	PublishedAt  *time.Time `json:"published_at"`
}

func NewMediaHandler(db *gorm.DB, stats services.StatsSource) (*MediaHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewMediaService(db, audit, stats)
	if err != nil {
		return nil, err
	}
	return &MediaHandler{svc: svc}, nil
}

// GET /api/media
func (h *MediaHandler) List(c *gin.Context) {
	result, err := h.svc.List(requestContext(c), middleware.PrincipalFrom(c), services.MediaListOptions{
		Search:     strings.TrimSpace(c.Query("search")),
		ChannelID:  strings.TrimSpace(c.Query("channel")),
		PlaylistID: strings.TrimSpace(c.Query("playlist")),
		Page:       pageOptions(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, result)
}

// GET /api/media/:id
func (h *MediaHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(requestContext(c), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// POST /api/media
func (h *MediaHandler) Create(c *gin.Context) {
	var body createMediaRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.svc.Create(requestContext(c), middleware.PrincipalFrom(c), services.CreateMediaInput{
		ChannelID:    strings.TrimSpace(body.ChannelID),
		Title:        body.Title,
		Description:  body.Description,
		Type:         body.Type,
		Duration:     body.Duration,
		Downloadable: body.Downloadable,
		Language:     body.Language,
		Copyright:    body.Copyright,
		Tags:         body.Tags,
		PublishedAt:  body.PublishedAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}

// PATCH /api/media/:id
func (h *MediaHandler) Update(c *gin.Context) {
	var body updateMediaRequest
	if !bindAndValidate(c, &body) {
		return
	}

	item, err := h.svc.Update(requestContext(c), middleware.PrincipalFrom(c), c.Param("id"), services.UpdateMediaInput{
		ChannelID:    body.ChannelID,
		Title:        body.Title,
		Description:  body.Description,
		Downloadable: body.Downloadable,
		Language:     body.Language,
		Copyright:    body.Copyright,
		Tags:         body.Tags,
		PublishedAt:  body.PublishedAt,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, item)
}

// DELETE /api/media/:id
func (h *MediaHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/media/:id/analytics
func (h *MediaHandler) Analytics(c *gin.Context) {
	stats, err := h.svc.Analytics(requestContext(c), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"size": len(stats), "results": stats})
}
