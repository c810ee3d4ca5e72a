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

type PlaylistHandler struct {
	svc *services.PlaylistService
}

type createPlaylistRequest struct {
	ChannelID   string   `json:"channel_id" validate:"required"`
	Title       string   `json:"title" validate:"required,max=1024"`
	Description string   `json:"description"`
	MediaIDs    []string `json:"media_ids"`
}

type updatePlaylistRequest struct {
	ChannelID   *string   `json:"channel_id"`
	Title       *string   `json:"title" validate:"omitempty,min=1,max=1024"`
	Description *string   `json:"description"`
	MediaIDs    *[]string `json:"media_ids"`
}

func NewPlaylistHandler(db *gorm.DB) (*PlaylistHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewPlaylistService(db, audit)
	if err != nil {
		return nil, err
	}
	return &PlaylistHandler{svc: svc}, nil
}

// GET /api/playlists
func (h *PlaylistHandler) List(c *gin.Context) {
	result, err := h.svc.List(requestContext(c), middleware.PrincipalFrom(c), services.PlaylistListOptions{
		Search:    strings.TrimSpace(c.Query("search")),
		ChannelID: strings.TrimSpace(c.Query("channel")),
		Page:      pageOptions(c),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondList(c, result)
}

// GET /api/playlists/:id
func (h *PlaylistHandler) Get(c *gin.Context) {
	playlist, err := h.svc.Get(requestContext(c), middleware.PrincipalFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, playlist)
}

// POST /api/playlists
func (h *PlaylistHandler) Create(c *gin.Context) {
	var body createPlaylistRequest
	if !bindAndValidate(c, &body) {
		return
	}

	playlist, err := h.svc.Create(requestContext(c), middleware.PrincipalFrom(c), services.CreatePlaylistInput{
		ChannelID:   strings.TrimSpace(body.ChannelID),
		Title:       body.Title,
		Description: body.Description,
		MediaIDs:    body.MediaIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, playlist)
}

// PATCH /api/playlists/:id
func (h *PlaylistHandler) Update(c *gin.Context) {
	var body updatePlaylistRequest
	if !bindAndValidate(c, &body) {
		return
	}

	playlist, err := h.svc.Update(requestContext(c), middleware.PrincipalFrom(c), c.Param("id"), services.UpdatePlaylistInput{
		ChannelID:   body.ChannelID,
		Title:       body.Title,
		Description: body.Description,
		MediaIDs:    body.MediaIDs,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, playlist)
}

// DELETE /api/playlists/:id
func (h *PlaylistHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(requestContext(c), middleware.PrincipalFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
