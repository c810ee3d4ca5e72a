package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/directory"
	"github.com/charlesng35/mediaplatform/internal/middleware"
	"github.com/charlesng35/mediaplatform/internal/models"
	"github.com/charlesng35/mediaplatform/internal/services"
	"github.com/charlesng35/mediaplatform/pkg/response"
)

type ProfileHandler struct {
	resolver *directory.Resolver
	channels *services.ChannelService
	billing  *services.BillingAccountService
}

type profileResponse struct {
	IsAnonymous     bool                    `json:"is_anonymous"`
	Username        string                  `json:"username,omitempty"`
	DisplayName     string                  `json:"display_name,omitempty"`
	VisibleName     string                  `json:"visible_name,omitempty"`
	Groups          []int64                 `json:"lookup_groups"`
	Institutions    []string                `json:"lookup_insts"`
	Channels        []models.Channel        `json:"channels"`
	BillingAccounts []models.BillingAccount `json:"billing_accounts"`
}

func NewProfileHandler(db *gorm.DB, resolver *directory.Resolver) (*ProfileHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	channels, err := services.NewChannelService(db, audit)
	if err != nil {
		return nil, err
	}
	billing, err := services.NewBillingAccountService(db, audit)
	if err != nil {
		return nil, err
	}
	return &ProfileHandler{resolver: resolver, channels: channels, billing: billing}, nil
}

// GET /api/profile
func (h *ProfileHandler) Get(c *gin.Context) {
	ctx := requestContext(c)
	principal := middleware.PrincipalFrom(c)

	profile := profileResponse{
		IsAnonymous:     principal.Anonymous,
		Username:        principal.Identifier,
		Groups:          append([]int64{}, principal.GroupIDs...),
		Institutions:    append([]string{}, principal.InstitutionCodes...),
		Channels:        []models.Channel{},
		BillingAccounts: []models.BillingAccount{},
	}

	if principal.Anonymous {
		response.Success(c, http.StatusOK, profile)
		return
	}

	// Directory failures leave the display names empty.
	if person, err := h.resolver.Lookup(ctx, principal.Identifier); err == nil {
		profile.DisplayName = person.DisplayName
		profile.VisibleName = person.VisibleName
	}

	channels, err := h.channels.EditableBy(ctx, principal)
	if err != nil {
		respondError(c, err)
		return
	}
	profile.Channels = append(profile.Channels, channels...)

	accounts, err := h.billing.ChannelCreatable(ctx, principal)
	if err != nil {
		respondError(c, err)
		return
	}
	profile.BillingAccounts = append(profile.BillingAccounts, accounts...)

	response.Success(c, http.StatusOK, profile)
}
