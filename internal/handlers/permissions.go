package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/mediaplatform/internal/middleware"
	"github.com/charlesng35/mediaplatform/internal/permissions"
	"github.com/charlesng35/mediaplatform/internal/services"
	"github.com/charlesng35/mediaplatform/pkg/response"
)

// PermissionHandler exposes the view and edit grants of resources.
type PermissionHandler struct {
	svc *services.PermissionService
}

type permissionRequest struct {
	CRSIDs       []string `json:"crsids" validate:"omitempty,dive,max=32"`
	LookupGroups []int64  `json:"lookup_groups" validate:"omitempty,dive,gt=0"`
	LookupInsts  []string `json:"lookup_insts" validate:"omitempty,dive,max=32"`
	IsPublic     bool     `json:"is_public"`
	IsSignedIn   bool     `json:"is_signed_in"`
}

func (r permissionRequest) record() permissions.Record {
	record := permissions.Nobody()
	record.CRSIDs = append(record.CRSIDs, r.CRSIDs...)
	record.LookupGroups = append(record.LookupGroups, r.LookupGroups...)
	record.LookupInsts = append(record.LookupInsts, r.LookupInsts...)
	record.IsPublic = r.IsPublic
	record.IsSignedIn = r.IsSignedIn
	return record
}

func NewPermissionHandler(db *gorm.DB) (*PermissionHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	svc, err := services.NewPermissionService(db, audit)
	if err != nil {
		return nil, err
	}
	return &PermissionHandler{svc: svc}, nil
}

// Show returns the view and edit grants of a resource of the given kind.
//
// GET /api/{kind}/:id/permissions
func (h *PermissionHandler) Show(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		grants, err := h.svc.ResourcePermissions(requestContext(c), middleware.PrincipalFrom(c), kind, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, http.StatusOK, grants)
	}
}

// Replace overwrites one grant of a resource of the given kind.
//
// PUT /api/{kind}/:id/permissions/:which
func (h *PermissionHandler) Replace(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body permissionRequest
		if !bindAndValidate(c, &body) {
			return
		}

		grants, err := h.svc.UpdateResourcePermission(requestContext(c), middleware.PrincipalFrom(c), kind, c.Param("id"), c.Param("which"), body.record())
		if err != nil {
			respondError(c, err)
			return
		}
		response.Success(c, http.StatusOK, grants)
	}
}
