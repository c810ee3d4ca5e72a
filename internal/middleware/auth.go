package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/mediaplatform/internal/auditctx"
	iauth "github.com/charlesng35/mediaplatform/internal/auth"
	"github.com/charlesng35/mediaplatform/internal/permissions"
	"github.com/charlesng35/mediaplatform/pkg/errors"
	"github.com/charlesng35/mediaplatform/pkg/response"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxCRSIDKey     = "crsid"
	CtxPrincipalKey = "principal"
)

// PrincipalResolver turns an authenticated identifier into the facts used by
// permission evaluation.
type PrincipalResolver interface {
	Resolve(ctx context.Context, identifier string) permissions.Principal
}

// Authenticate identifies the caller from an optional bearer token. Requests
// without an Authorization header continue as the anonymous principal; a
// malformed or invalid token is rejected with 401.
func Authenticate(jwt *iauth.JWTService, resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := strings.TrimSpace(c.GetHeader("Authorization"))
		if authz == "" {
			c.Set(CtxPrincipalKey, permissions.AnonymousPrincipal())
			attachActor(c, "")
			c.Next()
			return
		}

		if len(authz) < 8 || !strings.EqualFold(authz[:7], "Bearer ") {
			unauthorized(c)
			return
		}

		claims, err := jwt.ValidateAccessToken(strings.TrimSpace(authz[7:]))
		if err != nil {
			unauthorized(c)
			return
		}

		principal := permissions.Principal{Identifier: strings.ToLower(claims.CRSID)}
		if resolver != nil {
			principal = resolver.Resolve(c.Request.Context(), claims.CRSID)
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxCRSIDKey, claims.CRSID)
		c.Set(CtxPrincipalKey, principal)
		attachActor(c, claims.CRSID)

		c.Next()
	}
}

// RequireSignedIn rejects anonymous callers on unsafe methods.
func RequireSignedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isUnsafeMethod(c.Request.Method) && !PrincipalFrom(c).SignedIn() {
			unauthorized(c)
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Authenticate, defaulting to the
// anonymous principal.
func PrincipalFrom(c *gin.Context) permissions.Principal {
	if value, ok := c.Get(CtxPrincipalKey); ok {
		if principal, ok := value.(permissions.Principal); ok {
			return principal
		}
	}
	return permissions.AnonymousPrincipal()
}

// attachActor stores request provenance on the request context for audit logging.
func attachActor(c *gin.Context, crsid string) {
	ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
		CRSID:     crsid,
		Source:    "api",
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
	c.Request = c.Request.WithContext(ctx)
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	response.Error(c, errors.ErrUnauthorized)
	c.Abort()
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	default:
		return true
	}
}
