package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/mediaplatform/internal/services"
	"github.com/charlesng35/mediaplatform/pkg/response"
)

func pageOptions(c *gin.Context) services.PageOptions {
	return services.PageOptions{
		Cursor:       strings.TrimSpace(c.Query("cursor")),
		Limit:        parseIntQuery(c, "limit", services.DefaultPageSize),
		IncludeCount: parseBoolQuery(c, "include_count"),
	}
}

// parseIntQuery returns fallback when key is absent or not an integer; the
// services clamp out of range values.
func parseIntQuery(c *gin.Context, key string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(c.Query(key)))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBoolQuery(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && value
}

func respondList[T any](c *gin.Context, result *services.ListResult[T]) {
	items := result.Items
	if items == nil {
		items = []T{}
	}
	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{
		Next:  result.Next,
		Limit: result.Limit,
		Count: result.Count,
	})
}
