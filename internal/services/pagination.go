package services

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Page size bounds for list endpoints.
const (
	DefaultPageSize = 50
	MaxPageSize     = 300
)

const cursorPrefix = "o:"

// PageOptions selects one page of a list.
type PageOptions struct {
	Cursor       string
	Limit        int
	IncludeCount bool
}

// ListResult is one page of a list. Next is empty on the last page and Count is
// only populated when requested.
type ListResult[T any] struct {
	Items []T
	Next  string
	Limit int
	Count *int64
}

func (o PageOptions) limit() int {
	switch {
	case o.Limit <= 0:
		return DefaultPageSize
	case o.Limit > MaxPageSize:
		return MaxPageSize
	default:
		return o.Limit
	}
}

func (o PageOptions) offset() (int, error) {
	if strings.TrimSpace(o.Cursor) == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(o.Cursor))
	if err != nil || !strings.HasPrefix(string(raw), cursorPrefix) {
		return 0, invalidInput("invalid cursor")
	}
	offset, err := strconv.Atoi(strings.TrimPrefix(string(raw), cursorPrefix))
	if err != nil || offset < 0 {
		return 0, invalidInput("invalid cursor")
	}
	return offset, nil
}

func encodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(cursorPrefix + strconv.Itoa(offset)))
}

// trimPage drops the look-ahead row fetched to detect a following page and
// returns the cursor for that page.
func trimPage[T any](rows []T, offset, limit int) ([]T, string) {
	if len(rows) <= limit {
		return rows, ""
	}
	return rows[:limit], encodeCursor(offset + limit)
}
