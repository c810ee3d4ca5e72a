package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/mediaplatform/pkg/errors"
	appValidator "github.com/charlesng35/mediaplatform/pkg/validator"
)

// bindAndValidate decodes the JSON body into dest and applies its validate tags.
// On failure a 400 response has already been written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		respondError(c, appErrors.NewBadRequest("request body must be a JSON object"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		respondError(c, appErrors.NewBadRequest(describeValidation(err)))
		return false
	}
	return true
}

func describeValidation(err error) string {
	var failures appValidator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return "invalid request body"
	}

	messages := make([]string, 0, len(failures))
	for _, failure := range failures {
		messages = append(messages, describeFailure(failure))
	}
	return strings.Join(messages, "; ")
}

func describeFailure(failure appValidator.ValidationError) string {
	field := failure.Field
	if field == "" {
		field = "field"
	}

	switch failure.Tag {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s long", field, failure.Param)
	case "min":
		return fmt.Sprintf("%s must be at least %s long", field, failure.Param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, failure.Param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, failure.Param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(failure.Param), ", "))
	case "crsid":
		return field + " must be a valid crsid"
	case "instid":
		return field + " must be a valid Lookup institution id"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
