package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/regionsvc/pkg/errors"
	"github.com/charlesng35/regionsvc/pkg/response"
	appValidator "github.com/charlesng35/regionsvc/pkg/validator"
)

// bindQuery binds query parameters into dest and runs struct validation rules.
// When binding or validation fails, an error response is written and false is
// returned.
func bindQuery[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid query parameters"))
		return false
	}
	return validate(c, dest)
}

// bindURI is bindQuery for path parameters.
func bindURI[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindUri(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid path parameters"))
		return false
	}
	return validate(c, dest)
}

func validate(c *gin.Context, dest any) bool {
	err := appValidator.ValidateStruct(dest)
	if err == nil {
		return true
	}

	if ve, ok := err.(appValidator.ValidationErrors); ok {
		for _, failure := range ve {
			if failure.Tag == "finite" {
				response.Error(c, appErrors.ErrInvalidCoordinate)
				return false
			}
		}
	}
	response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
	return false
}

func formatValidationError(err error) string {
	if err == nil {
		return "invalid request"
	}

	ve, ok := err.(appValidator.ValidationErrors)
	if !ok || len(ve) == 0 {
		return "invalid request"
	}

	messages := make([]string, 0, len(ve))
	for _, failure := range ve {
		field := prettifyFieldName(failure.Field)
		switch failure.Tag {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, failure.Param))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, failure.Param))
		case "service_name":
			messages = append(messages, fmt.Sprintf("%s is not a valid service name", field))
		default:
			if failure.Param != "" {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
			} else {
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
			}
		}
	}
	return strings.Join(messages, "; ")
}

func prettifyFieldName(name string) string {
	if name == "" {
		return "field"
	}
	name = strings.ReplaceAll(name, "_", " ")
	return strings.ToLower(name)
}
