package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/qpaperai/qpaper-api/internal/app/models/dto"
)

// BindJSON binds and validates a JSON body. On failure it writes the error
// response itself and returns false; handlers just return.
func BindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondBindError(c, out, err)
		return false
	}
	return true
}

// BindQuery binds and validates query parameters the same way.
func BindQuery(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindQuery(out); err != nil {
		respondBindError(c, out, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, out interface{}, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		details := dto.NewValidationErrors()
		for _, fieldError := range validationErrors {
			details.AddError(jsonFieldName(out, fieldError.Field()), validationMessage(fieldError))
		}

		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed").
			WithDetails(details.Errors)
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request format").
		WithDetails(err.Error())
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

// jsonFieldName resolves a struct field to its json (or form) tag name so
// error details match what the client actually sent.
func jsonFieldName(out interface{}, fieldName string) string {
	t := reflect.TypeOf(out)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return fieldName
	}

	field, ok := t.FieldByName(fieldName)
	if !ok {
		return fieldName
	}

	for _, tagName := range []string{"json", "form"} {
		tag := field.Tag.Get(tagName)
		if tag == "" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return fieldName
}

func validationMessage(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fieldError.Param()
	case "max":
		return "must be at most " + fieldError.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fieldError.Param(), " ", ", ")
	default:
		return "failed " + fieldError.Tag() + " validation"
	}
}
