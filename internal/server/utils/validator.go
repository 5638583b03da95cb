package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Replace the string-based builtins so float query params validate.
	_ = validate.RegisterValidation("latitude", validateLatitude)
	_ = validate.RegisterValidation("longitude", validateLongitude)
	_ = validate.RegisterValidation("persona", validatePersona)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("form")
		if tag == "" {
			tag = fld.Tag.Get("json")
		}
		name := strings.SplitN(tag, ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func GetValidator() *validator.Validate {
	return validate
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180.0 && lon <= 180.0
}

func validatePersona(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "agriculture", "travel":
		return true
	}
	return false
}

type ValidationError struct {
	Field   string      `json:"field"`
	Value   interface{} `json:"value"`
	Tag     string      `json:"tag"`
	Message string      `json:"message"`
}

func FormatValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	var validatorErrs validator.ValidationErrors
	if errors.As(err, &validatorErrs) {
		for _, err := range validatorErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   err.Field(),
				Value:   err.Value(),
				Tag:     err.Tag(),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", err.Field())
	case "required_with", "required_without":
		return fmt.Sprintf("%s is required here", err.Field())
	case "latitude":
		return fmt.Sprintf("%s must be a valid latitude between -90 and 90 degrees", err.Field())
	case "longitude":
		return fmt.Sprintf("%s must be a valid longitude between -180 and 180 degrees", err.Field())
	case "persona":
		return fmt.Sprintf("%s must be agriculture or travel", err.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
	default:
		return fmt.Sprintf("%s is invalid", err.Field())
	}
}

func ValidateStruct(s interface{}) []ValidationError {
	err := validate.Struct(s)
	if err != nil {
		return FormatValidationErrors(err)
	}
	return nil
}

// BindQuery parses query parameters into req and validates it. Parse
// failures are reported as a single error on the query.
func BindQuery(c *gin.Context, req interface{}) []ValidationError {
	if err := c.ShouldBindQuery(req); err != nil {
		return []ValidationError{{
			Field:   "query",
			Tag:     "parse",
			Message: err.Error(),
		}}
	}
	return ValidateStruct(req)
}

// BindJSON is BindQuery for request bodies.
func BindJSON(c *gin.Context, req interface{}) []ValidationError {
	if err := c.ShouldBindJSON(req); err != nil {
		return []ValidationError{{
			Field:   "body",
			Tag:     "parse",
			Message: err.Error(),
		}}
	}
	return ValidateStruct(req)
}
