package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator adapts go-playground/validator to echo's Validator interface
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator builds the validator used for request payloads,
// reporting field names from json tags
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

// Validate implements echo.Validator
func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// validationFields converts a validation error into a field -> message map
// suitable for a 400 response body
func validationFields(err error) echo.Map {
	fields := echo.Map{}
	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range errs {
			switch fe.Tag() {
			case "required":
				fields[fe.Field()] = "this field is required"
			case "email":
				fields[fe.Field()] = "enter a valid email address"
			case "min":
				fields[fe.Field()] = "ensure this field has at least " + fe.Param() + " characters"
			default:
				fields[fe.Field()] = "invalid value"
			}
		}
	}
	return fields
}
