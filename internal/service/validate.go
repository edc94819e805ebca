// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept plain input structs and return domain errors — they have
// zero knowledge of HTTP. The handler translates both directions.
package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/enockm/productivity-tracker/internal/apperror"
)

// validate is the shared validator instance. Request structs declare their
// constraints in `validate` tags; translateValidation turns the library's
// error list into the API's per-field validation error.
var validate = newValidator()

// newValidator builds the shared instance, configured to report fields by
// their JSON names so error payloads match the request body the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// translateValidation converts validator errors into an apperror carrying one
// message per failing field. Messages name the field and the violated rule so
// the client can render them directly.
func translateValidation(err error) error {
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.ValidationFailed("body", "invalid request body")
	}

	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return apperror.ValidationErrors(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
