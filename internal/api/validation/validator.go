// Package validation checks request bodies and reports each failing field by its JSON path.
package validation

import (
	"reflect"
	"strings"
	"time"

	"github.com/blaisecz/smart-sleep/internal/domain"
	"github.com/blaisecz/smart-sleep/pkg/problem"
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)

	_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		_, err := time.LoadLocation(fl.Field().String())
		return err == nil
	})
	v.RegisterStructValidation(validateStartSession, domain.StartSessionRequest{})
	return v
}

// validateStartSession rejects an alarm window without a target wake time.
func validateStartSession(sl validator.StructLevel) {
	req := sl.Current().Interface().(domain.StartSessionRequest)
	if req.PreWakeMinutes != 0 && req.TargetWakeAt == nil {
		sl.ReportError(req.PreWakeMinutes, "pre_wake_minutes", "PreWakeMinutes", "requires_target", "")
	}
}

// Validate validates a struct and returns field errors
func Validate(s any) []problem.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors []problem.FieldError
	for _, err := range err.(validator.ValidationErrors) {
		fieldErrors = append(fieldErrors, problem.FieldError{
			Field:   fieldPath(err),
			Message: getValidationMessage(err),
		})
	}
	return fieldErrors
}

// fieldPath drops the root struct name from the namespace, e.g. samples[2].value.
func fieldPath(err validator.FieldError) string {
	if _, path, ok := strings.Cut(err.Namespace(), "."); ok {
		return path
	}
	return err.Field()
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}

func getValidationMessage(err validator.FieldError) string {
	isList := err.Kind() == reflect.Slice
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		if isList {
			return "must contain at least " + err.Param() + " items"
		}
		return "must be at least " + err.Param()
	case "max":
		if isList {
			return "must contain at most " + err.Param() + " items"
		}
		return "must be at most " + err.Param()
	case "oneof":
		return "must be one of: " + err.Param()
	case "timezone":
		return "must be a valid IANA timezone"
	case "requires_target":
		return "requires target_wake_at"
	default:
		return "is invalid"
	}
}
