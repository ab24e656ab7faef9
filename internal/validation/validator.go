// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package validation wraps go-playground/validator v10 behind a shared
// instance and translates failures into the API's VALIDATION_ERROR
// envelope. See doc.go for tag vocabulary and response shapes.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// errorCode is the envelope code for every validation failure.
const errorCode = "VALIDATION_ERROR"

// validate is the process-wide validator. go-playground caches parsed
// struct tags per type, so one shared instance is the fast path and is
// safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("stream_source", validStreamSource); err != nil {
		panic(fmt.Sprintf("validation: register stream_source: %v", err))
	}
	return v
}

// GetValidator returns the shared validator for callers that register
// additional types or run ad hoc checks.
func GetValidator() *validator.Validate {
	return validate
}

// validStreamSource accepts the source specs the stream registry can
// resolve: scheme://rest for network sources, or a bare filesystem path.
// Whether a scheme is actually registered stays the registry's call; this
// only rejects specs that cannot name a source at all, such as blank
// strings, a missing scheme before "://", or nothing after it.
func validStreamSource(fl validator.FieldLevel) bool {
	spec := strings.TrimSpace(fl.Field().String())
	if spec == "" {
		return false
	}
	i := strings.Index(spec, "://")
	if i < 0 {
		return true
	}
	return i > 0 && i+3 < len(spec)
}

// A FieldError describes one failed constraint on one struct field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   any
	Message string
}

// Error returns the translated message for this field.
func (e FieldError) Error() string {
	return e.Message
}

// RequestValidationError collects every field failure from one request.
type RequestValidationError struct {
	Fields []FieldError
}

// Error joins the per-field messages. Each message already names its
// field, so no extra prefixing.
func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	var b strings.Builder
	for i, fe := range ve.Fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(fe.Message)
	}
	return b.String()
}

// APIError mirrors the api package's error triple so this package does
// not import it (api imports validation).
type APIError struct {
	Code    string
	Message string
	Details map[string]any
}

// ToAPIError renders the failure set as a VALIDATION_ERROR envelope. One
// failed field puts that field's name, tag, and rejected value in the
// details; several failed fields get a combined message and a details
// list with one entry per field.
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.Fields) {
	case 0:
		return &APIError{Code: errorCode, Message: "Validation failed"}
	case 1:
		fe := ve.Fields[0]
		return &APIError{
			Code:    errorCode,
			Message: fe.Message,
			Details: map[string]any{
				"field": fe.Field,
				"tag":   fe.Tag,
				"value": fe.Value,
			},
		}
	}

	fields := make([]map[string]any, len(ve.Fields))
	msgs := make([]string, len(ve.Fields))
	for i, fe := range ve.Fields {
		fields[i] = map[string]any{
			"field":   fe.Field,
			"tag":     fe.Tag,
			"message": fe.Message,
		}
		msgs[i] = fe.Field + ": " + fe.Message
	}
	return &APIError{
		Code:    errorCode,
		Message: strings.Join(msgs, "; "),
		Details: map[string]any{"fields": fields},
	}
}

// ValidateStruct runs tag validation on s. A nil return means s passed;
// otherwise every failed field is translated into the returned error.
func ValidateStruct(s any) *RequestValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// validator.Struct only returns a non-ValidationErrors error for
		// non-struct input, which is a caller bug, not a request problem.
		return &RequestValidationError{Fields: []FieldError{{
			Field:   "request",
			Tag:     "struct",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: translate(fe),
		}
	}
	return &RequestValidationError{Fields: fields}
}

// translate renders one failure as an operator-facing message, field
// name first and constraint second, matching the envelope style.
func translate(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a valid URL"
	case "uri":
		return field + " must be a valid URI"
	case "uuid":
		return field + " must be a valid UUID"
	case "datetime":
		return field + " must be an RFC3339 timestamp"
	case "stream_source":
		return field + " must be a stream URL or a filesystem path"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(strings.Fields(param), ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
