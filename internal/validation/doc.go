// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

// Package validation validates API request structs with
// go-playground/validator v10 and translates failures into the
// VALIDATION_ERROR envelope the API returns.
//
// One validator instance serves the whole process. It is built at init
// with WithRequiredStructEnabled and the custom tags registered, and
// go-playground caches parsed struct tags per type, so validation after
// the first call per type is cheap and concurrency is free.
//
// # Usage
//
//	type StreamStartRequest struct {
//	    Source string  `validate:"required,stream_source"`
//	    Stride int     `validate:"omitempty,min=1,max=120"`
//	    MaxFPS float64 `validate:"omitempty,gt=0,lte=60"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// # Tag Vocabulary
//
// The request structs use a small set of built-in tags:
//
//   - required: zero values rejected
//   - url: analyze-by-URL fetch targets
//   - min, max: string length or numeric range (stride bounds, key length)
//   - gt, gte, lt, lte: open and closed numeric bounds (FPS caps)
//   - oneof: enumerated values such as threat levels
//     (oneof=LOW MEDIUM HIGH CRITICAL)
//   - datetime=2006-01-02T15:04:05Z07:00: RFC3339 query window bounds
//
// plus one custom tag:
//
//   - stream_source: a spec the stream registry can resolve, either
//     scheme://rest or a bare filesystem path. Blank specs, a missing
//     scheme before "://", and nothing after it are rejected here;
//     whether the scheme is actually registered is decided by the
//     registry when the stream starts, so the validator does not have
//     to track the scheme list.
//
// # Errors
//
// ValidateStruct returns *RequestValidationError, which carries one
// FieldError per failed field:
//
//	type FieldError struct {
//	    Field   string // struct field name
//	    Tag     string // failed tag
//	    Param   string // tag parameter, "120" for max=120
//	    Value   any    // rejected value
//	    Message string // translated message
//	}
//
// Messages name the field first and the constraint second:
//
//	required      -> "Source is required"
//	url           -> "URL must be a valid URL"
//	max=120       -> "Stride must be at most 120"
//	lte=60        -> "MaxFPS must be less than or equal to 60"
//	min=3 string  -> "Name must be at least 3 characters"
//	oneof         -> "Level must be one of: LOW, MEDIUM, HIGH, CRITICAL"
//	stream_source -> "Source must be a stream URL or a filesystem path"
//	datetime      -> "Since must be an RFC3339 timestamp"
//
// # Envelope Conversion
//
// ToAPIError produces the wire shape. A single failed field keeps its
// message and puts the field, tag, and rejected value in the details:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "URL must be a valid URL",
//	    "details": {"field": "URL", "tag": "url", "value": "not-a-url"}
//	}
//
// Several failed fields get a combined "Field: message" listing and a
// details entry per field:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "Stride: Stride must be at most 120; MaxFPS: MaxFPS must be greater than 0",
//	    "details": {
//	        "fields": [
//	            {"field": "Stride", "tag": "max", "message": "..."},
//	            {"field": "MaxFPS", "tag": "gt", "message": "..."}
//	        ]
//	    }
//	}
//
// The APIError type here mirrors the api package's error triple rather
// than importing it; api imports validation, not the other way around.
//
// # See Also
//
//   - internal/api: the request structs and handlers
//   - internal/stream: the registry that resolves source specs
//   - github.com/go-playground/validator/v10: the underlying library
package validation
