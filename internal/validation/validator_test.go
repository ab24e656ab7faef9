// Skywarden - Drone Security Threat Assessment and Vision Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skywarden

package validation

import (
	"strings"
	"testing"
)

// streamStartRequest mirrors the stream control request shape.
type streamStartRequest struct {
	Source string  `validate:"required,stream_source"`
	Stride int     `validate:"omitempty,min=1,max=120"`
	MaxFPS float64 `validate:"omitempty,gt=0,lte=60"`
}

type analyzeURLRequest struct {
	URL string `validate:"required,url"`
}

func TestGetValidator_SharedInstance(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 == nil {
		t.Fatal("GetValidator() returned nil")
	}
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance every call")
	}
}

func TestValidateStruct_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input streamStartRequest
	}{
		{
			name: "all fields set",
			input: streamStartRequest{
				Source: "rtsp://10.0.0.5:8554/north",
				Stride: 5,
				MaxFPS: 15,
			},
		},
		{
			name:  "webcam index source",
			input: streamStartRequest{Source: "0"},
		},
		{
			name: "stride at upper bound",
			input: streamStartRequest{
				Source: "perimeter.mp4",
				Stride: 120,
			},
		},
		{
			name: "fps at upper bound",
			input: streamStartRequest{
				Source: "perimeter.mp4",
				MaxFPS: 60,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateStruct(&tt.input); err != nil {
				t.Errorf("ValidateStruct() = %v, want nil", err)
			}
		})
	}
}

func TestValidateStruct_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		input     streamStartRequest
		wantField string
		wantTag   string
	}{
		{
			name:      "missing source",
			input:     streamStartRequest{Stride: 5},
			wantField: "Source",
			wantTag:   "required",
		},
		{
			name:      "blank source",
			input:     streamStartRequest{Source: "   "},
			wantField: "Source",
			wantTag:   "stream_source",
		},
		{
			name:      "stride too high",
			input:     streamStartRequest{Source: "cam-0", Stride: 500},
			wantField: "Stride",
			wantTag:   "max",
		},
		{
			name:      "negative stride",
			input:     streamStartRequest{Source: "cam-0", Stride: -1},
			wantField: "Stride",
			wantTag:   "min",
		},
		{
			name:      "fps over cap",
			input:     streamStartRequest{Source: "cam-0", MaxFPS: 240},
			wantField: "MaxFPS",
			wantTag:   "lte",
		},
		{
			name:      "negative fps",
			input:     streamStartRequest{Source: "cam-0", MaxFPS: -1},
			wantField: "MaxFPS",
			wantTag:   "gt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if err == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			if len(err.Fields) == 0 {
				t.Fatal("error carries no field failures")
			}

			found := false
			for _, fe := range err.Fields {
				if fe.Field == tt.wantField && fe.Tag == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no failure on field %s with tag %s, got: %v", tt.wantField, tt.wantTag, err.Fields)
			}
		})
	}
}

func TestStreamSourceTag(t *testing.T) {
	type sourceOnly struct {
		Source string `validate:"stream_source"`
	}

	valid := []string{
		"rtsp://10.0.0.5:8554/north",
		"https://cam.local/snapshot",
		"dir:///var/lib/skywarden/frames",
		"/var/lib/skywarden/frames",
		"perimeter.mp4",
		"0",
	}
	for _, spec := range valid {
		t.Run("valid "+spec, func(t *testing.T) {
			if err := ValidateStruct(&sourceOnly{Source: spec}); err != nil {
				t.Errorf("spec %q rejected: %v", spec, err)
			}
		})
	}

	invalid := []string{
		"",
		"   ",
		"://no-scheme",
		"rtsp://",
	}
	for _, spec := range invalid {
		t.Run("invalid "+spec, func(t *testing.T) {
			err := ValidateStruct(&sourceOnly{Source: spec})
			if err == nil {
				t.Fatalf("spec %q accepted, want rejection", spec)
			}
			if err.Fields[0].Tag != "stream_source" {
				t.Errorf("tag = %q, want stream_source", err.Fields[0].Tag)
			}
		})
	}
}

func TestToAPIError_SingleError(t *testing.T) {
	err := ValidateStruct(&streamStartRequest{Stride: 5})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "Source is required" {
		t.Errorf("Message = %q, want 'Source is required'", apiErr.Message)
	}
	if apiErr.Details["field"] != "Source" {
		t.Errorf("details.field = %v, want Source", apiErr.Details["field"])
	}
	if apiErr.Details["tag"] != "required" {
		t.Errorf("details.tag = %v, want required", apiErr.Details["tag"])
	}
}

func TestToAPIError_MultipleErrors(t *testing.T) {
	err := ValidateStruct(&streamStartRequest{Source: "cam-0", Stride: 999, MaxFPS: -5})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Fields) < 2 {
		t.Fatalf("got %d field failures, want at least 2", len(err.Fields))
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}

	fields, ok := apiErr.Details["fields"].([]map[string]any)
	if !ok {
		t.Fatalf("details.fields is %T, want a slice of field maps", apiErr.Details["fields"])
	}
	if len(fields) != len(err.Fields) {
		t.Errorf("details lists %d fields, want %d", len(fields), len(err.Fields))
	}

	// The combined message names each field.
	for _, want := range []string{"Stride", "MaxFPS"} {
		if !strings.Contains(apiErr.Message, want) {
			t.Errorf("combined message %q does not mention %s", apiErr.Message, want)
		}
	}
}

func TestToAPIError_Empty(t *testing.T) {
	apiErr := (&RequestValidationError{}).ToAPIError()

	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Message != "Validation failed" {
		t.Errorf("Message = %q, want the generic message", apiErr.Message)
	}
	if apiErr.Details != nil {
		t.Errorf("Details = %v, want nil", apiErr.Details)
	}
}

func TestURLValidation(t *testing.T) {
	valid := []string{
		"https://example.com/frame.jpg",
		"http://10.0.0.5:8080/snapshot",
		"rtsp://camera.local:8554/stream",
	}
	for _, u := range valid {
		t.Run(u, func(t *testing.T) {
			if err := ValidateStruct(&analyzeURLRequest{URL: u}); err != nil {
				t.Errorf("%q rejected as url: %v", u, err)
			}
		})
	}

	invalid := []string{
		"not a url",
		"://missing-scheme",
	}
	for _, u := range invalid {
		t.Run(u, func(t *testing.T) {
			err := ValidateStruct(&analyzeURLRequest{URL: u})
			if err == nil {
				t.Fatalf("%q accepted as url", u)
			}
			if err.Fields[0].Tag != "url" {
				t.Errorf("tag = %q, want url", err.Fields[0].Tag)
			}
		})
	}
}

func TestDatetimeValidation(t *testing.T) {
	type queryWindow struct {
		Since string `validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	}

	valid := []string{
		"",
		"2026-08-25T14:30:00Z",
		"2026-08-25T14:30:00+02:00",
	}
	for _, v := range valid {
		t.Run("valid "+v, func(t *testing.T) {
			if err := ValidateStruct(&queryWindow{Since: v}); err != nil {
				t.Errorf("%q rejected as RFC3339: %v", v, err)
			}
		})
	}

	invalid := []string{
		"2026-08-25",
		"yesterday",
		"1756132200",
	}
	for _, v := range invalid {
		t.Run("invalid "+v, func(t *testing.T) {
			if err := ValidateStruct(&queryWindow{Since: v}); err == nil {
				t.Errorf("%q accepted as RFC3339", v)
			}
		})
	}
}

func TestOneofValidation(t *testing.T) {
	type levelFilter struct {
		Level string `validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	}

	for _, level := range []string{"", "LOW", "MEDIUM", "HIGH", "CRITICAL"} {
		t.Run("valid "+level, func(t *testing.T) {
			if err := ValidateStruct(&levelFilter{Level: level}); err != nil {
				t.Errorf("level %q rejected: %v", level, err)
			}
		})
	}

	for _, level := range []string{"critical", "SEVERE", "5"} {
		t.Run("invalid "+level, func(t *testing.T) {
			err := ValidateStruct(&levelFilter{Level: level})
			if err == nil {
				t.Fatalf("level %q accepted", level)
			}
			if want := "must be one of: LOW, MEDIUM, HIGH, CRITICAL"; !strings.Contains(err.Error(), want) {
				t.Errorf("message = %q, want it to contain %q", err.Error(), want)
			}
		})
	}
}

func TestNestedStructValidation(t *testing.T) {
	type webhookSettings struct {
		URL     string `validate:"required,url"`
		Timeout int    `validate:"min=1,max=300"`
	}
	type alertsConfig struct {
		MinLevel string          `validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
		Webhook  webhookSettings `validate:"required"`
	}

	err := ValidateStruct(&alertsConfig{
		MinLevel: "HIGH",
		Webhook: webhookSettings{
			URL:     "not a url",
			Timeout: 0,
		},
	})
	if err == nil {
		t.Fatal("expected nested validation errors")
	}

	tags := make(map[string]string)
	for _, fe := range err.Fields {
		tags[fe.Field] = fe.Tag
	}
	if tags["URL"] != "url" {
		t.Errorf("nested URL failure missing, got tags: %v", tags)
	}
	if tags["Timeout"] != "min" {
		t.Errorf("nested Timeout min failure missing, got tags: %v", tags)
	}
}

func TestTranslatedMessages(t *testing.T) {
	type levelFilter struct {
		Level string `validate:"omitempty,oneof=LOW MEDIUM HIGH CRITICAL"`
	}
	type sourceOnly struct {
		Source string `validate:"stream_source"`
	}
	type sinceOnly struct {
		Since string `validate:"datetime=2006-01-02T15:04:05Z07:00"`
	}

	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "required",
			input: &streamStartRequest{},
			want:  "Source is required",
		},
		{
			name:  "max numeric",
			input: &streamStartRequest{Source: "cam-0", Stride: 999},
			want:  "Stride must be at most 120",
		},
		{
			name:  "lte",
			input: &streamStartRequest{Source: "cam-0", MaxFPS: 100},
			want:  "MaxFPS must be less than or equal to 60",
		},
		{
			name:  "url",
			input: &analyzeURLRequest{URL: "nope"},
			want:  "URL must be a valid URL",
		},
		{
			name:  "oneof",
			input: &levelFilter{Level: "SEVERE"},
			want:  "Level must be one of: LOW, MEDIUM, HIGH, CRITICAL",
		},
		{
			name:  "stream source",
			input: &sourceOnly{Source: "://x"},
			want:  "Source must be a stream URL or a filesystem path",
		},
		{
			name:  "datetime",
			input: &sinceOnly{Since: "noonish"},
			want:  "Since must be an RFC3339 timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("message = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}

func TestTranslatedMessages_StringLength(t *testing.T) {
	type keyRequest struct {
		Name string `validate:"required,min=3,max=64"`
	}

	err := ValidateStruct(&keyRequest{Name: "ab"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if want := "Name must be at least 3 characters"; !strings.Contains(err.Error(), want) {
		t.Errorf("message = %q, want it to contain %q", err.Error(), want)
	}
}

func BenchmarkValidateStruct(b *testing.B) {
	input := streamStartRequest{
		Source: "rtsp://10.0.0.5:8554/north",
		Stride: 5,
		MaxFPS: 15,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ValidateStruct(&input)
	}
}
