package service

import (
	"strings"
	"time"
)

// TelemetryInput is one validated-or-rejected telemetry report. It is
// shared by the HTTP endpoint and the feed subscriber so both
// transports apply identical validation.
type TelemetryInput struct {
	Serial             string     `json:"serial"`
	Lat                *float64   `json:"lat"`
	Lng                *float64   `json:"lng"`
	Timestamp          *time.Time `json:"timestamp"`
	HeightM            *float64   `json:"height_m"`
	HorizontalSpeedMPS *float64   `json:"horizontal_speed_mps"`
}

const maxSerialLength = 64

// Validate checks required fields and reports every problem at once.
func (in TelemetryInput) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(in.Serial) == "" {
		fields["serial"] = "this field is required"
	} else if len(in.Serial) > maxSerialLength {
		fields["serial"] = "must be at most 64 characters"
	}
	if in.Lat == nil {
		fields["lat"] = "this field is required"
	}
	if in.Lng == nil {
		fields["lng"] = "this field is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
