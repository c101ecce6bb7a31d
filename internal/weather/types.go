package weather

import (
	"context"
	"fmt"
	"time"
)

type Provider interface {
	Fetch(ctx context.Context, locationKey string) (*Report, error)
}

// Report is a snapshot of current conditions for one location. It is built
// once from a provider response and never modified afterwards.
type Report struct {
	Condition    string      `json:"condition"`
	TemperatureC float64     `json:"temperature_c"`
	UVIndex      int         `json:"uv_index"`
	AirQuality   *AirQuality `json:"air_quality,omitempty"`
	ObservedAt   time.Time   `json:"observed_at"`
}

type AirQuality struct {
	Category string `json:"category"`
}

// AirQualityCategory returns the category, or "" when the provider had no
// air-quality data for the location.
func (r *Report) AirQualityCategory() string {
	if r == nil || r.AirQuality == nil {
		return ""
	}
	return r.AirQuality.Category
}

func (r Report) String() string {
	air := "<none>"
	if r.AirQuality != nil {
		air = r.AirQuality.Category
	}
	return fmt.Sprintf("{Condition:%s TemperatureC:%g UVIndex:%d AirQuality:%s ObservedAt:%s}",
		r.Condition, r.TemperatureC, r.UVIndex, air, r.ObservedAt.Format(time.RFC3339))
}
