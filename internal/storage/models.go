package storage

import (
	"time"

	"gorm.io/gorm"
)

// stateID is the primary key of the only row in the state table. The table
// holds the latest report and running totals, never a history.
const stateID = 1

type State struct {
	gorm.Model
	LocationKey string `json:"location_key"`

	// Latest report
	Condition     string    `json:"condition"`
	TemperatureC  float64   `json:"temperature_c"`
	UVIndex       int       `json:"uv_index"`
	AirQuality    string    `json:"air_quality"`
	HasAirQuality bool      `json:"has_air_quality"`
	ObservedAt    time.Time `json:"observed_at"`

	// Last cycle
	LastCycleID string    `json:"last_cycle_id"`
	LastCycleAt time.Time `json:"last_cycle_at"`
	LastError   string    `json:"last_error"`

	// Totals
	Cycles               int64 `json:"cycles"`
	FetchFailures        int64 `json:"fetch_failures"`
	Notifications        int64 `json:"notifications"`
	NotificationFailures int64 `json:"notification_failures"`
}
