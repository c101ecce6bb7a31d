package notify

import (
	"fmt"
	"strconv"

	"weather-notifier/internal/weather"
)

// Summary is the title of every notification.
const Summary = "Weather Alert"

const airQualityMissing = "Not available"

// Render builds the notification body for a report.
func Render(r *weather.Report) string {
	air := r.AirQualityCategory()
	if r.AirQuality == nil {
		air = airQualityMissing
	}

	return fmt.Sprintf("Weather: %s\nTemperature: %s°C\nUV Index: %d\nAir Quality: %s",
		r.Condition, formatTemperature(r.TemperatureC), r.UVIndex, air)
}

// formatTemperature prints the shortest representation, so 20.0 becomes "20"
// and 15.5 stays "15.5".
func formatTemperature(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
