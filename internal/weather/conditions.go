package weather

// Condition names an alert raised by a report.
type Condition string

const (
	ConditionSevere   Condition = "severe_weather"
	ConditionHighUV   Condition = "high_uv"
	ConditionPolluted Condition = "polluted_air"
)

const (
	highUVThreshold   = 8
	unhealthyAirLabel = "Unhealthy"
)

var severeConditions = map[string]struct{}{
	"Storm":   {},
	"Hail":    {},
	"Tornado": {},
}

// IsSevere matches the condition text exactly, case included.
func IsSevere(r *Report) bool {
	if r == nil {
		return false
	}
	_, ok := severeConditions[r.Condition]
	return ok
}

func IsHighUV(r *Report) bool {
	return r != nil && r.UVIndex >= highUVThreshold
}

func IsPolluted(r *Report) bool {
	return r.AirQualityCategory() == unhealthyAirLabel
}

// Evaluate returns the triggered conditions in a fixed order: severe, high
// UV, polluted. The checks are independent of each other.
func Evaluate(r *Report) []Condition {
	var out []Condition
	if IsSevere(r) {
		out = append(out, ConditionSevere)
	}
	if IsHighUV(r) {
		out = append(out, ConditionHighUV)
	}
	if IsPolluted(r) {
		out = append(out, ConditionPolluted)
	}
	return out
}

// Message is the log line printed when the condition is detected.
func (c Condition) Message() string {
	switch c {
	case ConditionSevere:
		return "Severe weather detected!"
	case ConditionHighUV:
		return "High UV detected!"
	case ConditionPolluted:
		return "Polluted air detected!"
	default:
		return string(c)
	}
}
