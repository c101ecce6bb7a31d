package weather

import (
	"reflect"
	"testing"
)

func TestIsSevere(t *testing.T) {
	tests := []struct {
		condition string
		want      bool
	}{
		{"Storm", true},
		{"Hail", true},
		{"Tornado", true},
		{"storm", false},
		{"TORNADO", false},
		{"Thunderstorm", false},
		{"Storm ", false},
		{"Sunny", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.condition, func(t *testing.T) {
			if got := IsSevere(&Report{Condition: tt.condition}); got != tt.want {
				t.Errorf("IsSevere(%q) = %v, want %v", tt.condition, got, tt.want)
			}
		})
	}
}

func TestIsHighUV(t *testing.T) {
	for uv := 0; uv <= 12; uv++ {
		want := uv >= 8
		if got := IsHighUV(&Report{UVIndex: uv}); got != want {
			t.Errorf("IsHighUV(%d) = %v, want %v", uv, got, want)
		}
	}
}

func TestIsPolluted(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   bool
	}{
		{name: "absent", report: Report{Condition: "Tornado", UVIndex: 11}, want: false},
		{name: "unhealthy", report: Report{AirQuality: &AirQuality{Category: "Unhealthy"}}, want: true},
		{name: "good", report: Report{AirQuality: &AirQuality{Category: "Good"}}, want: false},
		{name: "lowercase", report: Report{AirQuality: &AirQuality{Category: "unhealthy"}}, want: false},
		{name: "sensitive groups", report: Report{AirQuality: &AirQuality{Category: "Unhealthy for Sensitive Groups"}}, want: false},
		{name: "empty category", report: Report{AirQuality: &AirQuality{}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPolluted(&tt.report); got != tt.want {
				t.Errorf("IsPolluted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		report *Report
		want   []Condition
	}{
		{
			name:   "calm",
			report: &Report{Condition: "Sunny", UVIndex: 3, AirQuality: &AirQuality{Category: "Good"}},
			want:   nil,
		},
		{
			name:   "everything",
			report: &Report{Condition: "Tornado", UVIndex: 9, AirQuality: &AirQuality{Category: "Unhealthy"}},
			want:   []Condition{ConditionSevere, ConditionHighUV, ConditionPolluted},
		},
		{
			name:   "uv only",
			report: &Report{Condition: "Sunny", UVIndex: 8},
			want:   []Condition{ConditionHighUV},
		},
		{
			name:   "nil report",
			report: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.report); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}
