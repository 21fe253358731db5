package fraud

import "time"

type AlertType string

const (
	AlertHighHours    AlertType = "high_hours"
	AlertAnomalySpike AlertType = "anomaly_spike"
	AlertZeroStreak   AlertType = "zero_streak"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Alert is one suspicious pattern in a participant's raw hours.
type Alert struct {
	ID            string
	ParticipantID int64
	Phone         string
	Type          AlertType
	Severity      Severity
	Message       string
	Date          time.Time
	Data          map[string]any
}

// Thresholds tune the three scans.
type Thresholds struct {
	DailyHours        float64
	HighHoursWindow   int
	AnomalyMultiplier float64
	AnomalyWindow     int
	ZeroStreakDays    int
	ZeroStreakWindow  int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DailyHours:        16,
		HighHoursWindow:   7,
		AnomalyMultiplier: 4.7,
		AnomalyWindow:     7,
		ZeroStreakDays:    7,
		ZeroStreakWindow:  14,
	}
}

// LookbackDays is how far back a caller must load hours for Scan.
func (t Thresholds) LookbackDays() int {
	return max(t.HighHoursWindow, t.AnomalyWindow, t.ZeroStreakWindow)
}
