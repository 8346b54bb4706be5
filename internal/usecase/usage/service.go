package usage

import (
	"context"

	"github.com/kailas-cloud/rankdex/internal/metrics"
)

// Report is the user-facing AI quota report.
type Report struct {
	MinuteUsed  int     `json:"minute_used"`
	MinuteLimit int     `json:"minute_limit"`
	DayUsed     int     `json:"day_used"`
	DayLimit    int     `json:"day_limit"`
	WaitSeconds float64 `json:"wait_seconds"`
	Exhausted   bool    `json:"exhausted"`
}

// Service handles quota usage reporting.
type Service struct {
	quota QuotaReader
}

// New creates a Service. quota can be nil (no external AI configured).
func New(quota QuotaReader) *Service {
	return &Service{quota: quota}
}

// GetReport builds the current quota report and refreshes the gauges.
func (s *Service) GetReport(_ context.Context) Report {
	if s.quota == nil {
		return Report{}
	}

	u := s.quota.Snapshot()
	metrics.QuotaRemaining.WithLabelValues("minute").Set(float64(u.MinuteLimit - u.MinuteUsed))
	metrics.QuotaRemaining.WithLabelValues("day").Set(float64(u.DayLimit - u.DayUsed))

	return Report{
		MinuteUsed:  u.MinuteUsed,
		MinuteLimit: u.MinuteLimit,
		DayUsed:     u.DayUsed,
		DayLimit:    u.DayLimit,
		WaitSeconds: u.Wait.Seconds(),
		Exhausted:   u.DayUsed >= u.DayLimit || u.MinuteUsed >= u.MinuteLimit,
	}
}
