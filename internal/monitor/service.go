package monitor

import (
	"time"

	"go.uber.org/zap"

	"netwatch/internal/domain"
	"netwatch/internal/store"
	"netwatch/internal/sysinfo"
)

// SystemSeries is the reserved series id for host status samples.
const SystemSeries = "system"

// Service owns the two time-series stores and answers every read the query
// API needs. The scheduler is its only writer.
type Service struct {
	log     *zap.Logger
	targets []domain.Target
	ping    *store.Store[domain.ProbeResult]
	status  *store.Store[domain.StatusSample]
	sampler sysinfo.Sampler
}

func NewService(
	log *zap.Logger,
	targets []domain.Target,
	ping *store.Store[domain.ProbeResult],
	status *store.Store[domain.StatusSample],
	sampler sysinfo.Sampler,
) *Service {
	return &Service{
		log:     log,
		targets: targets,
		ping:    ping,
		status:  status,
		sampler: sampler,
	}
}

// RecordResult appends a probe result to the target's series. Storage
// failures are logged and swallowed: durability for one append is a lesser
// loss than a dead monitoring loop.
func (s *Service) RecordResult(targetID string, r domain.ProbeResult) {
	if err := s.ping.Append(targetID, r); err != nil {
		s.log.Warn("result_append_failed", zap.String("target_id", targetID), zap.Error(err))
	}
}

// RecordSample appends one host status sample to the system series.
func (s *Service) RecordSample(sample domain.StatusSample) {
	if err := s.status.Append(SystemSeries, sample); err != nil {
		s.log.Warn("sample_append_failed", zap.Error(err))
	}
}

// Targets returns the configured target set.
func (s *Service) Targets() []domain.Target {
	out := make([]domain.Target, len(s.targets))
	copy(out, s.targets)
	return out
}

// LatestResult returns the most recent probe result for one target.
func (s *Service) LatestResult(targetID string) (domain.ProbeResult, bool) {
	return s.ping.Latest(targetID)
}

// LatestStatus returns the most recent host sample. When the series is still
// empty it synchronously samples, records, and returns that sample — one
// pass, no re-entry.
func (s *Service) LatestStatus() domain.StatusSample {
	if sample, ok := s.status.Latest(SystemSeries); ok {
		return sample
	}
	sample := s.sampler.Sample()
	s.RecordSample(sample)
	return sample
}

// ResultsHistory returns up to maxCount results for a target from the last
// sinceDays days, ascending. sinceDays <= 0 means the full retained window.
func (s *Service) ResultsHistory(targetID string, sinceDays, maxCount int) []domain.ProbeResult {
	return s.ping.Query(targetID, sinceMs(sinceDays), maxCount)
}

// History bundles the status series tail with, optionally, each target's
// ping history over the same window.
type History struct {
	Status []domain.StatusSample           `json:"status"`
	Ping   map[string][]domain.ProbeResult `json:"ping,omitempty"`
}

func (s *Service) History(sinceDays, maxCount int, includePing bool) History {
	h := History{Status: s.status.Query(SystemSeries, sinceMs(sinceDays), maxCount)}
	if includePing {
		h.Ping = make(map[string][]domain.ProbeResult, len(s.targets))
		for _, t := range s.targets {
			h.Ping[t.ID] = s.ping.Query(t.ID, sinceMs(sinceDays), maxCount)
		}
	}
	return h
}

// TargetUptime summarises one target's availability over a window.
type TargetUptime struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	UptimePercent float64 `json:"uptimePercent"`
	AvgResponseMs float64 `json:"avgResponseMs"`
	Checks        int     `json:"checks"`
}

// UptimeStats aggregates per-target uptime over the last days days.
func (s *Service) UptimeStats(days int) []TargetUptime {
	out := make([]TargetUptime, 0, len(s.targets))
	for _, t := range s.targets {
		results := s.ping.Query(t.ID, sinceMs(days), 0)
		out = append(out, TargetUptime{
			ID:            t.ID,
			Name:          t.Name(),
			UptimePercent: uptimePercent(results),
			AvgResponseMs: avgResponse(results),
			Checks:        len(results),
		})
	}
	return out
}

// UptimePercentage is up-count over total, as a percentage; 0 for an empty
// window.
func (s *Service) UptimePercentage(targetID string, days int) float64 {
	return uptimePercent(s.ping.Query(targetID, sinceMs(days), 0))
}

// AverageResponseTime is the mean response time over up results in the
// window; 0 when there are none.
func (s *Service) AverageResponseTime(targetID string, days int) float64 {
	return avgResponse(s.ping.Query(targetID, sinceMs(days), 0))
}

func uptimePercent(results []domain.ProbeResult) float64 {
	if len(results) == 0 {
		return 0
	}
	up := 0
	for _, r := range results {
		if r.Up {
			up++
		}
	}
	return float64(up) / float64(len(results)) * 100
}

func avgResponse(results []domain.ProbeResult) float64 {
	var sum int64
	n := 0
	for _, r := range results {
		if r.Up {
			sum += r.ResponseTimeMs
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func sinceMs(days int) int64 {
	if days <= 0 {
		return 0
	}
	return time.Now().Add(-time.Duration(days) * 24 * time.Hour).UnixMilli()
}
