package domain

import "time"

// ProbeMethod selects how a target is checked.
type ProbeMethod string

const (
	MethodHTTPGet  ProbeMethod = "http-get"
	MethodHTTPPost ProbeMethod = "http-post"
	MethodHTTPHead ProbeMethod = "http-head"
	MethodICMP     ProbeMethod = "icmp"
)

// Target is one configured endpoint to probe. The target set is loaded once
// at process start and is immutable for the lifetime of the run.
type Target struct {
	ID             string            `json:"id"`
	DisplayName    string            `json:"displayName,omitempty"`
	URL            string            `json:"url"`
	Method         ProbeMethod       `json:"method"`
	TimeoutMs      int               `json:"timeoutMs,omitempty"`
	Headers        map[string]string `json:"headers,omitempty"`
	ExpectedStatus int               `json:"expectedStatus,omitempty"`
}

// Timeout returns the per-probe deadline, falling back to 10s when the
// target does not configure one.
func (t Target) Timeout() time.Duration {
	if t.TimeoutMs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(t.TimeoutMs) * time.Millisecond
}

// Name returns the display name, or the id when none is set.
func (t Target) Name() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.ID
}

// ProbeResult is the normalized outcome of a single probe. All failure modes
// (refused connection, timeout, DNS error, bad status) are captured in the
// fields; probing never surfaces a Go error.
type ProbeResult struct {
	TimestampMs    int64  `json:"timestampMs"`
	Up             bool   `json:"up"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	StatusCode     int    `json:"statusCode,omitempty"`
	ServerInfo     string `json:"serverInfo,omitempty"`
	Error          string `json:"error,omitempty"`
}

// UnixMs reports the record timestamp in milliseconds since the epoch.
func (r ProbeResult) UnixMs() int64 { return r.TimestampMs }
