package domain

// StatusSample is one host metrics snapshot. Samples are append-only; once
// written to the system-status series they are never modified.
type StatusSample struct {
	TimestampMs       int64      `json:"timestampMs"`
	UptimeSec         int64      `json:"uptimeSec"`
	LoadAverage       [3]float64 `json:"loadAverage"`
	FreeMemBytes      uint64     `json:"freeMemBytes"`
	TotalMemBytes     uint64     `json:"totalMemBytes"`
	CPUUsage          float64    `json:"cpuUsage"`
	NetInBytesPerSec  float64    `json:"netInBytesPerSec"`
	NetOutBytesPerSec float64    `json:"netOutBytesPerSec"`
}

// UnixMs reports the record timestamp in milliseconds since the epoch.
func (s StatusSample) UnixMs() int64 { return s.TimestampMs }
