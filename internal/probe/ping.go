package probe

import (
	"context"
	"net/url"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"netwatch/internal/domain"
)

const pingWait = time.Second

var pingTimeRe = regexp.MustCompile(`time[=<]([\d.]+)\s*ms`)

// ping performs one ICMP round trip by shelling out to the platform ping
// binary. Success is decided by the exit code so the probe tolerates the
// different output formats across platforms; the reported latency is parsed
// from the output when present and falls back to wall clock.
func (e *Executor) ping(ctx context.Context, t domain.Target) domain.ProbeResult {
	res := domain.ProbeResult{TimestampMs: time.Now().UnixMilli()}

	host := pingHost(t.URL)
	cctx, cancel := context.WithTimeout(ctx, pingWait+500*time.Millisecond)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cctx, "ping", "-n", "1", "-w", "1000", host)
	} else {
		cmd = exec.CommandContext(cctx, "ping", "-c", "1", "-W", "1", host)
	}

	start := time.Now()
	out, err := cmd.CombinedOutput()
	if err != nil {
		// Covers both an unreachable host (non-zero exit) and a missing
		// ping binary; either way the target counts as down.
		res.Error = strings.TrimSpace(firstLine(string(out)))
		if res.Error == "" {
			res.Error = err.Error()
		}
		return res
	}

	res.Up = true
	if ms, ok := parsePingTime(string(out)); ok {
		res.ResponseTimeMs = ms
	} else {
		res.ResponseTimeMs = time.Since(start).Milliseconds()
	}
	return res
}

// pingHost strips any URL scheme/path so configs may list either a bare host
// or a full URL for ICMP targets.
func pingHost(raw string) string {
	if !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	return u.Hostname()
}

func parsePingTime(out string) (int64, bool) {
	m := pingTimeRe.FindStringSubmatch(out)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
