package sysinfo

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"netwatch/internal/domain"
)

// Sampler produces one host metrics snapshot per call.
type Sampler interface {
	Sample() domain.StatusSample
}

// ProcSampler reads Linux /proc counters. CPU usage and network rates are
// deltas between consecutive samples, so the first sample reports zero for
// both. Any counter that cannot be read leaves its field at zero; sampling
// itself never fails.
type ProcSampler struct {
	root string

	mu       sync.Mutex
	lastAt   time.Time
	lastBusy uint64
	lastTot  uint64
	lastRx   uint64
	lastTx   uint64
}

func NewProcSampler() *ProcSampler {
	return &ProcSampler{root: "/proc"}
}

func (p *ProcSampler) Sample() domain.StatusSample {
	now := time.Now()
	s := domain.StatusSample{TimestampMs: now.UnixMilli()}

	s.UptimeSec = p.readUptime()
	s.LoadAverage = p.readLoadAvg()
	s.FreeMemBytes, s.TotalMemBytes = p.readMemInfo()

	p.mu.Lock()
	defer p.mu.Unlock()

	busy, tot := p.readCPUTimes()
	if p.lastTot > 0 && tot > p.lastTot {
		s.CPUUsage = float64(busy-p.lastBusy) / float64(tot-p.lastTot)
	}
	p.lastBusy, p.lastTot = busy, tot

	rx, tx := p.readNetTotals()
	if !p.lastAt.IsZero() {
		elapsed := now.Sub(p.lastAt).Seconds()
		if elapsed > 0 && rx >= p.lastRx && tx >= p.lastTx {
			s.NetInBytesPerSec = float64(rx-p.lastRx) / elapsed
			s.NetOutBytesPerSec = float64(tx-p.lastTx) / elapsed
		}
	}
	p.lastRx, p.lastTx, p.lastAt = rx, tx, now

	return s
}

func (p *ProcSampler) readFile(name string) string {
	data, err := os.ReadFile(filepath.Join(p.root, name))
	if err != nil {
		return ""
	}
	return string(data)
}

func (p *ProcSampler) readUptime() int64 {
	fields := strings.Fields(p.readFile("uptime"))
	if len(fields) == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

func (p *ProcSampler) readLoadAvg() [3]float64 {
	var out [3]float64
	fields := strings.Fields(p.readFile("loadavg"))
	for i := 0; i < 3 && i < len(fields); i++ {
		out[i], _ = strconv.ParseFloat(fields[i], 64)
	}
	return out
}

func (p *ProcSampler) readMemInfo() (free, total uint64) {
	for _, line := range strings.Split(p.readFile("meminfo"), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = kb * 1024
		case "MemAvailable:":
			free = kb * 1024
		}
	}
	return free, total
}

// readCPUTimes returns aggregate busy and total jiffies from the first line
// of /proc/stat.
func (p *ProcSampler) readCPUTimes() (busy, total uint64) {
	for _, line := range strings.Split(p.readFile("stat"), "\n") {
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)[1:]
		for i, f := range fields {
			v, err := strconv.ParseUint(f, 10, 64)
			if err != nil {
				continue
			}
			total += v
			// fields 3 and 4 are idle and iowait
			if i != 3 && i != 4 {
				busy += v
			}
		}
		break
	}
	return busy, total
}

// readNetTotals sums receive and transmit bytes over all interfaces except
// loopback.
func (p *ProcSampler) readNetTotals() (rx, tx uint64) {
	lines := strings.Split(p.readFile("net/dev"), "\n")
	for _, line := range lines {
		idx := strings.IndexByte(line, ':')
		if idx < 0 {
			continue
		}
		iface := strings.TrimSpace(line[:idx])
		if iface == "lo" {
			continue
		}
		fields := strings.Fields(line[idx+1:])
		if len(fields) < 9 {
			continue
		}
		if v, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
			rx += v
		}
		if v, err := strconv.ParseUint(fields[8], 10, 64); err == nil {
			tx += v
		}
	}
	return rx, tx
}
