package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Record is anything the store can persist. Records within a series must be
// appended in ascending UnixMs order; the store never reorders them.
type Record interface {
	UnixMs() int64
}

// Options selects the retention policy for every series in a store.
//
// With MaxEntriesPerChunk > 0 a series rotates: the open chunk seals once it
// holds that many records and a new chunk opens. With WindowCap > 0 (and no
// chunking) a series keeps only the most recent WindowCap records in a single
// chunk file; older records are dropped on append.
type Options struct {
	MaxEntriesPerChunk int
	WindowCap          int
}

// Store is an append-only, chunked, durable time-series store. All series in
// one Store share a base directory and a retention policy; each series gets
// its own subdirectory of chunk files.
//
// A single mutex serializes every operation, so concurrent appenders cannot
// interleave writes to the same open chunk.
type Store[T Record] struct {
	log  *zap.Logger
	dir  string
	opts Options

	mu     sync.Mutex
	series map[string]*series[T]
}

type series[T Record] struct {
	chunkNum int
	open     []T
	last     *T
}

// New creates a store rooted at dir. Existing series are recovered lazily on
// first access; a missing directory is created on the first persisted append.
func New[T Record](log *zap.Logger, dir string, opts Options) *Store[T] {
	return &Store[T]{
		log:    log,
		dir:    dir,
		opts:   opts,
		series: make(map[string]*series[T]),
	}
}

// Append adds rec to the open chunk for seriesID and persists the chunk's
// full contents with a write-then-rename. A persist failure is returned for
// the caller to log; the in-memory series keeps the record, so only the
// durability of this one append is lost.
func (s *Store[T]) Append(seriesID string, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr := s.openSeries(seriesID)

	if s.opts.WindowCap > 0 {
		sr.open = append(sr.open, rec)
		if over := len(sr.open) - s.opts.WindowCap; over > 0 {
			sr.open = sr.open[over:]
		}
	} else {
		if s.opts.MaxEntriesPerChunk > 0 && len(sr.open) >= s.opts.MaxEntriesPerChunk {
			// The full chunk is already on disk; it seals by starting
			// the successor.
			sr.chunkNum++
			sr.open = nil
		}
		sr.open = append(sr.open, rec)
	}
	sr.last = &rec

	if err := s.writeChunk(seriesID, sr.chunkNum, sr.open); err != nil {
		return fmt.Errorf("persist chunk %d of series %q: %w", sr.chunkNum, seriesID, err)
	}
	return nil
}

// Query returns the tail of up to maxCount records with timestamp >= sinceMs,
// in ascending time order. Sealed chunks are re-read from disk on every call;
// reading has no side effect on stored data.
func (s *Store[T]) Query(seriesID string, sinceMs int64, maxCount int) []T {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr := s.openSeries(seriesID)

	var all []T
	sealed := sr.chunkNum
	if s.opts.WindowCap > 0 {
		// Windowed series serve only the retained tail, never old chunks.
		sealed = 0
	}
	for n := 0; n < sealed; n++ {
		chunk, err := s.readChunk(seriesID, n)
		if err != nil {
			s.log.Warn("store_read_chunk_failed",
				zap.String("series", seriesID),
				zap.Int("chunk", n),
				zap.Error(err),
			)
			continue
		}
		all = append(all, chunk...)
	}
	all = append(all, sr.open...)

	i := 0
	for i < len(all) && all[i].UnixMs() < sinceMs {
		i++
	}
	all = all[i:]
	if maxCount > 0 && len(all) > maxCount {
		all = all[len(all)-maxCount:]
	}
	out := make([]T, len(all))
	copy(out, all)
	return out
}

// Latest returns the most recently appended record of a series, or false when
// the series is empty. O(1) after the series is loaded.
func (s *Store[T]) Latest(seriesID string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sr := s.openSeries(seriesID)
	if sr.last == nil {
		var zero T
		return zero, false
	}
	return *sr.last, true
}

// openSeries returns the in-memory state for seriesID, recovering it from
// disk on first access. Callers must hold s.mu.
func (s *Store[T]) openSeries(seriesID string) *series[T] {
	if sr, ok := s.series[seriesID]; ok {
		return sr
	}

	sr := &series[T]{}
	s.series[seriesID] = sr

	highest, found := s.highestChunk(seriesID)
	if !found {
		return sr
	}
	open, err := s.readChunk(seriesID, highest)
	if err != nil {
		s.log.Warn("store_recover_failed",
			zap.String("series", seriesID),
			zap.Int("chunk", highest),
			zap.Error(err),
		)
		return sr
	}

	sr.chunkNum = highest
	sr.open = open
	if len(open) > 0 {
		last := open[len(open)-1]
		sr.last = &last
	}

	if s.opts.WindowCap > 0 {
		if over := len(sr.open) - s.opts.WindowCap; over > 0 {
			sr.open = sr.open[over:]
		}
	} else if s.opts.MaxEntriesPerChunk > 0 && len(sr.open) >= s.opts.MaxEntriesPerChunk {
		// The recovered chunk is already full: seal it and open an empty
		// successor so the open-chunk invariant holds from the start.
		sr.chunkNum++
		sr.open = nil
	}
	return sr
}

func (s *Store[T]) seriesDir(seriesID string) string {
	return filepath.Join(s.dir, seriesID)
}

func chunkName(n int) string {
	return fmt.Sprintf("chunk_%d.json", n)
}

// highestChunk scans a series directory for the highest chunk number.
// Ordering is derived from the parsed number, not the file name sort.
func (s *Store[T]) highestChunk(seriesID string) (int, bool) {
	entries, err := os.ReadDir(s.seriesDir(seriesID))
	if err != nil {
		return 0, false
	}
	highest, found := 0, false
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "chunk_") || !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "chunk_"), ".json"))
		if err != nil {
			continue
		}
		if !found || n > highest {
			highest, found = n, true
		}
	}
	return highest, found
}

func (s *Store[T]) readChunk(seriesID string, n int) ([]T, error) {
	data, err := os.ReadFile(filepath.Join(s.seriesDir(seriesID), chunkName(n)))
	if err != nil {
		return nil, err
	}
	var recs []T
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("parse chunk: %w", err)
	}
	return recs, nil
}

// writeChunk atomically replaces the chunk file: write a temp file in the
// same directory, then rename over the target. A crash mid-write leaves the
// previous contents intact.
func (s *Store[T]) writeChunk(seriesID string, n int, recs []T) error {
	dir := s.seriesDir(seriesID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure series directory: %w", err)
	}

	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode chunk: %w", err)
	}

	path := filepath.Join(dir, chunkName(n))
	tmp := fmt.Sprintf("%s.%d.tmp", path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp chunk: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace chunk file: %w", err)
	}
	return nil
}
