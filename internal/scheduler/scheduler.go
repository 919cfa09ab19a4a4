package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"netwatch/internal/alert"
	"netwatch/internal/domain"
	"netwatch/internal/monitor"
	"netwatch/internal/notify"
	"netwatch/internal/probe"
	"netwatch/internal/sysinfo"
)

// Scheduler drives the two periodic jobs: probing every configured target and
// sampling host metrics. It owns notification dispatch; the state machine
// only decides.
type Scheduler struct {
	Logger      *zap.Logger
	Targets     []domain.Target
	Prober      probe.Prober
	Service     *monitor.Service
	States      *alert.StateMachine
	Notifier    notify.Notifier
	Sampler     sysinfo.Sampler
	ProbeEvery  time.Duration
	SampleEvery time.Duration
	Concurrency int

	cron   *cron.Cron
	cancel context.CancelFunc
}

func New(
	logger *zap.Logger,
	targets []domain.Target,
	prober probe.Prober,
	svc *monitor.Service,
	states *alert.StateMachine,
	notifier notify.Notifier,
	sampler sysinfo.Sampler,
	probeEvery, sampleEvery time.Duration,
	concurrency int,
) *Scheduler {
	if probeEvery <= 0 {
		probeEvery = 60 * time.Second
	}
	if sampleEvery <= 0 {
		sampleEvery = time.Second
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		Logger:      logger,
		Targets:     targets,
		Prober:      prober,
		Service:     svc,
		States:      states,
		Notifier:    notifier,
		Sampler:     sampler,
		ProbeEvery:  probeEvery,
		SampleEvery: sampleEvery,
		Concurrency: concurrency,
	}
}

// Start seeds per-target notification state from the stored series, runs an
// immediate probe pass, then schedules both jobs. SkipIfStillRunning keeps
// ticks from overlapping, which also guarantees no two probes for the same
// target ever run at once.
func (s *Scheduler) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	for _, t := range s.Targets {
		if last, ok := s.Service.LatestResult(t.ID); ok {
			s.States.Restore(t.ID, last)
		}
	}

	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := s.cron.AddFunc(every(s.ProbeEvery), func() { s.probeTick(ctx) }); err != nil {
		return fmt.Errorf("schedule probe job: %w", err)
	}
	if _, err := s.cron.AddFunc(every(s.SampleEvery), func() { s.sampleTick() }); err != nil {
		return fmt.Errorf("schedule sample job: %w", err)
	}

	s.probeTick(ctx)
	s.sampleTick()
	s.cron.Start()

	s.Logger.Info("scheduler_started",
		zap.Duration("probe_every", s.ProbeEvery),
		zap.Duration("sample_every", s.SampleEvery),
		zap.Int("targets", len(s.Targets)),
		zap.Int("concurrency", s.Concurrency),
	)
	return nil
}

// Stop guarantees no further ticks fire and waits, bounded by ctx, for any
// in-flight tick to finish. Safe to call on every exit path.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	done := s.cron.Stop()
	if s.cancel != nil {
		s.cancel()
	}
	select {
	case <-done.Done():
		s.Logger.Info("scheduler_stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

func every(d time.Duration) string {
	return "@every " + d.String()
}

// probeTick probes every target through a bounded worker pool. Each target is
// handled start to finish by one worker — probe, append, evaluate, notify —
// so its series order and state-machine order always match.
func (s *Scheduler) probeTick(ctx context.Context) {
	if len(s.Targets) == 0 {
		return
	}

	sem := make(chan struct{}, s.Concurrency)
	var wg sync.WaitGroup

	for _, tgt := range s.Targets {
		t := tgt
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			s.probeOne(ctx, t)
		}()
	}
	wg.Wait()
}

func (s *Scheduler) probeOne(ctx context.Context, t domain.Target) {
	r := s.Prober.Probe(ctx, t)
	if ctx.Err() != nil {
		// The tick was abandoned mid-probe: this result reflects the
		// shutdown, not the target. Recording it would append a spurious
		// down and commit a transition the target never made.
		s.Logger.Debug("probe_abandoned", zap.String("target_id", t.ID))
		return
	}
	s.Service.RecordResult(t.ID, r)

	s.Logger.Debug("target_probed",
		zap.String("target_id", t.ID),
		zap.String("url", t.URL),
		zap.Bool("up", r.Up),
		zap.Int("status", r.StatusCode),
		zap.Int64("response_ms", r.ResponseTimeMs),
		zap.String("error", r.Error),
	)

	kind, ok := s.States.Evaluate(t.ID, r)
	if !ok {
		return
	}

	n := notify.ForEvent(t, kind, r)
	if err := s.Notifier.Send(ctx, n); err != nil {
		// The transition is already committed; a lost notification stays
		// lost rather than re-firing every tick.
		s.Logger.Warn("notify_failed",
			zap.String("target_id", t.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return
	}
	s.Logger.Info("notified",
		zap.String("target_id", t.ID),
		zap.String("kind", string(kind)),
		zap.String("severity", n.Severity),
	)
}

func (s *Scheduler) sampleTick() {
	s.Service.RecordSample(s.Sampler.Sample())
}
