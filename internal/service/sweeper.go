package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/socialgraph/internal/repository"
)

const (
	DefaultSweepInterval  = 10 * time.Minute
	DefaultSweepRetention = 24 * time.Hour

	sweepTimeout = 30 * time.Second
)

// Sweeper periodically deletes OTP challenges and refresh tokens whose
// expiry is older than the retention window.
type Sweeper struct {
	otps      repository.OTPRepository
	refresh   repository.RefreshTokenRepository
	interval  time.Duration
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewSweeper(
	otps repository.OTPRepository,
	refresh repository.RefreshTokenRepository,
	interval, retention time.Duration,
	logger *slog.Logger,
) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if retention <= 0 {
		retention = DefaultSweepRetention
	}
	return &Sweeper{
		otps:      otps,
		refresh:   refresh,
		interval:  interval,
		retention: retention,
		now:       time.Now,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start launches the background loop. Calling it again is a no-op.
func (s *Sweeper) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting expired record sweeper",
			slog.Duration("interval", s.interval),
			slog.Duration("retention", s.retention),
		)
		s.wg.Add(1)
		go s.loop()
	})
}

// Stop signals the loop to exit and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("stopping expired record sweeper")
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Sweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			s.SweepOnce(ctx)
			cancel()
		}
	}
}

// SweepOnce runs a single pass and returns how many challenges and refresh
// tokens it removed. Failures are logged; the next tick tries again.
func (s *Sweeper) SweepOnce(ctx context.Context) (challenges, tokens int64) {
	cutoff := s.now().Add(-s.retention)

	challenges, err := s.otps.DeleteChallengesExpiredBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweeping otp challenges failed", slog.String("error", err.Error()))
	}

	tokens, err = s.refresh.DeleteRefreshTokensExpiredBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("sweeping refresh tokens failed", slog.String("error", err.Error()))
	}

	if challenges > 0 || tokens > 0 {
		s.logger.Info("swept expired records",
			slog.Int64("otp_challenges", challenges),
			slog.Int64("refresh_tokens", tokens),
		)
	}
	return challenges, tokens
}
