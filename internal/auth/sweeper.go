package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/garnizeh/polls/pkg/repository"
)

// Sweeper periodically purges expired sessions.
type Sweeper struct {
	repo     repository.SessionRepo
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func NewSweeper(repo repository.SessionRepo, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{repo: repo, interval: interval, logger: logger, now: time.Now, stop: make(chan struct{})}
}

// Start launches the sweeping goroutine
func (s *Sweeper) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop signals the sweeper to stop and waits for it
func (s *Sweeper) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// Sweep deletes expired sessions once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, s.now())
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.logger.Info("session sweeper stopping")
			return
		case <-ctx.Done():
			s.logger.Info("context canceled, session sweeper exiting")
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.logger.Error("sweep sessions", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Info("expired sessions removed", "count", n)
			}
		}
	}
}
