package service

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultExpirerInterval = 5 * time.Minute
	DefaultSessionIdleTTL  = 1 * time.Hour
)

// ExpirerService evicts learner sessions that stopped receiving
// interactions.
type ExpirerService struct {
	sessions *SessionService
	logger   *zap.Logger
	ttl      time.Duration

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewExpirerService(sessions *SessionService, ttl time.Duration, logger *zap.Logger) *ExpirerService {
	if ttl <= 0 {
		ttl = DefaultSessionIdleTTL
	}
	return &ExpirerService{
		sessions: sessions,
		logger:   logger,
		ttl:      ttl,
		interval: defaultExpirerInterval,
		stopCh:   make(chan struct{}),
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *ExpirerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("session expirer started", zap.Duration("interval", s.interval), zap.Duration("ttl", s.ttl))

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopCh:
				s.logger.Info("session expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *ExpirerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ExpirerService) run() {
	if n := s.sessions.Sweep(s.ttl); n > 0 {
		s.logger.Info("expired idle sessions", zap.Int("count", n))
	}
}
