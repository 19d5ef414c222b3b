package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/loophound/internal/logging"
	"github.com/aretw0/loophound/pkg/domain"
)

// Session is the surface the controller drives. *loophound.Session
// satisfies it; tests may substitute their own.
type Session interface {
	Step(ctx context.Context) (domain.Outcome, error)
	Reset()
	State() *domain.RunState
}

// RoundObserver is invoked after every executed round with the outcome and
// a state snapshot. Presentation layers hang off this.
type RoundObserver func(outcome domain.Outcome, state *domain.RunState)

// Controller owns the stepping cadence of one session.
type Controller struct {
	session  Session
	logger   *slog.Logger
	observer RoundObserver

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// Option configures the controller.
type Option func(*Controller)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRoundObserver registers a per-round callback.
func WithRoundObserver(fn RoundObserver) Option {
	return func(c *Controller) {
		c.observer = fn
	}
}

// NewController creates a controller over a session.
func NewController(session Session, opts ...Option) *Controller {
	c := &Controller{
		session: session,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StepOnce executes exactly one round and reports its outcome. Safe to call
// while auto-progress runs: the session serializes rounds internally.
func (c *Controller) StepOnce(ctx context.Context) (domain.Outcome, error) {
	outcome, err := c.session.Step(ctx)
	if err != nil {
		return outcome, err
	}
	if c.observer != nil {
		c.observer(outcome, c.session.State())
	}
	return outcome, nil
}

// StartAuto repeatedly invokes StepOnce on a fixed period until a terminal
// outcome is reported, the context is canceled, or Stop is called. Only one
// auto-progress may run at a time.
func (c *Controller) StartAuto(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return fmt.Errorf("auto-progress already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.running = true

	go c.autoLoop(runCtx, interval, done)
	return nil
}

func (c *Controller) autoLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			outcome, err := c.StepOnce(ctx)
			if err != nil {
				if err != domain.ErrRunTerminated && ctx.Err() == nil {
					c.logger.Error("auto-progress round failed", "err", err)
				}
				return
			}
			if outcome.Terminal() {
				c.logger.Info("auto-progress reached terminal outcome", "outcome", outcome)
				return
			}
		}
	}
}

// Stop cancels any pending auto-progress and waits for the loop to drain.
// Stopping an idle controller is a no-op; Stop is idempotent.
func (c *Controller) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether an auto-progress loop is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Reset cancels any in-flight auto-progress and reinitializes the session's
// agents at the start node.
func (c *Controller) Reset() {
	c.Stop()
	c.session.Reset()
}
