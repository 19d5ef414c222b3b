package runner_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/loophound"
	"github.com/aretw0/loophound/pkg/domain"
	"github.com/aretw0/loophound/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSession terminates after a fixed number of rounds.
type stubSession struct {
	mu          sync.Mutex
	steps       int
	terminateAt int
	state       *domain.RunState
}

func newStubSession(terminateAt int) *stubSession {
	return &stubSession{
		terminateAt: terminateAt,
		state:       domain.NewRunState(1, 0),
	}
}

func (s *stubSession) Step(ctx context.Context) (domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Terminated() {
		return s.state.Outcome, domain.ErrRunTerminated
	}
	s.steps++
	s.state.Rounds++
	if s.steps >= s.terminateAt {
		s.state.Status = domain.StatusAllFinished
		s.state.Outcome = domain.OutcomeAllFinished
		return domain.OutcomeAllFinished, nil
	}
	return domain.OutcomeContinue, nil
}

func (s *stubSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = 0
	s.state = domain.NewRunState(1, 0)
}

func (s *stubSession) State() *domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *stubSession) stepCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

func TestController_StepOnceNotifiesObserver(t *testing.T) {
	sess := newStubSession(10)
	var observed []domain.Outcome
	ctrl := runner.NewController(sess, runner.WithRoundObserver(func(o domain.Outcome, state *domain.RunState) {
		observed = append(observed, o)
		require.NotNil(t, state)
	}))

	outcome, err := ctrl.StepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeContinue, outcome)
	assert.Equal(t, []domain.Outcome{domain.OutcomeContinue}, observed)
}

func TestController_AutoProgressStopsOnTerminalOutcome(t *testing.T) {
	sess := newStubSession(3)
	ctrl := runner.NewController(sess)

	require.NoError(t, ctrl.StartAuto(context.Background(), time.Millisecond))

	assert.Eventually(t, func() bool {
		return sess.State().Terminated() && !ctrl.Running()
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, sess.stepCount(), "loop exits on the terminal round, not after")
}

func TestController_StopCancelsPendingProgress(t *testing.T) {
	sess := newStubSession(1_000_000)
	ctrl := runner.NewController(sess)

	require.NoError(t, ctrl.StartAuto(context.Background(), time.Millisecond))
	assert.Eventually(t, func() bool { return sess.stepCount() > 0 }, time.Second, time.Millisecond)

	ctrl.Stop()
	assert.False(t, ctrl.Running())

	settled := sess.stepCount()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, settled, sess.stepCount(), "no rounds after Stop returns")
}

func TestController_StopIsIdempotent(t *testing.T) {
	ctrl := runner.NewController(newStubSession(5))

	// Stopping an idle controller must not block or panic.
	ctrl.Stop()

	require.NoError(t, ctrl.StartAuto(context.Background(), time.Millisecond))
	ctrl.Stop()
	ctrl.Stop()
	assert.False(t, ctrl.Running())
}

func TestController_RejectsConcurrentAutoProgress(t *testing.T) {
	sess := newStubSession(1_000_000)
	ctrl := runner.NewController(sess)
	defer ctrl.Stop()

	require.NoError(t, ctrl.StartAuto(context.Background(), time.Millisecond))
	assert.Error(t, ctrl.StartAuto(context.Background(), time.Millisecond))
}

func TestController_RestartAfterTerminal(t *testing.T) {
	sess := newStubSession(2)
	ctrl := runner.NewController(sess)

	require.NoError(t, ctrl.StartAuto(context.Background(), time.Millisecond))
	assert.Eventually(t, func() bool { return !ctrl.Running() }, time.Second, time.Millisecond)

	// Reset clears the terminal state and a fresh loop may start.
	ctrl.Reset()
	require.False(t, sess.State().Terminated())
	require.NoError(t, ctrl.StartAuto(context.Background(), time.Millisecond))
	ctrl.Stop()
}

func TestController_RejectsNonPositiveInterval(t *testing.T) {
	ctrl := runner.NewController(newStubSession(5))
	assert.Error(t, ctrl.StartAuto(context.Background(), 0))
	assert.Error(t, ctrl.StartAuto(context.Background(), -time.Second))
}

func TestController_DrivesRealSessionToCompletion(t *testing.T) {
	nodes := make([]domain.Node, 0, 4)
	edges := make([]domain.Edge, 0, 3)
	for i := 0; i < 4; i++ {
		nodes = append(nodes, domain.Node{ID: i, Label: fmt.Sprintf("N%d", i)})
		if i > 0 {
			edges = append(edges, domain.Edge{SourceID: i - 1, TargetID: i})
		}
	}
	g, err := domain.NewGraph(nodes, edges)
	require.NoError(t, err)

	sess, err := loophound.New(g, loophound.WithPrograms("S"))
	require.NoError(t, err)

	ctrl := runner.NewController(sess)
	require.NoError(t, ctrl.StartAuto(context.Background(), time.Millisecond))

	assert.Eventually(t, func() bool {
		return sess.Outcome() == domain.OutcomeAllFinished
	}, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool { return !ctrl.Running() }, time.Second, time.Millisecond)
}
