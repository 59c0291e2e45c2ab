package core

import (
	"context"
	"sync"
)

type Environment interface {
	Reset() (State, error)
	// Step returns the next state, the reward and whether the episode is over
	Step(Action, *StepContext) (State, float64, bool, error)
}

type State interface {
	Hash() string
	Actions() []Action
}

type Action interface {
	Hash() string
}

type EpisodeContext struct {
	Context       context.Context
	Episode       int
	Horizon       int
	Run           int
	Experiment    string
	StartTimeStep int

	Trace *Trace

	err      error
	timeout  bool
	doneCh   chan struct{}
	doneOnce sync.Once
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Trace:   NewTrace(),
		doneCh:  make(chan struct{}),
	}
}

// Error ends the episode with err. Only the first of Error, Timeout and Finish has an effect.
func (e *EpisodeContext) Error(err error) {
	e.doneOnce.Do(func() {
		e.err = err
		e.Trace.SetError(err)
		close(e.doneCh)
	})
}

func (e *EpisodeContext) Timeout() {
	e.doneOnce.Do(func() {
		e.timeout = true
		e.Trace.SetError(context.DeadlineExceeded)
		close(e.doneCh)
	})
}

func (e *EpisodeContext) Finish() {
	e.doneOnce.Do(func() {
		close(e.doneCh)
	})
}

func (e *EpisodeContext) IsError() bool {
	return e.err != nil
}

func (e *EpisodeContext) Err() error {
	return e.err
}

func (e *EpisodeContext) IsTimeout() bool {
	return e.timeout
}

func (e *EpisodeContext) Done() <-chan struct{} {
	return e.doneCh
}

type StepContext struct {
	Step int
	*EpisodeContext
}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment with the given instance number.
	// The same instance number must give an identically seeded environment.
	NewEnvironment(int) Environment
}
