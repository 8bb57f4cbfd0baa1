package wizard

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Submitter performs the single network submission of the accumulated data.
type Submitter interface {
	Submit(ctx context.Context, data Data) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, data Data) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, data Data) error {
	return f(ctx, data)
}

// Runner drives a Driver through its step handlers and performs the terminal submission.
type Runner[K ~string] struct {
	driver     *Driver[K]
	submitter  Submitter
	onComplete func(context.Context, State[K])
	onNotice   func(K, error)
	logger     *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption[K ~string] func(*Runner[K])

// OnComplete is called once after a successful submission.
func OnComplete[K ~string](fn func(context.Context, State[K])) RunnerOption[K] {
	return func(r *Runner[K]) { r.onComplete = fn }
}

// OnNotice is called for recoverable step problems (an unmet gate) before the step runs again.
func OnNotice[K ~string](fn func(K, error)) RunnerOption[K] {
	return func(r *Runner[K]) { r.onNotice = fn }
}

// WithRunnerLogger sets the runner's logger.
func WithRunnerLogger[K ~string](logger *zap.Logger) RunnerOption[K] {
	return func(r *Runner[K]) { r.logger = logger }
}

// NewRunner binds a driver to a submitter.
func NewRunner[K ~string](driver *Driver[K], submitter Submitter, opts ...RunnerOption[K]) *Runner[K] {
	r := &Runner[K]{
		driver:    driver,
		submitter: submitter,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner[K]) Driver() *Driver[K] { return r.driver }

// Advance moves forward once, submitting when the terminal step is left.
func (r *Runner[K]) Advance(ctx context.Context) error {
	t, err := r.driver.Advance(ctx)
	if err != nil {
		return err
	}
	if !t.Submit {
		return nil
	}
	return r.submit(ctx)
}

// Run executes step handlers until the wizard completes. A submission failure is
// returned with the wizard parked on its terminal step; calling Run again resumes
// there and submits anew.
func (r *Runner[K]) Run(ctx context.Context) error {
	for !r.driver.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := r.driver.Current()
		step, err := r.driver.Registry().Lookup(key)
		if err != nil {
			return err
		}
		if step.Handler == nil {
			return fmt.Errorf("step %q has no handler", key)
		}

		partial, err := step.Handler.Run(ctx, r.driver.State().Data)
		switch {
		case errors.Is(err, ErrBack):
			if !r.driver.Retreat(ctx) {
				return ErrBack
			}
			continue
		case errors.Is(err, ErrAbandon):
			r.driver.Reset(ctx)
			return ErrAbandon
		case err != nil:
			return fmt.Errorf("step %q: %w", key, err)
		}

		t, err := r.driver.Complete(ctx, partial)
		if errors.Is(err, ErrGateNotSatisfied) {
			r.logger.Debug("Step gate not satisfied", zap.String("step", string(key)), zap.Error(err))
			if r.onNotice != nil {
				r.onNotice(key, err)
			}
			continue
		}
		if err != nil {
			return err
		}
		if t.Submit {
			if err := r.submit(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner[K]) submit(ctx context.Context) error {
	err := r.submitter.Submit(ctx, r.driver.State().Data)
	r.driver.Resolve(ctx, err)
	if err != nil {
		r.logger.Info("Submission failed", zap.Error(err))
		return fmt.Errorf("submission failed: %w", err)
	}
	r.logger.Info("Submission accepted")
	if r.onComplete != nil {
		r.onComplete(ctx, r.driver.State())
	}
	return nil
}
