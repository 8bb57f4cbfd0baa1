package wizard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Phase is the lifecycle position of a wizard beyond its current step.
type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseComplete   Phase = "complete"
	PhaseFailed     Phase = "failed"
	PhaseAbandoned  Phase = "abandoned"
)

// StateStore persists wizard snapshots under a per-flow key.
type StateStore interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, blob []byte) error
	Clear(ctx context.Context, key string) error
}

// Transition describes the effect of a forward move.
type Transition[K ~string] struct {
	From K
	To   K
	// Submit is set when the terminal step was left and a submission is due.
	Submit bool
}

type options struct {
	store  StateStore
	key    string
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Driver.
type Option func(*options)

// WithStore persists every transition to store under key.
func WithStore(store StateStore, key string) Option {
	return func(o *options) {
		o.store = store
		o.key = key
	}
}

// WithClock overrides time.Now, e.g. with workflow.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the logger used for swallowed persistence failures.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Driver owns the current step and the completed set of one wizard instance.
// It performs no network I/O; a Submit transition is handed back to the caller,
// who reports the outcome through Resolve. A Driver is not safe for concurrent use.
type Driver[K ~string] struct {
	reg     *Registry[K]
	state   State[K]
	phase   Phase
	lastErr error
	opts    options
}

// NewDriver returns a driver positioned at the first step of reg.
func NewDriver[K ~string](reg *Registry[K], opts ...Option) *Driver[K] {
	o := options{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Driver[K]{
		reg:   reg,
		state: NewState(reg),
		phase: PhaseEditing,
		opts:  o,
	}
}

// Restore rehydrates from the store. Missing, unreadable or stale blobs leave the
// driver at its initial state; it reports whether saved progress was applied.
func (d *Driver[K]) Restore(ctx context.Context) bool {
	if d.opts.store == nil {
		return false
	}
	blob, ok, err := d.opts.store.Load(ctx, d.opts.key)
	if err != nil {
		d.opts.logger.Warn("Failed to load wizard state", zap.String("key", d.opts.key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := d.RestoreFrom(blob); err != nil {
		d.opts.logger.Warn("Discarding saved wizard state", zap.String("key", d.opts.key), zap.Error(err))
		return false
	}
	return true
}

// RestoreFrom replaces the state with a previously encoded snapshot.
func (d *Driver[K]) RestoreFrom(blob []byte) error {
	s, err := Decode(d.reg, blob)
	if err != nil {
		return err
	}
	d.state = s
	d.phase = PhaseEditing
	d.lastErr = nil
	return nil
}

func (d *Driver[K]) Registry() *Registry[K] { return d.reg }

func (d *Driver[K]) Current() K { return d.state.CurrentStep }

func (d *Driver[K]) Phase() Phase { return d.phase }

// LastError is the submission error of a failed phase.
func (d *Driver[K]) LastError() error { return d.lastErr }

// State returns a copy of the current state.
func (d *Driver[K]) State() State[K] { return d.state.Clone() }

// Snapshot encodes the current state as a persistence blob.
func (d *Driver[K]) Snapshot() ([]byte, error) { return Encode(d.reg, d.state) }

// Done reports whether the wizard reached a terminal phase.
func (d *Driver[K]) Done() bool {
	return d.phase == PhaseComplete || d.phase == PhaseAbandoned
}

func (d *Driver[K]) open() bool {
	return d.phase == PhaseEditing || d.phase == PhaseFailed
}

// Merge shallow-merges partial into the accumulated data without moving.
func (d *Driver[K]) Merge(ctx context.Context, partial Data) error {
	if !d.open() {
		return ErrFlowClosed
	}
	d.state.Data = d.state.Data.Merge(partial)
	d.touch()
	d.persist(ctx)
	return nil
}

// Complete merges the data a step produced and advances past it. When the
// step's gate rejects the merged data nothing is committed.
func (d *Driver[K]) Complete(ctx context.Context, partial Data) (Transition[K], error) {
	if !d.open() {
		return Transition[K]{}, ErrFlowClosed
	}
	if err := d.checkGate(d.state.CurrentStep, d.state.Data.Merge(partial)); err != nil {
		return Transition[K]{}, err
	}
	if err := d.Merge(ctx, partial); err != nil {
		return Transition[K]{}, err
	}
	return d.Advance(ctx)
}

// Advance marks the current step complete and moves to the next one. Leaving the
// terminal step enters the submitting phase instead.
func (d *Driver[K]) Advance(ctx context.Context) (Transition[K], error) {
	if !d.open() {
		return Transition[K]{}, ErrFlowClosed
	}
	cur := d.state.CurrentStep
	if err := d.checkGate(cur, d.state.Data); err != nil {
		return Transition[K]{}, err
	}

	idx := d.reg.Index(cur)
	if idx == d.reg.Len()-1 {
		d.phase = PhaseSubmitting
		d.lastErr = nil
		d.touch()
		d.persist(ctx)
		return Transition[K]{From: cur, To: cur, Submit: true}, nil
	}

	next := d.reg.At(idx + 1).Key
	d.state.Completed[cur] = struct{}{}
	d.state.CurrentStep = next
	d.phase = PhaseEditing
	d.lastErr = nil
	d.touch()
	d.persist(ctx)
	return Transition[K]{From: cur, To: next}, nil
}

func (d *Driver[K]) checkGate(key K, data Data) error {
	step, err := d.reg.Lookup(key)
	if err != nil {
		return err
	}
	if step.Gate == nil {
		return nil
	}
	if err := step.Gate(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrGateNotSatisfied, key, err)
	}
	return nil
}

// Retreat moves to the previous step. It returns false at the first step.
func (d *Driver[K]) Retreat(ctx context.Context) bool {
	if !d.open() {
		return false
	}
	idx := d.reg.Index(d.state.CurrentStep)
	if idx <= 0 {
		return false
	}
	d.state.CurrentStep = d.reg.At(idx - 1).Key
	d.phase = PhaseEditing
	d.lastErr = nil
	d.touch()
	d.persist(ctx)
	return true
}

// JumpTo moves to key when it is completed, behind the current step, or the
// immediate next step. Anything further ahead is rejected with ErrSkipAhead.
func (d *Driver[K]) JumpTo(ctx context.Context, key K) error {
	if !d.open() {
		return ErrFlowClosed
	}
	target := d.reg.Index(key)
	if target < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownStep, key)
	}
	cur := d.reg.Index(d.state.CurrentStep)
	switch {
	case target == cur:
		return nil
	case target == cur+1:
		_, err := d.Advance(ctx)
		return err
	case target < cur || d.state.IsCompleted(key):
		d.state.CurrentStep = key
		d.phase = PhaseEditing
		d.lastErr = nil
		d.touch()
		d.persist(ctx)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrSkipAhead, key)
	}
}

// Resolve records the outcome of the submission started by Advance.
// Success completes the wizard and clears saved progress; failure returns to the
// terminal step with the data kept so the user can resubmit.
func (d *Driver[K]) Resolve(ctx context.Context, err error) {
	if d.phase != PhaseSubmitting {
		d.opts.logger.Warn("Ignoring submission outcome outside submitting phase", zap.String("phase", string(d.phase)))
		return
	}
	d.touch()
	if err != nil {
		d.phase = PhaseFailed
		d.lastErr = err
		d.persist(ctx)
		return
	}
	d.state.Completed[d.state.CurrentStep] = struct{}{}
	d.phase = PhaseComplete
	d.clear(ctx)
}

// Reset abandons the wizard and clears saved progress.
func (d *Driver[K]) Reset(ctx context.Context) {
	d.state = NewState(d.reg)
	d.phase = PhaseAbandoned
	d.lastErr = nil
	d.clear(ctx)
}

func (d *Driver[K]) touch() {
	d.state.UpdatedAt = d.opts.now()
}

func (d *Driver[K]) persist(ctx context.Context) {
	if d.opts.store == nil {
		return
	}
	blob, err := Encode(d.reg, d.state)
	if err != nil {
		d.opts.logger.Warn("Failed to encode wizard state", zap.String("key", d.opts.key), zap.Error(err))
		return
	}
	if err := d.opts.store.Save(ctx, d.opts.key, blob); err != nil {
		d.opts.logger.Warn("Failed to save wizard state", zap.String("key", d.opts.key), zap.Error(err))
	}
}

func (d *Driver[K]) clear(ctx context.Context) {
	if d.opts.store == nil {
		return
	}
	if err := d.opts.store.Clear(ctx, d.opts.key); err != nil {
		d.opts.logger.Warn("Failed to clear wizard state", zap.String("key", d.opts.key), zap.Error(err))
	}
}
