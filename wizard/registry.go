package wizard

import (
	"context"
	"fmt"
)

// StepHandler runs one step's interaction and returns the fields it collected.
type StepHandler interface {
	Run(ctx context.Context, current Data) (Data, error)
}

// StepHandlerFunc adapts a function to StepHandler.
type StepHandlerFunc func(ctx context.Context, current Data) (Data, error)

// Run calls f.
func (f StepHandlerFunc) Run(ctx context.Context, current Data) (Data, error) {
	return f(ctx, current)
}

// Step describes one entry of a wizard.
type Step[K ~string] struct {
	Key         K
	Title       string
	Description string
	// Handler may be nil when steps are driven from outside (signals, HTTP).
	Handler StepHandler
	// Gate, when set, must return nil before the step can be left forwards.
	Gate func(Data) error
}

// Registry is the fixed, ordered list of steps of one wizard.
type Registry[K ~string] struct {
	steps []Step[K]
	index map[K]int
}

// NewRegistry validates the steps and freezes their order.
func NewRegistry[K ~string](steps ...Step[K]) (*Registry[K], error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("wizard registry needs at least one step")
	}
	r := &Registry[K]{
		steps: make([]Step[K], len(steps)),
		index: make(map[K]int, len(steps)),
	}
	for i, s := range steps {
		if s.Key == "" {
			return nil, fmt.Errorf("step %d has an empty key", i)
		}
		if _, dup := r.index[s.Key]; dup {
			return nil, fmt.Errorf("duplicate step key %q", s.Key)
		}
		r.index[s.Key] = i
		r.steps[i] = s
	}
	return r, nil
}

// MustRegistry is NewRegistry for static declarations.
func MustRegistry[K ~string](steps ...Step[K]) *Registry[K] {
	r, err := NewRegistry(steps...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry[K]) Len() int { return len(r.steps) }

func (r *Registry[K]) First() K { return r.steps[0].Key }

func (r *Registry[K]) Last() K { return r.steps[len(r.steps)-1].Key }

// At returns the step at position i.
func (r *Registry[K]) At(i int) Step[K] { return r.steps[i] }

// Index returns the position of key, or -1.
func (r *Registry[K]) Index(key K) int {
	i, ok := r.index[key]
	if !ok {
		return -1
	}
	return i
}

// Lookup returns the step for key.
func (r *Registry[K]) Lookup(key K) (Step[K], error) {
	i, ok := r.index[key]
	if !ok {
		return Step[K]{}, fmt.Errorf("%w: %q", ErrUnknownStep, key)
	}
	return r.steps[i], nil
}

// Keys returns the step keys in declared order.
func (r *Registry[K]) Keys() []K {
	keys := make([]K, len(r.steps))
	for i, s := range r.steps {
		keys[i] = s.Key
	}
	return keys
}
