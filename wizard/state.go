package wizard

import (
	"encoding/json"
	"fmt"
	"time"
)

// Data is the record accumulated across steps.
type Data map[string]string

// Merge returns a new record holding d overlaid with partial. Keys in partial win.
func (d Data) Merge(partial Data) Data {
	out := make(Data, len(d)+len(partial))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Clone returns a copy of d.
func (d Data) Clone() Data {
	return d.Merge(nil)
}

// State is a snapshot of one wizard's progress.
type State[K ~string] struct {
	CurrentStep K
	Completed   map[K]struct{}
	Data        Data
	UpdatedAt   time.Time
}

// NewState returns the initial state for r.
func NewState[K ~string](r *Registry[K]) State[K] {
	return State[K]{
		CurrentStep: r.First(),
		Completed:   make(map[K]struct{}),
		Data:        Data{},
	}
}

// IsCompleted reports whether key has been completed.
func (s State[K]) IsCompleted(key K) bool {
	_, ok := s.Completed[key]
	return ok
}

// CompletedIn lists the completed keys in r's order.
func (s State[K]) CompletedIn(r *Registry[K]) []K {
	keys := make([]K, 0, len(s.Completed))
	for _, k := range r.Keys() {
		if s.IsCompleted(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Clone returns a deep copy of s.
func (s State[K]) Clone() State[K] {
	completed := make(map[K]struct{}, len(s.Completed))
	for k := range s.Completed {
		completed[k] = struct{}{}
	}
	return State[K]{
		CurrentStep: s.CurrentStep,
		Completed:   completed,
		Data:        s.Data.Clone(),
		UpdatedAt:   s.UpdatedAt,
	}
}

type snapshot struct {
	CurrentStep    string            `json:"currentStep"`
	CompletedSteps []string          `json:"completedSteps"`
	Data           map[string]string `json:"data"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Encode serialises s as the persisted JSON blob.
func Encode[K ~string](r *Registry[K], s State[K]) ([]byte, error) {
	snap := snapshot{
		CurrentStep:    string(s.CurrentStep),
		CompletedSteps: []string{},
		Data:           s.Data.Clone(),
		UpdatedAt:      s.UpdatedAt,
	}
	for _, k := range s.CompletedIn(r) {
		snap.CompletedSteps = append(snap.CompletedSteps, string(k))
	}
	return json.Marshal(snap)
}

// Decode parses a blob written by Encode. Completed keys that r does not know are dropped;
// a current step r does not know is an error.
func Decode[K ~string](r *Registry[K], blob []byte) (State[K], error) {
	var snap snapshot
	if err := json.Unmarshal(blob, &snap); err != nil {
		return State[K]{}, fmt.Errorf("failed to decode wizard state: %w", err)
	}
	current := K(snap.CurrentStep)
	if r.Index(current) < 0 {
		return State[K]{}, fmt.Errorf("%w: saved current step %q", ErrUnknownStep, snap.CurrentStep)
	}
	s := NewState(r)
	s.CurrentStep = current
	s.UpdatedAt = snap.UpdatedAt
	for _, k := range snap.CompletedSteps {
		if r.Index(K(k)) >= 0 {
			s.Completed[K(k)] = struct{}{}
		}
	}
	for k, v := range snap.Data {
		s.Data[k] = v
	}
	return s, nil
}
