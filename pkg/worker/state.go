package worker

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned for lifecycle transitions the state
// machine does not allow.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// State is a worker lifecycle state.
type State int

const (
	StateUninstalled State = iota
	StateInstalling
	StateInstalled
	StateActivating
	StateActive
	StateRedundant
)

// String returns the state label.
func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateInstalling:
		return "installing"
	case StateInstalled:
		return "installed"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	case StateRedundant:
		return "redundant"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state label in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var transitions = map[State][]State{
	StateUninstalled: {StateInstalling},
	StateInstalling:  {StateInstalled, StateRedundant},
	StateInstalled:   {StateActivating, StateRedundant},
	StateActivating:  {StateActive},
	StateActive:      {StateRedundant},
}

// canTransition reports whether from -> to is allowed.
func canTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// transition moves the worker to state to.
func (w *Worker) transition(to State) error {
	w.mu.Lock()
	from := w.state
	if !canTransition(from, to) {
		w.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	w.state = to
	w.mu.Unlock()

	workerState.WithLabelValues(w.config.Version).Set(float64(to))
	w.logger.Info().
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Worker state changed")
	return nil
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}
