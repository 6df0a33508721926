// SPDX-License-Identifier: MIT

package ipsdta

import (
	"io"
	"log/slog"
)

// Observer is called synchronously on the engine goroutine after
// initialisation and after every completed iteration.
// It receives deep copies and may retain them.
type Observer func(Snapshot)

// Option customises an Engine beyond its Config.
type Option func(*engineOptions)

// engineOptions collects the non-numerical extras of an Engine.
type engineOptions struct {
	observers []Observer
	warm      *State
	logger    *slog.Logger
}

// WithObserver appends observers; they run in registration order.
// Panics if any observer is nil.
func WithObserver(obs ...Observer) Option {
	for _, o := range obs {
		if o == nil {
			panic("ipsdta: WithObserver(nil)")
		}
	}

	return func(o *engineOptions) {
		o.observers = append(o.observers, obs...)
	}
}

// WithWarmStart seeds the engine with a previous State. Nil fields are
// initialised as in a cold start; non-nil fields must match the observation
// and configuration exactly. The state is deep-copied.
func WithWarmStart(s State) Option {
	cp := s.Clone()

	return func(o *engineOptions) {
		o.warm = &cp
	}
}

// WithLogger sets the structured logger. Panics on nil.
func WithLogger(l *slog.Logger) Option {
	if l == nil {
		panic("ipsdta: WithLogger(nil)")
	}

	return func(o *engineOptions) {
		o.logger = l
	}
}

// gatherOptions applies user options over the defaults (discard logger).
func gatherOptions(opts ...Option) engineOptions {
	o := engineOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, fn := range opts {
		fn(&o)
	}

	return o
}
