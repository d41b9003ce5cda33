package pipeline

import (
	"context"
	"time"
)

// Clock supplies the run timestamp.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function into a Clock.
type ClockFunc func() time.Time

// Now returns the function's time in UTC, or the current UTC time for a nil func.
func (f ClockFunc) Now() time.Time {
	if f == nil {
		return time.Now().UTC()
	}
	return f().UTC()
}

// Logger is the structured logging surface the runner writes to. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsRecorder receives the outcome of every pipeline stage.
type MetricsRecorder interface {
	Observe(ctx context.Context, stage string, success bool, duration time.Duration)
}

// SeedSource picks a seed when the configuration asks for a random one.
type SeedSource func() (uint64, error)

// RunIDSource names a run.
type RunIDSource func() string

// Option configures a Runner.
type Option func(*options)

type options struct {
	clock   Clock
	logger  Logger
	metrics MetricsRecorder
	seeds   SeedSource
	runIDs  RunIDSource
}

// WithClock overrides the clock used for RunInfo.GeneratedAt.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger routes progress messages to l.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records stage timings on m.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSeedSource overrides how a random seed is chosen.
func WithSeedSource(s SeedSource) Option {
	return func(o *options) {
		if s != nil {
			o.seeds = s
		}
	}
}

// WithRunIDSource overrides how runs are named.
func WithRunIDSource(s RunIDSource) Option {
	return func(o *options) {
		if s != nil {
			o.runIDs = s
		}
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
