// Package service is the orchestration layer around the CPM engine. It
// enforces the activity ceiling and wall-clock budget the engine itself
// does not have, and adds logging, tracing and metrics.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jason-marshall/defense-pm-tool-sub005/internal/cpm"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/ctxlog"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/graph"
	"github.com/jason-marshall/defense-pm-tool-sub005/internal/metrics"
)

// ErrTooLarge is returned when a network exceeds the activity ceiling.
var ErrTooLarge = errors.New("too many activities")

// Calculator is the engine surface the service drives.
type Calculator interface {
	Calculate(activities []graph.Activity, deps []graph.Dependency) (*cpm.Schedule, error)
}

// Options bounds each calculation. Zero values disable a limit.
type Options struct {
	MaxActivities int
	Timeout       time.Duration
}

// Service wraps a Calculator. It is safe for concurrent use.
type Service struct {
	engine Calculator
	opts   Options
	tracer trace.Tracer
}

// New creates a Service. A nil engine uses cpm.Engine.
func New(engine Calculator, opts Options) *Service {
	if engine == nil {
		engine = cpm.Engine{}
	}
	return &Service{
		engine: engine,
		opts:   opts,
		tracer: otel.Tracer("github.com/jason-marshall/defense-pm-tool-sub005/internal/service"),
	}
}

type outcome struct {
	schedule *cpm.Schedule
	err      error
}

// Calculate runs the engine under the configured limits. On timeout the
// engine goroutine is abandoned and its result discarded.
func (s *Service) Calculate(ctx context.Context, activities []graph.Activity, deps []graph.Dependency) (*cpm.Schedule, error) {
	return s.run(ctx, "service.Calculate", len(activities), len(deps), func() (*cpm.Schedule, error) {
		return s.engine.Calculate(activities, deps)
	})
}

// Schedule runs the numeric passes of an already compiled network under
// the same limits as Calculate.
func (s *Service) Schedule(ctx context.Context, n *cpm.Network) (*cpm.Schedule, error) {
	return s.run(ctx, "service.Schedule", n.Len(), len(n.Graph().Edges), func() (*cpm.Schedule, error) {
		return n.Schedule(nil)
	})
}

func (s *Service) run(ctx context.Context, name string, activities, deps int, fn func() (*cpm.Schedule, error)) (*cpm.Schedule, error) {
	ctx, span := s.tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("pmsched.activities", activities),
		attribute.Int("pmsched.dependencies", deps),
	))
	defer span.End()

	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	schedule, err := s.calculate(ctx, activities, fn)
	elapsed := time.Since(start)
	label := classify(err)
	metrics.ObserveCalculation(label, activities, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, label)
		logger.Warn("schedule calculation failed",
			"activities", activities,
			"dependencies", deps,
			"outcome", label,
			"elapsed", elapsed,
			"error", err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("pmsched.project_duration", schedule.ProjectDuration()),
		attribute.Int("pmsched.critical_path_length", len(schedule.CriticalPath())),
	)
	logger.Info("schedule calculated",
		"activities", activities,
		"dependencies", deps,
		"project_duration", schedule.ProjectDuration(),
		"elapsed", elapsed)
	return schedule, nil
}

func (s *Service) calculate(ctx context.Context, activities int, fn func() (*cpm.Schedule, error)) (*cpm.Schedule, error) {
	if err := s.checkSize(activities); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("calculate: %w", err)
	}
	if s.opts.Timeout <= 0 {
		return fn()
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		sched, err := fn()
		done <- outcome{schedule: sched, err: err}
	}()

	select {
	case res := <-done:
		return res.schedule, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("calculate: %w", ctx.Err())
	}
}

// Compile prepares a reusable network for repeated runs, subject to the
// same activity ceiling.
func (s *Service) Compile(ctx context.Context, activities []graph.Activity, deps []graph.Dependency) (*cpm.Network, error) {
	_, span := s.tracer.Start(ctx, "service.Compile", trace.WithAttributes(
		attribute.Int("pmsched.activities", len(activities)),
	))
	defer span.End()

	if err := s.checkSize(len(activities)); err != nil {
		span.RecordError(err)
		return nil, err
	}
	n, err := cpm.Compile(activities, deps)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, classify(err))
		return nil, err
	}
	return n, nil
}

func (s *Service) checkSize(n int) error {
	if s.opts.MaxActivities > 0 && n > s.opts.MaxActivities {
		return fmt.Errorf("%w: %d exceeds limit of %d", ErrTooLarge, n, s.opts.MaxActivities)
	}
	return nil
}

func classify(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, graph.ErrCircularDependency):
		return metrics.OutcomeCycle
	case errors.Is(err, ErrTooLarge):
		return metrics.OutcomeTooLarge
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeInvalid
	}
}
