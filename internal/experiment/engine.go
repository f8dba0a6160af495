// Package experiment runs hypothesis driven experiments against a live
// bookshelf server: establish a steady state, act on the system, observe the
// outcome and roll back.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrSteadyState aborts an experiment whose preconditions do not hold.
var ErrSteadyState = errors.New("steady state invalid, aborting experiment")

// Experiment defines one hypothesis and how to test it.
type Experiment struct {
	Name       string
	Hypothesis string
	// Setup prepares the system before the steady state is checked.
	Setup       []Action
	SteadyState []Metric
	Method      []Action
	// Observe is sampled once the method completed.
	Observe    []Metric
	Rollback   []Action
	Validation []Assertion
}

// Metric is a measurable system property.
type Metric struct {
	Name      string
	Query     func(context.Context) (float64, error)
	Threshold Threshold
}

type Threshold struct {
	Operator string // >, <, >=, <=, ==
	Value    float64
}

// Holds reports whether value satisfies the threshold.
func (t Threshold) Holds(value float64) bool {
	switch t.Operator {
	case ">":
		return value > t.Value
	case "<":
		return value < t.Value
	case ">=":
		return value >= t.Value
	case "<=":
		return value <= t.Value
	case "==":
		return value == t.Value
	default:
		return false
	}
}

// Action acts on the system under test.
type Action struct {
	Name    string
	Execute func(context.Context) error
}

// Assertion validates an observed metric.
type Assertion struct {
	Metric    string
	Condition func(float64) bool
	Message   string
}

// Result captures one experiment execution.
type Result struct {
	Experiment       string             `json:"experiment"`
	StartTime        time.Time          `json:"start_time"`
	EndTime          time.Time          `json:"end_time"`
	Duration         time.Duration      `json:"duration"`
	SteadyStateValid bool               `json:"steady_state_valid"`
	HypothesisHeld   bool               `json:"hypothesis_held"`
	Observations     map[string]float64 `json:"observations"`
	Violations       []Violation        `json:"violations"`
	ErrorEvents      []ErrorEvent       `json:"error_events"`
}

type Violation struct {
	Metric   string  `json:"metric"`
	Expected string  `json:"expected"`
	Actual   float64 `json:"actual"`
	Message  string  `json:"message,omitempty"`
}

type ErrorEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component"`
	Error     string    `json:"error"`
}

// Engine runs experiments and keeps their results.
type Engine struct {
	tracer  trace.Tracer
	logger  *zap.Logger
	mu      sync.Mutex
	results []Result
}

func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{
		tracer: otel.Tracer("bookshelf/experiment"),
		logger: logger,
	}
}

// Results returns the results of the experiments run so far.
func (e *Engine) Results() []Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Result(nil), e.results...)
}

func (e *Engine) runActions(ctx context.Context, span trace.Span, result *Result, actions []Action) bool {
	ok := true
	for _, action := range actions {
		if err := action.Execute(ctx); err != nil {
			ok = false
			span.RecordError(err)
			e.logger.Warn("experiment action failed", zap.String("action", action.Name), zap.Error(err))
			result.ErrorEvents = append(result.ErrorEvents, ErrorEvent{
				Timestamp: time.Now(),
				Component: action.Name,
				Error:     err.Error(),
			})
		}
	}
	return ok
}

func (e *Engine) sample(ctx context.Context, result *Result, metrics []Metric) []Violation {
	var violations []Violation
	for _, m := range metrics {
		value, err := m.Query(ctx)
		if err != nil {
			result.ErrorEvents = append(result.ErrorEvents, ErrorEvent{
				Timestamp: time.Now(),
				Component: m.Name,
				Error:     err.Error(),
			})
			violations = append(violations, Violation{
				Metric:   m.Name,
				Expected: m.Threshold.Operator + " " + fmt.Sprint(m.Threshold.Value),
				Actual:   -1,
				Message:  err.Error(),
			})
			continue
		}

		result.Observations[m.Name] = value
		if !m.Threshold.Holds(value) {
			violations = append(violations, Violation{
				Metric:   m.Name,
				Expected: m.Threshold.Operator + " " + fmt.Sprint(m.Threshold.Value),
				Actual:   value,
			})
		}
	}
	return violations
}

// Run executes exp. It fails with ErrSteadyState when the setup or the
// steady state does not hold; the method is then never executed.
func (e *Engine) Run(ctx context.Context, exp Experiment) (*Result, error) {
	ctx, span := e.tracer.Start(ctx, "experiment.run",
		trace.WithAttributes(attribute.String("experiment.name", exp.Name)),
	)
	defer span.End()

	result := &Result{
		Experiment:   exp.Name,
		StartTime:    time.Now(),
		Observations: make(map[string]float64),
		ErrorEvents:  make([]ErrorEvent, 0),
	}
	finish := func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		e.mu.Lock()
		e.results = append(e.results, *result)
		e.mu.Unlock()
	}

	span.AddEvent("setup")
	setupOK := e.runActions(ctx, span, result, exp.Setup)

	span.AddEvent("validating_steady_state")
	violations := e.sample(ctx, result, exp.SteadyState)
	if !setupOK || len(violations) > 0 {
		result.Violations = violations
		span.SetStatus(codes.Error, ErrSteadyState.Error())
		finish()
		return result, ErrSteadyState
	}
	result.SteadyStateValid = true

	span.AddEvent("executing_method")
	e.runActions(ctx, span, result, exp.Method)

	span.AddEvent("observing_system")
	result.Violations = e.sample(ctx, result, exp.Observe)

	span.AddEvent("rolling_back")
	e.runActions(ctx, span, result, exp.Rollback)

	span.AddEvent("validating_assertions")
	result.HypothesisHeld = len(result.Violations) == 0
	for _, a := range exp.Validation {
		value, ok := result.Observations[a.Metric]
		if !ok || !a.Condition(value) {
			result.HypothesisHeld = false
			result.Violations = append(result.Violations, Violation{Metric: a.Metric, Actual: value, Message: a.Message})
		}
	}

	span.SetAttributes(
		attribute.Bool("hypothesis_held", result.HypothesisHeld),
		attribute.Int("violations", len(result.Violations)),
	)
	e.logger.Info("experiment finished",
		zap.String("experiment.name", exp.Name),
		zap.Bool("hypothesis_held", result.HypothesisHeld),
		zap.Int("violations", len(result.Violations)),
	)
	finish()
	return result, nil
}
