package saga

import (
	"context"
	"fmt"
	"reserva/pkg/logger"
)

// Step is one unit of a flow. Compensate undoes a completed Run and may
// be nil for steps with no side effects.
type Step struct {
	Name       string
	Run        func(ctx context.Context, state *State) error
	Compensate func(ctx context.Context, state *State) error
}

// Flow is a named ordered list of steps.
type Flow struct {
	Name  string
	Steps []Step
}

// State is the shared bag a flow's steps read and write.
type State struct {
	values map[string]any
}

func NewState() *State {
	return &State{values: make(map[string]any)}
}

func (s *State) Set(key string, value any) {
	s.values[key] = value
}

func (s *State) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// GetInt64 returns the value under key as int64, or zero when absent.
func (s *State) GetInt64(key string) int64 {
	if v, ok := s.values[key]; ok {
		if n, ok := v.(int64); ok {
			return n
		}
	}
	return 0
}

func (s *State) GetString(key string) string {
	if v, ok := s.values[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

type Engine struct {
	log *logger.Logger
}

func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

// Execute runs the flow's steps in order. On failure it compensates the
// already completed steps in reverse order and returns the original
// error. Compensation failures are logged and skipped so the remaining
// compensations still run; those rows need manual reconciliation.
func (e *Engine) Execute(ctx context.Context, flow Flow, state *State) error {
	completed := make([]Step, 0, len(flow.Steps))

	for _, step := range flow.Steps {
		if err := step.Run(ctx, state); err != nil {
			e.log.Warn("Flow step failed, compensating",
				"flow", flow.Name,
				"step", step.Name,
				"completed_steps", len(completed),
				"error", err,
			)
			e.compensate(ctx, flow, completed, state)
			return fmt.Errorf("%s step failed: %w", step.Name, err)
		}
		completed = append(completed, step)
	}

	return nil
}

func (e *Engine) compensate(ctx context.Context, flow Flow, completed []Step, state *State) {
	for i := len(completed) - 1; i >= 0; i-- {
		step := completed[i]
		if step.Compensate == nil {
			continue
		}
		if err := step.Compensate(ctx, state); err != nil {
			e.log.Error("Compensation failed, manual reconciliation required",
				"flow", flow.Name,
				"step", step.Name,
				"error", err,
			)
		}
	}
}
