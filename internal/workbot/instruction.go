// Package workbot turns natural-language attendance queries into structured
// tool calls, executes them against the date and reasoning engines, and
// shapes the results for the chat surface. The language model only ever
// classifies; every date and number in a response comes from deterministic
// code.
package workbot

import (
	"fmt"

	"github.com/example/attendance-tracker/internal/dateexpr"
	"github.com/example/attendance-tracker/internal/reasoning"
)

// Instruction kinds produced by the classifier.
const (
	KindDate      = "date"
	KindReasoning = "reasoning"
)

// Instruction is the classifier's structured reading of a user query.
// Exactly one of Date or Reasoning is set, matching Kind.
type Instruction struct {
	Kind      string                `json:"kind"`
	Date      *DateInstruction      `json:"date,omitempty"`
	Reasoning *ReasoningInstruction `json:"reasoning,omitempty"`
}

// DateInstruction selects a date-expansion tool, its parameters, and an
// ordered modifier pipeline.
type DateInstruction struct {
	Tool      string              `json:"tool"`
	Params    map[string]any      `json:"params"`
	Modifiers []dateexpr.Modifier `json:"modifiers,omitempty"`
}

// ReasoningInstruction selects a scheduling-reasoning computation and its
// subjects. UserNames are display names as the user typed them; the service
// resolves them against the directory.
type ReasoningInstruction struct {
	Intent         reasoning.Intent `json:"intent"`
	UserNames      []string         `json:"user_names,omitempty"`
	TargetName     string           `json:"target_name,omitempty"`
	Goal           reasoning.Goal   `json:"goal,omitempty"`
	Dates          []string         `json:"dates,omitempty"`
	Period         string           `json:"period,omitempty"`
	ConstraintText string           `json:"constraint_text,omitempty"`
	Limit          int              `json:"limit,omitempty"`
}

// Validate checks that the instruction names a known kind and carries the
// matching payload.
func (in Instruction) Validate() error {
	switch in.Kind {
	case KindDate:
		if in.Date == nil {
			return fmt.Errorf("date instruction payload is missing")
		}
		if in.Date.Tool == "" {
			return fmt.Errorf("date instruction does not name a tool")
		}
	case KindReasoning:
		if in.Reasoning == nil {
			return fmt.Errorf("reasoning instruction payload is missing")
		}
		if in.Reasoning.Intent == "" {
			return fmt.Errorf("reasoning instruction does not name an intent")
		}
	default:
		return fmt.Errorf("unknown instruction kind %q", in.Kind)
	}
	return nil
}

// Response is the structured answer returned to the chat surface.
type Response struct {
	Kind           string            `json:"kind"`
	Message        string            `json:"message"`
	Dates          []string          `json:"dates,omitempty"`
	ModifierErrors []string          `json:"modifier_errors,omitempty"`
	Reasoning      *reasoning.Result `json:"reasoning,omitempty"`
}
