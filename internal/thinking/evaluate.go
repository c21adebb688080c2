package thinking

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
)

// Next actions an evaluation can request.
const (
	ActionContinue = "continue"
	ActionImprove  = "improve"
	ActionComplete = "complete"
)

// Evaluation is the structured verdict on one capability result.
type Evaluation struct {
	IsSatisfied       bool     `json:"is_satisfied"`
	QualityScore      int      `json:"quality_score"`
	Reasoning         string   `json:"reasoning"`
	ImprovementNeeded []string `json:"improvement_needed,omitempty"`
	NextAction        string   `json:"next_action"`
}

// Improvement is a structured instruction for the next attempt.
type Improvement struct {
	FocusAreas       []string `json:"focus_areas"`
	SpecificRequests []string `json:"specific_requests"`
	QualityTarget    int      `json:"quality_target"`
	MaxAttempts      int      `json:"max_attempts"`
}

const evaluateSystem = `You are a strict quality evaluator. Respond with a single JSON object:
{"is_satisfied": bool, "quality_score": 0-100, "reasoning": "...", "improvement_needed": ["..."], "next_action": "continue|improve|complete"}`

// Evaluate renders an evaluation prompt against the model and parses the
// structured verdict. A malformed response is a hard failure for the caller
// to surface; there is no silent default score.
func Evaluate(ctx context.Context, m model.BaseChatModel, prompt string) (*Evaluation, error) {
	raw, err := Complete(ctx, m, evaluateSystem, prompt)
	if err != nil {
		return nil, err
	}

	eval, err := ParseJSON[Evaluation](raw)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	if eval.QualityScore < 0 || eval.QualityScore > 100 {
		return nil, fmt.Errorf("evaluate: %w: quality_score %d out of range", ErrUnparsable, eval.QualityScore)
	}
	switch eval.NextAction {
	case ActionContinue, ActionImprove, ActionComplete:
	default:
		return nil, fmt.Errorf("evaluate: %w: next_action %q", ErrUnparsable, eval.NextAction)
	}
	return eval, nil
}

const improveSystem = `You turn an evaluation into a concrete improvement instruction. Respond with a single JSON object:
{"focus_areas": ["..."], "specific_requests": ["..."], "quality_target": 0-100, "max_attempts": n}`

// GenerateImprovement asks the model for a structured improvement
// instruction, with the same prompt/parse/fail-loud pattern as Evaluate.
func GenerateImprovement(ctx context.Context, m model.BaseChatModel, prompt string) (*Improvement, error) {
	raw, err := Complete(ctx, m, improveSystem, prompt)
	if err != nil {
		return nil, err
	}

	instr, err := ParseJSON[Improvement](raw)
	if err != nil {
		return nil, fmt.Errorf("generate improvement: %w", err)
	}
	return instr, nil
}
