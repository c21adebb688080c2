package thinking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lberthe/atelier/internal/capability"
)

// DefaultMaxAttempts bounds the evaluate/improve cycle when no explicit
// budget is configured.
const DefaultMaxAttempts = 3

// Reflective is implemented by capabilities that refine their own output.
// The refine loop drives the cycle; the capability owns the prompts.
type Reflective interface {
	Evaluate(ctx context.Context, res *capability.Result, cctx *capability.Context, attempt int) (*Evaluation, error)
	GenerateImprovement(ctx context.Context, res *capability.Result, eval *Evaluation, cctx *capability.Context) (*Improvement, error)
	Improve(ctx context.Context, res *capability.Result, instr *Improvement, cctx *capability.Context) (*capability.Result, error)
}

// Refine runs the bounded evaluate → improve cycle over an initial result.
// When the budget runs out without a satisfying attempt, the best-scoring
// attempt wins — a capped refinement is degraded output, not a failure.
// An evaluation that cannot be parsed propagates as an error.
func Refine(ctx context.Context, r Reflective, initial *capability.Result, cctx *capability.Context, maxAttempts int) (*capability.Result, *Evaluation, error) {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	current := initial
	var best *capability.Result
	var bestEval *Evaluation

	for attempt := 1; ; attempt++ {
		eval, err := r.Evaluate(ctx, current, cctx, attempt)
		if err != nil {
			return nil, nil, fmt.Errorf("refine attempt %d: %w", attempt, err)
		}
		slog.Debug("refine evaluation",
			"attempt", attempt,
			"score", eval.QualityScore,
			"satisfied", eval.IsSatisfied,
			"next_action", eval.NextAction)

		if bestEval == nil || eval.QualityScore > bestEval.QualityScore {
			best, bestEval = current, eval
		}

		if eval.IsSatisfied || eval.NextAction == ActionComplete {
			return current, eval, nil
		}
		if attempt >= maxAttempts {
			slog.Info("refine budget exhausted, keeping best attempt",
				"attempts", attempt,
				"best_score", bestEval.QualityScore)
			return best, bestEval, nil
		}

		instr, err := r.GenerateImprovement(ctx, current, eval, cctx)
		if err != nil {
			return nil, nil, fmt.Errorf("refine attempt %d: %w", attempt, err)
		}
		next, err := r.Improve(ctx, current, instr, cctx)
		if err != nil {
			return nil, nil, fmt.Errorf("refine attempt %d: %w", attempt, err)
		}
		current = next
	}
}
