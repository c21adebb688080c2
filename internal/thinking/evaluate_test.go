package thinking

import (
	"context"
	"errors"
	"testing"
)

func TestEvaluateParsesVerdict(t *testing.T) {
	m := &fakeModel{responses: []string{
		"```json\n{\"is_satisfied\": false, \"quality_score\": 55, \"reasoning\": \"thin\", \"improvement_needed\": [\"more detail\"], \"next_action\": \"improve\"}\n```",
	}}

	eval, err := Evaluate(context.Background(), m, "judge this draft")
	if err != nil {
		t.Fatal(err)
	}
	if eval.IsSatisfied || eval.QualityScore != 55 || eval.NextAction != ActionImprove {
		t.Errorf("got %+v", eval)
	}
	if len(eval.ImprovementNeeded) != 1 {
		t.Errorf("improvements: %v", eval.ImprovementNeeded)
	}
}

func TestEvaluateFailsLoudOnGarbage(t *testing.T) {
	m := &fakeModel{responses: []string{"I think it is pretty good overall."}}
	if _, err := Evaluate(context.Background(), m, "judge"); !errors.Is(err, ErrUnparsable) {
		t.Errorf("got %v, want ErrUnparsable", err)
	}
}

func TestEvaluateRejectsScoreOutOfRange(t *testing.T) {
	m := &fakeModel{responses: []string{`{"is_satisfied": true, "quality_score": 140, "next_action": "complete"}`}}
	if _, err := Evaluate(context.Background(), m, "judge"); !errors.Is(err, ErrUnparsable) {
		t.Errorf("got %v, want ErrUnparsable", err)
	}
}

func TestEvaluateRejectsUnknownAction(t *testing.T) {
	m := &fakeModel{responses: []string{`{"is_satisfied": false, "quality_score": 40, "next_action": "retry"}`}}
	if _, err := Evaluate(context.Background(), m, "judge"); !errors.Is(err, ErrUnparsable) {
		t.Errorf("got %v, want ErrUnparsable", err)
	}
}

func TestEvaluatePropagatesModelError(t *testing.T) {
	wantErr := errors.New("connection refused")
	m := &fakeModel{err: wantErr}
	if _, err := Evaluate(context.Background(), m, "judge"); !errors.Is(err, wantErr) {
		t.Errorf("got %v", err)
	}
}

func TestGenerateImprovement(t *testing.T) {
	m := &fakeModel{responses: []string{
		`{"focus_areas": ["backstory"], "specific_requests": ["name the mentor"], "quality_target": 85, "max_attempts": 2}`,
	}}

	instr, err := GenerateImprovement(context.Background(), m, "improve this")
	if err != nil {
		t.Fatal(err)
	}
	if instr.QualityTarget != 85 || len(instr.FocusAreas) != 1 {
		t.Errorf("got %+v", instr)
	}
}
