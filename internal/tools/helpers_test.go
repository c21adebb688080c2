package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/session"
)

type fakeModel struct {
	responses []string
	err       error
}

func (f *fakeModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("fake model: no scripted response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return schema.AssistantMessage(resp, nil), nil
}

func (f *fakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("fake model: streaming not supported")
}

func (f *fakeModel) WithTools([]*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func newToolContext(t *testing.T, responses ...string) *capability.Context {
	t.Helper()
	return &capability.Context{
		Session: &session.Session{
			ID:          "sess_test",
			Requirement: "a cyberpunk detective character",
			Status:      session.StatusActive,
			Output:      session.NewOutput([]string{"profile", "worldbook"}),
		},
		Registry: capability.NewRegistry(),
		Model:    &fakeModel{responses: responses},
	}
}
