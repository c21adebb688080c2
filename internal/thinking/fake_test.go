package thinking

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// fakeModel replays scripted responses in order.
type fakeModel struct {
	responses []string
	err       error
	calls     int
	prompts   []string
}

func (f *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	if len(input) > 0 {
		f.prompts = append(f.prompts, input[len(input)-1].Content)
	}
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
