package thinking

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Complete sends a system + user prompt pair to the model and returns the
// response text.
func Complete(ctx context.Context, m model.BaseChatModel, system, user string) (string, error) {
	msgs := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}
	out, err := m.Generate(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("model generate: %w", err)
	}
	return out.Content, nil
}
