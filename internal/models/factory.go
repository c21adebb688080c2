// Package models creates Eino chat models from provider configuration.
package models

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"

	"github.com/lberthe/atelier/internal/config"
)

// CreateModel creates a model.ToolCallingChatModel from a provider config.
// Only the "openai" and "ollama" provider kinds are supported; the engine
// never branches on this field, it belongs to construction only.
func CreateModel(ctx context.Context, cfg config.ProviderConfig) (model.ToolCallingChatModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAI(ctx, cfg)
	case "ollama":
		return NewOllama(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown provider kind: %q", cfg.Provider)
	}
}
