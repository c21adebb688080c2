package thinking

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
)

// Route is the outcome of sub-tool selection.
type Route struct {
	Selected   string  `json:"selected"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

const routeSystem = `You select which sub-behavior should handle the current situation. Respond with a single JSON object:
{"selected": "name", "reasoning": "...", "confidence": 0.0-1.0}`

// RouteToSubTool lets one capability dispatch among specialized
// sub-behaviors. A response naming something outside the available set is
// substituted with the first option — an invalid routing choice must never
// crash the loop — but an unparsable response still fails loud.
func RouteToSubTool(ctx context.Context, m model.BaseChatModel, prompt string, available []string) (*Route, error) {
	if len(available) == 0 {
		return nil, fmt.Errorf("route: no sub-tools available")
	}

	user := fmt.Sprintf("%s\n\nAvailable sub-tools: %s", prompt, strings.Join(available, ", "))
	raw, err := Complete(ctx, m, routeSystem, user)
	if err != nil {
		return nil, err
	}

	route, err := ParseJSON[Route](raw)
	if err != nil {
		return nil, fmt.Errorf("route: %w", err)
	}

	for _, name := range available {
		if route.Selected == name {
			return route, nil
		}
	}

	return &Route{
		Selected:   available[0],
		Reasoning:  fmt.Sprintf("fallback: model selected unknown sub-tool %q; %s", route.Selected, route.Reasoning),
		Confidence: 0,
	}, nil
}
