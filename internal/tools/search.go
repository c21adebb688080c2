// Package tools holds the built-in capabilities: web search, user prompts,
// output generation, and progress reflection.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/tool"

	duckduckgo "github.com/cloudwego/eino-ext/components/tool/duckduckgo/v2"

	"github.com/lberthe/atelier/internal/capability"
	"github.com/lberthe/atelier/internal/config"
	"github.com/lberthe/atelier/internal/session"
)

// Search gathers inspiration material from the web via DuckDuckGo (no API
// key required).
type Search struct {
	maxResults int
	timeout    time.Duration

	once    sync.Once
	initErr error
	backend tool.InvokableTool
}

// NewSearch creates the search capability from config.
func NewSearch(cfg config.SearchConfig) *Search {
	return &Search{
		maxResults: cfg.MaxResults,
		timeout:    cfg.Timeout.Duration(),
	}
}

// NewSearchWithBackend creates the search capability over an explicit
// backend. Used by tests.
func NewSearchWithBackend(backend tool.InvokableTool) *Search {
	s := &Search{backend: backend}
	s.once.Do(func() {})
	return s
}

func (s *Search) Name() string { return capability.NameSearch }

func (s *Search) Description() string {
	return "Searches the web for reference and inspiration material. Returns titles, URLs, and summaries."
}

func (s *Search) Params() map[string]string {
	return map[string]string{
		"query": "search query; defaults to the task description",
	}
}

func (s *Search) CanExecute(t *session.Task) bool { return capability.NameMatches(s, t) }

func (s *Search) Execute(ctx context.Context, task *session.Task, cctx *capability.Context) (*capability.Result, error) {
	query := stringParam(task, "query", task.Description)
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search: empty query")
	}

	backend, err := s.tool(ctx)
	if err != nil {
		return nil, fmt.Errorf("search backend: %w", err)
	}

	args, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	raw, err := backend.InvokableRun(ctx, string(args))
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	formatted, count := formatResults(raw)
	slog.Info("search completed", "query", query, "results", count)

	cctx.Session.AppendMessage(session.Message{
		Role:       session.RoleAgent,
		Type:       "search_results",
		Content:    formatted,
		TaskID:     task.ID,
		Capability: capability.NameSearch,
	})

	return &capability.Result{
		Success: true,
		Payload: map[string]any{
			"query":   query,
			"count":   count,
			"results": formatted,
		},
	}, nil
}

func (s *Search) tool(ctx context.Context) (tool.InvokableTool, error) {
	s.once.Do(func() {
		maxResults := s.maxResults
		if maxResults <= 0 {
			maxResults = 5
		}
		s.backend, s.initErr = duckduckgo.NewTextSearchTool(ctx, &duckduckgo.Config{
			ToolName:   "web_search",
			ToolDesc:   "Search the web using DuckDuckGo.",
			MaxResults: maxResults,
			Timeout:    s.timeout,
		})
	})
	return s.backend, s.initErr
}

type searchResponse struct {
	Results []struct {
		Title       string `json:"title"`
		URL         string `json:"url"`
		Description string `json:"description"`
		Summary     string `json:"summary"`
	} `json:"results"`
}

// formatResults renders the backend's JSON response as readable lines. A
// response that is not the expected shape is passed through as-is.
func formatResults(raw string) (string, int) {
	var resp searchResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil || len(resp.Results) == 0 {
		return raw, 0
	}

	var sb strings.Builder
	for _, r := range resp.Results {
		desc := r.Description
		if desc == "" {
			desc = r.Summary
		}
		sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", r.Title, r.URL, desc))
	}
	return sb.String(), len(resp.Results)
}

func stringParam(t *session.Task, key, def string) string {
	if v, ok := t.Params[key].(string); ok && v != "" {
		return v
	}
	return def
}
