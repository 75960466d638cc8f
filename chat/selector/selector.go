// Package selector picks which registry operations answer a question. The
// LLM chooses from the closed catalog only; anything it invents is dropped.
package selector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adsight/adsight/ai/llm"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
)

const selectSystemPrompt = `You select backend operations to answer an analytics question.
You may ONLY pick from the operations listed below. Pick the smallest set
that answers the question, usually one to three.

Available operations:
%s
Return ONLY JSON: {"selected_operations": ["name", ...], "reasoning": "brief"}`

type selectResponse struct {
	SelectedOperations []string `json:"selected_operations"`
	Reasoning          string   `json:"reasoning"`
}

// Selector chooses operations from the registry catalog.
type Selector struct {
	llm      llm.Service
	registry *registry.Registry
}

// New creates a selector.
func New(svc llm.Service, reg *registry.Registry) *Selector {
	return &Selector{llm: svc, registry: reg}
}

// Select fills st.SelectedOperations from the catalog scoped to the turn's
// domain and granularity level. Unknown names are dropped with a warning; an
// empty result falls back to the level's default operation. The fallback is
// deterministic, so LLM failure never fails the turn.
func (s *Selector) Select(ctx context.Context, st *state.TurnState) {
	available := s.registry.OperationsAtLevel(st.Domain, st.Level)
	if len(available) == 0 {
		available = s.registry.Operations(st.Domain)
	}

	valid := make(map[string]bool, len(available))
	for _, op := range available {
		valid[op.Name] = true
	}

	names := s.ask(ctx, st, available)

	var selected []string
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.TrimSpace(name)
		if !valid[name] {
			if name != "" {
				slog.Warn("selector: dropping operation not in catalog", "operation", name)
				st.AddWarning(fmt.Sprintf("ignored unknown operation %q", name))
			}
			continue
		}
		if !seen[name] {
			selected = append(selected, name)
			seen[name] = true
		}
	}

	if len(selected) == 0 {
		if def, ok := s.registry.DefaultAtLevel(st.Domain, st.Level); ok {
			slog.Warn("selector: no usable selection, falling back to default operation", "operation", def.Name)
			selected = []string{def.Name}
		}
	}

	st.SelectedOperations = selected
}

// ask performs the LLM call and parses its response. Failures return nil and
// leave the fallback to the caller.
func (s *Selector) ask(ctx context.Context, st *state.TurnState, available []registry.Operation) []string {
	system := fmt.Sprintf(selectSystemPrompt, registry.Describe(available))
	prompt := fmt.Sprintf("Question: %s\nMetrics of interest: %s",
		st.Question, strings.Join(st.Metrics, ", "))

	content, _, err := s.llm.ChatWithOptions(ctx,
		llm.FormatMessages(system, prompt, nil),
		llm.CallOptions{MaxTokens: 300, Temperature: 0.1},
	)
	if err != nil {
		slog.Warn("selector: LLM call failed", "error", err)
		return nil
	}

	var resp selectResponse
	if err := llm.DecodeJSON(content, &resp); err != nil {
		slog.Warn("selector: malformed selection response", "error", err)
		return nil
	}

	slog.Debug("selector: operations chosen", "operations", resp.SelectedOperations, "reasoning", resp.Reasoning)
	return resp.SelectedOperations
}
