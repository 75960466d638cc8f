// Package synthesis turns raw operation results into an analysis and then a
// user-facing answer. Both passes go through the LLM; both degrade to a
// documented default when the model misbehaves.
package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adsight/adsight/ai/llm"
	"github.com/adsight/adsight/chat/state"
)

const (
	// maxAnalysisTokens is the estimated prompt size above which results
	// are analyzed in chunks.
	maxAnalysisTokens = 8000
	// chunkSize is how many operation results go into one chunk pass.
	chunkSize = 3

	analysisTemperature = 0.3
	analysisMaxTokens   = 2000
)

const analysisSystemPrompt = `You are a marketing analytics expert. Analyze the provided API results and extract the key findings that answer the user's question.

Focus on:
- Direct answers to what was asked
- Notable trends, spikes, or drops
- Comparisons between entities when more than one is present
- Concrete numbers with their metric names

Be factual. Only use numbers present in the data. If a result failed, note the gap and move on.`

const aggregateSystemPrompt = `You are a marketing analytics expert. Below are partial analyses of different slices of the same dataset. Merge them into one coherent set of findings that answers the user's question. Do not repeat yourself; keep every concrete number that matters.`

// Analyzer produces the intermediate insight text for a turn.
type Analyzer struct {
	llm llm.Service
}

func NewAnalyzer(service llm.Service) *Analyzer {
	return &Analyzer{llm: service}
}

// Analyze fills st.Insights from the turn's results. It never fails the
// turn: when the model is unavailable the insights fall back to a mechanical
// summary of what was fetched.
func (a *Analyzer) Analyze(ctx context.Context, st *state.TurnState) {
	succeeded := successfulResults(st.Results)
	if len(succeeded) == 0 {
		st.Insights = "No data could be retrieved for this question."
		return
	}

	payload := renderResults(succeeded)
	if estimateTokens(payload) <= maxAnalysisTokens {
		st.Insights = a.analyzeOnce(ctx, st, payload)
		return
	}

	slog.Info("synthesis: chunking large result set",
		"operations", len(succeeded), "estimated_tokens", estimateTokens(payload))
	st.Insights = a.analyzeChunked(ctx, st, succeeded)
}

func (a *Analyzer) analyzeOnce(ctx context.Context, st *state.TurnState, payload string) string {
	user := fmt.Sprintf("Question: %s\n\nAPI results:\n%s", st.Question, payload)
	content, _, err := a.llm.ChatWithOptions(ctx,
		[]llm.Message{llm.SystemPrompt(analysisSystemPrompt), llm.UserMessage(user)},
		llm.CallOptions{MaxTokens: analysisMaxTokens, Temperature: analysisTemperature})
	if err != nil || strings.TrimSpace(content) == "" {
		slog.Warn("synthesis: analysis call failed, using mechanical summary", "error", err)
		st.AddWarning("analysis degraded: model unavailable")
		return mechanicalSummary(st)
	}
	return strings.TrimSpace(content)
}

// analyzeChunked analyzes results a few operations at a time, then merges
// the partial analyses in a final pass.
func (a *Analyzer) analyzeChunked(ctx context.Context, st *state.TurnState, results []state.OperationResult) string {
	var partials []string
	for start := 0; start < len(results); start += chunkSize {
		stop := start + chunkSize
		if stop > len(results) {
			stop = len(results)
		}
		partial := a.analyzeOnce(ctx, st, renderResults(results[start:stop]))
		partials = append(partials, partial)
	}
	if len(partials) == 1 {
		return partials[0]
	}

	user := fmt.Sprintf("Question: %s\n\nPartial analyses:\n\n%s",
		st.Question, strings.Join(partials, "\n\n---\n\n"))
	content, _, err := a.llm.ChatWithOptions(ctx,
		[]llm.Message{llm.SystemPrompt(aggregateSystemPrompt), llm.UserMessage(user)},
		llm.CallOptions{MaxTokens: analysisMaxTokens, Temperature: analysisTemperature})
	if err != nil || strings.TrimSpace(content) == "" {
		slog.Warn("synthesis: aggregate pass failed, joining partials", "error", err)
		return strings.Join(partials, "\n\n")
	}
	return strings.TrimSpace(content)
}

func successfulResults(results []state.OperationResult) []state.OperationResult {
	var out []state.OperationResult
	for _, r := range results {
		if r.Success && len(r.Data) > 0 {
			out = append(out, r)
		}
	}
	return out
}

func renderResults(results []state.OperationResult) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "### %s\n%s\n\n", r.Operation, string(r.Data))
	}
	return b.String()
}

// estimateTokens approximates token count as length over four; close enough
// to decide whether to chunk.
func estimateTokens(s string) int {
	return len(s) / 4
}

// mechanicalSummary is the no-model fallback: name what was fetched so the
// formatter still has something truthful to present.
func mechanicalSummary(st *state.TurnState) string {
	var b strings.Builder
	b.WriteString("Data was retrieved for the following operations:\n")
	for _, r := range st.Results {
		if r.Success {
			fmt.Fprintf(&b, "- %s (%d bytes)\n", r.Operation, len(r.Data))
		}
	}
	return b.String()
}
