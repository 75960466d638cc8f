package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/adsight/adsight/ai/llm"
	"github.com/adsight/adsight/chat/state"
)

const (
	formatTemperature = 0.4
	formatMaxTokens   = 1500
)

const formatSystemPrompt = `You are a marketing analytics assistant. Rewrite the analysis below as a clear, friendly markdown answer to the user's question.

Rules:
- Lead with the direct answer, then supporting detail.
- Keep every concrete number from the analysis.
- Where a table of entities would help, insert a marker on its own line: {{TABLE: short description}}
- Where a chart would help, insert a marker on its own line: {{CHART: line|bar|pie, short description}}
- At most one table marker and one chart marker.
- Do not invent data.`

var (
	tableMarkerRe = regexp.MustCompile(`\{\{TABLE:\s*([^}]+)\}\}`)
	chartMarkerRe = regexp.MustCompile(`\{\{CHART:\s*([a-zA-Z]+)\s*,\s*([^}]+)\}\}`)
)

// Formatter renders the final answer and pulls visualization markers out of
// it.
type Formatter struct {
	llm llm.Service
}

func NewFormatter(service llm.Service) *Formatter {
	return &Formatter{llm: service}
}

// Format fills st.Answer and st.Visualization from st.Insights. A model
// failure leaves the raw insights as the answer rather than failing the
// turn.
func (f *Formatter) Format(ctx context.Context, st *state.TurnState) {
	if strings.TrimSpace(st.Insights) == "" {
		st.Answer = "I couldn't retrieve any data to answer that question."
		return
	}

	user := fmt.Sprintf("Question: %s\n\nAnalysis:\n%s", st.Question, st.Insights)
	content, _, err := f.llm.ChatWithOptions(ctx,
		[]llm.Message{llm.SystemPrompt(formatSystemPrompt), llm.UserMessage(user)},
		llm.CallOptions{MaxTokens: formatMaxTokens, Temperature: formatTemperature})
	if err != nil || strings.TrimSpace(content) == "" {
		slog.Warn("synthesis: format call failed, answering with raw insights", "error", err)
		st.AddWarning("formatting degraded: model unavailable")
		st.Answer = st.Insights
		return
	}

	answer, viz := extractMarkers(content, st.Results)
	st.Answer = answer
	st.Visualization = viz
}

// ErrorSummary builds the no-data answer mechanically from the turn's
// recorded errors and warnings. Used when every operation failed, so the
// failure details always reach the user verbatim.
func ErrorSummary(st *state.TurnState) string {
	var b strings.Builder
	b.WriteString("I couldn't retrieve the data needed to answer that question.")
	if len(st.Errors) > 0 {
		b.WriteString("\n\nWhat went wrong:\n")
		for _, e := range st.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
	}
	for _, w := range st.Warnings {
		fmt.Fprintf(&b, "\nNote: %s", w)
	}
	b.WriteString("\n\nPlease try again in a few minutes.")
	return b.String()
}

// extractMarkers removes {{TABLE}}/{{CHART}} markers from the answer and
// materializes them against the fetched data.
func extractMarkers(content string, results []state.OperationResult) (string, *state.Visualization) {
	viz := &state.Visualization{}

	for _, m := range tableMarkerRe.FindAllStringSubmatch(content, -1) {
		spec := state.TableSpec{Description: strings.TrimSpace(m[1])}
		if cols, rows := tableFromResults(results); len(rows) > 0 {
			spec.Columns = cols
			spec.Rows = rows
		}
		viz.Tables = append(viz.Tables, spec)
	}
	for _, m := range chartMarkerRe.FindAllStringSubmatch(content, -1) {
		spec := state.ChartSpec{
			Type:        strings.ToLower(strings.TrimSpace(m[1])),
			Description: strings.TrimSpace(m[2]),
		}
		if labels, datasets := seriesFromResults(results); len(labels) > 0 {
			spec.Labels = labels
			spec.Datasets = datasets
		}
		viz.Charts = append(viz.Charts, spec)
	}

	viz.HasTable = len(viz.Tables) > 0
	viz.HasChart = len(viz.Charts) > 0

	answer := tableMarkerRe.ReplaceAllString(content, "")
	answer = chartMarkerRe.ReplaceAllString(answer, "")
	answer = collapseBlankLines(strings.TrimSpace(answer))

	if !viz.HasTable && !viz.HasChart {
		return answer, nil
	}
	return answer, viz
}

var blankLinesRe = regexp.MustCompile(`\n{3,}`)

func collapseBlankLines(s string) string {
	return blankLinesRe.ReplaceAllString(s, "\n\n")
}
