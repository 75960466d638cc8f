package agents

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/adsight/adsight/ai/llm"
	"github.com/adsight/adsight/chat/state"
)

// ClarifyTimePeriod is the prompt used when no time period can be resolved.
const ClarifyTimePeriod = "What time period would you like to analyze?"

const timeWindowSystemPrompt = `Extract analysis parameters from the user's question.
Respond with JSON only:
{
  "has_time_period": true or false,
  "period_keyword": "last 7 days" or "last month" or "yesterday" etc. or null,
  "start_date": "YYYY-MM-DD" or null,
  "end_date": "YYYY-MM-DD" or null,
  "entities": ["campaign or entity names mentioned"],
  "metrics": ["metrics mentioned, e.g. clicks, spend, impressions"],
  "filters": {"key": "value"}
}
If no time period is mentioned, set has_time_period to false.`

type timeWindowResponse struct {
	HasTimePeriod bool              `json:"has_time_period"`
	PeriodKeyword string            `json:"period_keyword"`
	StartDate     string            `json:"start_date"`
	EndDate       string            `json:"end_date"`
	Entities      []string          `json:"entities"`
	Metrics       []string          `json:"metrics"`
	Filters       map[string]string `json:"filters"`
}

// TimeWindowAgent extracts the analysis period, entities, metrics and
// filters from a question.
type TimeWindowAgent struct {
	llm   llm.Service
	clock clockwork.Clock
}

// NewTimeWindowAgent creates a time-window agent using the real clock.
func NewTimeWindowAgent(svc llm.Service) *TimeWindowAgent {
	return NewTimeWindowAgentWithClock(svc, clockwork.NewRealClock())
}

// NewTimeWindowAgentWithClock creates a time-window agent with an explicit
// clock so date math is testable.
func NewTimeWindowAgentWithClock(svc llm.Service, clock clockwork.Clock) *TimeWindowAgent {
	return &TimeWindowAgent{llm: svc, clock: clock}
}

// Extract resolves the time window for the turn.
//
// A window already carried in the session survives unless the new message
// names one. No window in either place suspends the turn on
// ClarifyTimePeriod. LLM failure falls back to the last 7 days rather than
// failing the turn.
func (a *TimeWindowAgent) Extract(ctx context.Context, st *state.TurnState) {
	content, _, err := a.llm.ChatWithOptions(ctx,
		llm.FormatMessages(timeWindowSystemPrompt, st.Question, nil),
		llm.CallOptions{MaxTokens: 400, Temperature: 0.1},
	)
	if err != nil {
		a.applyFallback(st, err)
		return
	}

	var resp timeWindowResponse
	if err := llm.DecodeJSON(content, &resp); err != nil {
		a.applyFallback(st, err)
		return
	}

	if len(resp.Entities) > 0 {
		st.Entities = resp.Entities
	}
	if len(resp.Metrics) > 0 {
		st.Metrics = resp.Metrics
	}
	if len(resp.Filters) > 0 {
		st.Filters = resp.Filters
	}

	if resp.HasTimePeriod {
		switch {
		case resp.PeriodKeyword != "":
			st.Window = a.ResolveKeyword(resp.PeriodKeyword, st.Domain)
		case resp.StartDate != "" && resp.EndDate != "":
			st.Window = state.TimeWindow{Start: resp.StartDate, End: resp.EndDate, Keyword: customKeyword(st.Domain)}
		}
	}

	if st.Window.IsZero() {
		// Nothing in the message and nothing carried over: ask.
		st.Suspend(ClarifyTimePeriod)
	}
}

func (a *TimeWindowAgent) applyFallback(st *state.TurnState, err error) {
	if !st.Window.IsZero() {
		slog.Warn("timewindow: extraction failed, keeping session window", "error", err)
		return
	}
	slog.Warn("timewindow: extraction failed, defaulting to last 7 days", "error", err)
	st.Window = a.ResolveKeyword("last 7 days", st.Domain)
	st.AddWarning("time period defaulted to last 7 days")
}

var lastNDaysRe = regexp.MustCompile(`(\d+)\s*day`)

// ResolveKeyword turns a natural-language period keyword into the window
// shape the domain's upstream API expects. Google Ads and intent insights
// use preset enums without dates; meta ads uses compact presets; the rest
// get computed dates.
func (a *TimeWindowAgent) ResolveKeyword(keyword string, domain state.Domain) state.TimeWindow {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	today := a.clock.Now()

	if domain == state.DomainMetaAds {
		return metaWindow(keyword)
	}

	if domain == state.DomainGoogleAds || domain == state.DomainIntentInsights {
		switch {
		case containsAny(keyword, "last 7 days", "past 7 days", "last week", "past week"):
			return state.TimeWindow{Keyword: "LAST_7_DAYS"}
		case containsAny(keyword, "last 30 days", "past 30 days", "last month", "past month"):
			return state.TimeWindow{Keyword: "LAST_30_DAYS"}
		case containsAny(keyword, "last 90 days", "past 90 days"):
			return state.TimeWindow{Keyword: "LAST_90_DAYS"}
		case containsAny(keyword, "last 365 days", "past year", "last year"):
			return state.TimeWindow{Keyword: "LAST_365_DAYS"}
		case strings.Contains(keyword, "this month"):
			start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
			return state.TimeWindow{Keyword: "CUSTOM", Start: fmtDate(start), End: fmtDate(today)}
		case strings.Contains(keyword, "yesterday"):
			y := today.AddDate(0, 0, -1)
			return state.TimeWindow{Keyword: "CUSTOM", Start: fmtDate(y), End: fmtDate(y)}
		}
		if m := lastNDaysRe.FindStringSubmatch(keyword); m != nil && strings.Contains(keyword, "last") {
			days, _ := strconv.Atoi(m[1])
			return state.TimeWindow{Keyword: fmt.Sprintf("LAST_%d_DAYS", days)}
		}
		slog.Warn("timewindow: unparsable period keyword, defaulting to last 7 days", "keyword", keyword)
		return state.TimeWindow{Keyword: "LAST_7_DAYS"}
	}

	// Date-ranged domains (analytics, facebook, instagram)
	switch {
	case strings.Contains(keyword, "yesterday"):
		y := today.AddDate(0, 0, -1)
		return state.TimeWindow{Keyword: "day", Start: fmtDate(y), End: fmtDate(y)}
	case strings.Contains(keyword, "this month"):
		start := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return state.TimeWindow{Keyword: "month", Start: fmtDate(start), End: fmtDate(today)}
	}
	if m := lastNDaysRe.FindStringSubmatch(keyword); m != nil && strings.Contains(keyword, "last") {
		days, _ := strconv.Atoi(m[1])
		return state.TimeWindow{Keyword: "day", Start: fmtDate(today.AddDate(0, 0, -days)), End: fmtDate(today)}
	}
	if containsAny(keyword, "last week", "past week") {
		return state.TimeWindow{Keyword: "day", Start: fmtDate(today.AddDate(0, 0, -7)), End: fmtDate(today)}
	}
	if containsAny(keyword, "last month", "past month") {
		return state.TimeWindow{Keyword: "day", Start: fmtDate(today.AddDate(0, 0, -30)), End: fmtDate(today)}
	}

	slog.Warn("timewindow: unparsable period keyword, defaulting to last 7 days", "keyword", keyword)
	return state.TimeWindow{Keyword: "day", Start: fmtDate(today.AddDate(0, 0, -7)), End: fmtDate(today)}
}

// metaWindow maps keywords to the compact presets the meta API takes.
func metaWindow(keyword string) state.TimeWindow {
	switch {
	case containsAny(keyword, "last 7 days", "past 7 days", "last week", "past week"):
		return state.TimeWindow{Keyword: "7d"}
	case containsAny(keyword, "last 30 days", "past 30 days", "last month", "past month"):
		return state.TimeWindow{Keyword: "30d"}
	case containsAny(keyword, "last 90 days", "past 90 days"):
		return state.TimeWindow{Keyword: "90d"}
	case containsAny(keyword, "last 365 days", "last year", "past year"):
		return state.TimeWindow{Keyword: "365d"}
	default:
		return state.TimeWindow{Keyword: "30d"}
	}
}

func customKeyword(domain state.Domain) string {
	switch domain {
	case state.DomainGoogleAds, state.DomainIntentInsights:
		return "CUSTOM"
	case state.DomainMetaAds:
		return "30d"
	default:
		return "day"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}
