// Package granularity resolves how deep in the Account, Campaign, AdSet, Ad
// hierarchy a question should be answered, asking the user to pick entities
// at each level on the way down.
package granularity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adsight/adsight/ai/llm"
	"github.com/adsight/adsight/chat/state"
)

// Phase names the states of the resolution machine.
type Phase string

const (
	PhaseDetect        Phase = "DETECT"
	PhaseSelectAtLevel Phase = "SELECT_AT_LEVEL"
	PhaseLevelDecision Phase = "LEVEL_DECISION"
	PhaseTerminal      Phase = "TERMINAL"
)

// Outcome is what a resolution pass produced.
type Outcome string

const (
	// OutcomeReady means the level and selections are fixed; operation
	// selection can proceed.
	OutcomeReady Outcome = "ready"
	// OutcomeClarify means the turn suspended on a user choice.
	OutcomeClarify Outcome = "clarify"
	// OutcomeEmpty means a level had no entities; the turn completes with a
	// warning and no analysis operations.
	OutcomeEmpty Outcome = "empty"
	// OutcomeFailed means candidate listing failed; the turn completes with
	// an error recorded and no analysis operations.
	OutcomeFailed Outcome = "failed"
)

// maxCandidateOptions caps how many entities a clarification offers.
const maxCandidateOptions = 25

// CandidateFetcher enumerates the entities available at a level, scoped by
// the selections already made above it.
type CandidateFetcher interface {
	FetchCandidates(ctx context.Context, st *state.TurnState, level state.GranularityLevel) ([]state.Candidate, error)
}

// Controller drives granularity resolution for hierarchy-aware domains.
type Controller struct {
	llm     llm.Service
	fetcher CandidateFetcher
}

// New creates a controller.
func New(svc llm.Service, fetcher CandidateFetcher) *Controller {
	return &Controller{llm: svc, fetcher: fetcher}
}

// CurrentPhase is the pure transition-source function: it names the machine
// state implied by the turn state alone.
func CurrentPhase(st *state.TurnState) Phase {
	if st.Level.Depth() < 0 {
		return PhaseDetect
	}
	if st.Level == state.LevelAccount {
		return PhaseTerminal
	}
	if nextUnselected(st) != state.LevelUnknown {
		return PhaseSelectAtLevel
	}
	if st.Level != state.LevelAd {
		return PhaseLevelDecision
	}
	return PhaseTerminal
}

// nextUnselected returns the shallowest level between the deepest selection
// and the target that still lacks selections, or LevelUnknown when the chain
// is complete. Levels at or above an existing selection are never re-asked:
// adset IDs provided up front make campaign selection unnecessary.
func nextUnselected(st *state.TurnState) state.GranularityLevel {
	deepest := deepestSelected(st)
	for _, level := range []state.GranularityLevel{state.LevelCampaign, state.LevelAdSet, state.LevelAd} {
		if level.Depth() <= deepest.Depth() {
			continue
		}
		if level.Depth() > st.Level.Depth() {
			break
		}
		if len(st.SelectedAt(level)) == 0 {
			return level
		}
	}
	return state.LevelUnknown
}

// Resolve runs the machine until the turn is ready, suspended, or empty.
func (c *Controller) Resolve(ctx context.Context, st *state.TurnState) Outcome {
	// Bounded by hierarchy depth; the loop can only move forward.
	for i := 0; i < 8; i++ {
		switch CurrentPhase(st) {
		case PhaseDetect:
			if outcome := c.detect(ctx, st); outcome != "" {
				return outcome
			}

		case PhaseSelectAtLevel:
			level := nextUnselected(st)
			if outcome := c.selectAtLevel(ctx, st, level); outcome != "" {
				return outcome
			}

		case PhaseLevelDecision:
			if !c.shouldDrillDeeper(ctx, st) {
				return OutcomeReady
			}
			st.SetLevel(st.Level.Next())

		case PhaseTerminal:
			return OutcomeReady
		}
	}

	slog.Error("granularity: resolution did not converge", "session", st.SessionID)
	return OutcomeReady
}

const detectSystemPrompt = `You are a granularity detection agent for ads analytics.

Determine the DEPTH LEVEL of the user's query from the entities it mentions.

Levels (shallow to deep):
1. account - no mention of campaigns, ad sets, or ads; overall metrics
2. campaign - mentions campaigns but not ad sets or ads
3. adset - mentions ad sets but not individual ads
4. ad - mentions specific ads or creatives

Rules:
- Prioritize the deepest level mentioned
- If nothing specific is mentioned, return "account"
- If ambiguous, return "account" with needs_clarification true

Return ONLY JSON:
{
  "granularity_level": "account|campaign|adset|ad",
  "confidence": "high|medium|low",
  "reasoning": "brief explanation",
  "needs_clarification": true/false,
  "suggested_clarification": "question to ask if needs_clarification is true"
}`

type detectResponse struct {
	GranularityLevel       string `json:"granularity_level"`
	Confidence             string `json:"confidence"`
	Reasoning              string `json:"reasoning"`
	NeedsClarification     bool   `json:"needs_clarification"`
	SuggestedClarification string `json:"suggested_clarification"`
}

// detect fixes the target level. Returns a non-empty outcome only when the
// machine should stop (clarification).
func (c *Controller) detect(ctx context.Context, st *state.TurnState) Outcome {
	// IDs provided up front imply the level, deepest first.
	switch {
	case len(st.AdIDs) > 0:
		st.SetLevel(state.LevelAd)
		return ""
	case len(st.AdSetIDs) > 0:
		st.SetLevel(state.LevelAdSet)
		return ""
	case len(st.CampaignIDs) > 0:
		st.SetLevel(state.LevelCampaign)
		return ""
	}

	content, _, err := c.llm.ChatWithOptions(ctx,
		llm.FormatMessages(detectSystemPrompt,
			"Analyze this query and determine the granularity level: "+st.Question, nil),
		llm.CallOptions{MaxTokens: 300, Temperature: 0.1},
	)
	if err != nil {
		slog.Warn("granularity: detection failed, defaulting to account level", "error", err)
		st.AddWarning("granularity detection failed, analyzing at account level")
		st.SetLevel(state.LevelAccount)
		return ""
	}

	var resp detectResponse
	if err := llm.DecodeJSON(content, &resp); err != nil {
		slog.Warn("granularity: malformed detection response, defaulting to account level", "error", err)
		st.AddWarning("granularity detection failed, analyzing at account level")
		st.SetLevel(state.LevelAccount)
		return ""
	}

	level := state.GranularityLevel(resp.GranularityLevel)
	if level.Depth() < 0 {
		slog.Warn("granularity: unknown level in detection response, defaulting to account", "level", resp.GranularityLevel)
		st.SetLevel(state.LevelAccount)
		return ""
	}

	if resp.NeedsClarification || resp.Confidence == "low" {
		prompt := resp.SuggestedClarification
		if prompt == "" {
			prompt = "Please specify what level you'd like to analyze: campaigns, ad sets, or individual ads?"
		}
		st.Suspend(prompt)
		return OutcomeClarify
	}

	slog.Info("granularity: level detected", "level", level, "confidence", resp.Confidence)
	st.SetLevel(level)
	return ""
}

// selectAtLevel fetches candidates at a level and suspends on the choice.
// Returns a non-empty outcome when the machine should stop.
func (c *Controller) selectAtLevel(ctx context.Context, st *state.TurnState, level state.GranularityLevel) Outcome {
	candidates, err := c.fetcher.FetchCandidates(ctx, st, level)
	if err != nil {
		// Without the entity list there is nothing valid to select or
		// execute. The level stays where detection put it.
		slog.Error("granularity: candidate fetch failed", "level", level, "error", err)
		st.AddError(fmt.Sprintf("Candidate listing failed at %s level: %v", level, err))
		st.Complete()
		return OutcomeFailed
	}

	if len(candidates) == 0 {
		msg := fmt.Sprintf("No %ss found for this account.", level)
		st.AddWarning(msg)
		st.Answer = msg
		st.Complete()
		return OutcomeEmpty
	}

	if len(candidates) > maxCandidateOptions {
		st.AddWarning(fmt.Sprintf("showing the first %d of %d %ss", maxCandidateOptions, len(candidates), level))
		candidates = candidates[:maxCandidateOptions]
	}

	st.Candidates = candidates
	st.Suspend(selectionPrompt(level, candidates))
	return OutcomeClarify
}

// deepestSelected returns the deepest level with selections, or account.
func deepestSelected(st *state.TurnState) state.GranularityLevel {
	for _, level := range []state.GranularityLevel{state.LevelAd, state.LevelAdSet, state.LevelCampaign} {
		if len(st.SelectedAt(level)) > 0 {
			return level
		}
	}
	return state.LevelAccount
}

func selectionPrompt(level state.GranularityLevel, candidates []state.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Which %ss would you like to analyze?\n", level)
	for i, cand := range candidates {
		fmt.Fprintf(&b, "%d. %s", i+1, cand.Name)
		if cand.Status != "" {
			fmt.Fprintf(&b, " (%s)", cand.Status)
		}
		b.WriteString("\n")
	}
	b.WriteString("Reply with numbers, names, or \"all\".")
	return b.String()
}

const decisionSystemPrompt = `The user asked a question about ads performance. Entities have been
selected at the current hierarchy level. Decide whether the question is
answerable with metrics at this level, or requires drilling one level deeper.

Return ONLY JSON: {"decision": "answer"} or {"decision": "deeper"}`

type decisionResponse struct {
	Decision string `json:"decision"`
}

// shouldDrillDeeper asks whether the question needs the next level down.
// Any failure or ambiguity answers at the current level; shallower is always
// valid and never regresses.
func (c *Controller) shouldDrillDeeper(ctx context.Context, st *state.TurnState) bool {
	prompt := fmt.Sprintf("Question: %s\nCurrent level: %s\nSelected: %s",
		st.Question, st.Level, strings.Join(st.SelectedAt(st.Level), ", "))

	content, _, err := c.llm.ChatWithOptions(ctx,
		llm.FormatMessages(decisionSystemPrompt, prompt, nil),
		llm.CallOptions{MaxTokens: 50, Temperature: 0.1},
	)
	if err != nil {
		slog.Warn("granularity: level decision failed, answering at current level", "level", st.Level, "error", err)
		return false
	}

	var resp decisionResponse
	if err := llm.DecodeJSON(content, &resp); err != nil {
		slog.Warn("granularity: malformed level decision, answering at current level", "error", err)
		return false
	}

	return resp.Decision == "deeper"
}
