// Package agents holds the LLM-backed parameter agents of the pipeline:
// intent classification, chitchat response, time-window extraction and
// account resolution. Every agent degrades to a documented default when the
// LLM misbehaves.
package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adsight/adsight/ai/llm"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
)

const intentSystemPrompt = `You classify user questions about advertising and analytics data.
Reply with exactly one word:
- "chitchat" for greetings, small talk, or questions about what you can do
- "analytical" for anything that asks about data, performance, or metrics
No other output.`

// IntentClassifier decides whether a message is chitchat or analytical.
type IntentClassifier struct {
	llm llm.Service
}

// NewIntentClassifier creates an intent classifier on the given service.
func NewIntentClassifier(svc llm.Service) *IntentClassifier {
	return &IntentClassifier{llm: svc}
}

// Classify returns the intent of a message. Any invalid or failed LLM
// response defaults to analytical, so data questions are never dropped.
func (c *IntentClassifier) Classify(ctx context.Context, question string) state.IntentType {
	content, _, err := c.llm.ChatWithOptions(ctx,
		llm.FormatMessages(intentSystemPrompt, question, nil),
		llm.CallOptions{MaxTokens: 10, Temperature: 0.1},
	)
	if err != nil {
		slog.Warn("intent: classification failed, defaulting to analytical", "error", err)
		return state.IntentAnalytical
	}

	switch strings.ToLower(strings.TrimSpace(content)) {
	case "chitchat":
		return state.IntentChitchat
	case "analytical":
		return state.IntentAnalytical
	default:
		slog.Warn("intent: unclear classification, defaulting to analytical", "response", content)
		return state.IntentAnalytical
	}
}

// ChitchatResponder answers non-analytical messages directly.
type ChitchatResponder struct {
	llm llm.Service
}

// NewChitchatResponder creates a chitchat responder on the given service.
func NewChitchatResponder(svc llm.Service) *ChitchatResponder {
	return &ChitchatResponder{llm: svc}
}

// Respond produces a short conversational reply that mentions what the
// current domain can answer. On LLM failure it falls back to a canned
// capability summary.
func (r *ChitchatResponder) Respond(ctx context.Context, question string, info registry.DomainInfo) string {
	system := fmt.Sprintf(`You are a friendly analytics assistant for %s data.
You can help with: %s.
Reply briefly and invite the user to ask a data question.`,
		info.Domain, strings.Join(info.Capabilities, ", "))

	content, _, err := r.llm.ChatWithOptions(ctx,
		llm.FormatMessages(system, question, nil),
		llm.CallOptions{MaxTokens: 300, Temperature: 0.7},
	)
	if err != nil || strings.TrimSpace(content) == "" {
		slog.Warn("chitchat: direct response failed, using canned reply", "error", err)
		return fmt.Sprintf("Hi! I can help you with %s. Ask me about %s.",
			info.Description, strings.Join(info.Capabilities, ", "))
	}
	return content
}
