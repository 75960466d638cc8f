package chat

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/adsight/adsight/ai/llm/llmtest"
	"github.com/adsight/adsight/chat/agents"
	"github.com/adsight/adsight/chat/executor"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
	"github.com/adsight/adsight/internal/profile"
	"github.com/adsight/adsight/store"
	"github.com/adsight/adsight/store/db/sqlite"
)

type scriptedInvoker struct {
	payload map[string]string
	fail    map[string]string
	calls   []executor.Call
	names   []string
}

func (s *scriptedInvoker) Invoke(_ context.Context, op registry.Operation, call executor.Call) state.OperationResult {
	s.calls = append(s.calls, call)
	s.names = append(s.names, op.Name)
	result := state.OperationResult{
		Operation: op.Name,
		Path:      op.Path,
		Method:    op.Method,
		Params:    call.Params,
		Attempts:  1,
		Timestamp: time.Now(),
	}
	if msg, ok := s.fail[op.Name]; ok {
		result.Error = msg
		return result
	}
	payload := s.payload[op.Name]
	if payload == "" {
		payload = `{"ok": true}`
	}
	result.Success = true
	result.StatusCode = 200
	result.Data = json.RawMessage(payload)
	return result
}

func agentsContext(accountID string) agents.ResolvedContext {
	return agents.ResolvedContext{AccountID: accountID}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Driver:          "sqlite",
		DSN:             filepath.Join(t.TempDir(), "chat.db") + "?_loc=auto",
		SessionTTLHours: 24,
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, driver.Migrate(context.Background()))
	return store.New(driver, p)
}

func newTestOrchestrator(t *testing.T, classifier, main *llmtest.MockLLM, invoker executor.Invoker) *Orchestrator {
	t.Helper()
	reg := registry.New()
	exec := executor.New(invoker, reg, executor.WithLimiter(rate.NewLimiter(rate.Inf, 1)))
	return NewOrchestrator(Config{
		MainLLM:       main,
		ClassifierLLM: classifier,
		Registry:      reg,
		Executor:      exec,
		Store:         newTestStore(t),
	})
}

// pipelineClassifier wires every cheap-model stage for an analytical
// campaign question.
func pipelineClassifier() *llmtest.MockLLM {
	return llmtest.NewMockLLM().
		WithResponse("classify user questions", "analytical").
		WithResponse("Extract analysis parameters",
			`{"has_time_period": true, "period_keyword": "last 30 days", "metrics": ["spend"]}`).
		WithResponse("granularity detection",
			`{"granularity_level": "campaign", "confidence": "high", "needs_clarification": false}`).
		WithResponse("select backend operations",
			`{"selected_operations": ["get_meta_campaigns_timeseries"], "reasoning": "timeseries answers a trend question"}`).
		WithResponse("Decide whether", `{"decision": "answer"}`)
}

func TestCampaignQuestionSuspendsAndResumes(t *testing.T) {
	classifier := pipelineClassifier()
	main := llmtest.NewMockLLM().
		WithResponse("Analyze the provided API results", "Summer Sale drove most of the spend at $10.50.").
		WithResponse("Rewrite the analysis", "Summer Sale leads spend.\n\n{{TABLE: campaign spend}}")
	invoker := &scriptedInvoker{payload: map[string]string{
		"get_meta_campaigns_list":       `{"campaigns": [{"id": "c1", "name": "Summer Sale", "status": "ACTIVE"}, {"id": "c2", "name": "Retargeting"}]}`,
		"get_meta_campaigns_timeseries": `[{"date": "2026-08-30", "spend": 10.5}, {"date": "2026-08-31", "spend": 8.2}]`,
	}}
	orch := newTestOrchestrator(t, classifier, main, invoker)

	first, err := orch.HandleMessage(context.Background(), Request{
		Message:   "How did my campaigns perform over the last 30 days?",
		Domain:    state.DomainMetaAds,
		UserEmail: "ops@example.com",
		Context:   agentsContext("act_1"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, first.SessionID)
	assert.Empty(t, first.AnswerText)
	assert.Contains(t, first.ClarificationPrompt, "Which campaigns")
	require.Len(t, first.CandidateOptions, 2)
	assert.False(t, first.IsComplete)
	assert.Equal(t, []string{"get_meta_campaigns_list"}, first.OperationsInvoked)

	second, err := orch.HandleMessage(context.Background(), Request{
		Message:   "1",
		Domain:    state.DomainMetaAds,
		SessionID: first.SessionID,
		UserEmail: "ops@example.com",
		Context:   agentsContext("act_1"),
	})
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Empty(t, second.ClarificationPrompt)
	assert.True(t, second.IsComplete)
	assert.Contains(t, second.AnswerText, "Summer Sale leads spend.")
	assert.NotContains(t, second.AnswerText, "{{TABLE")
	require.NotNil(t, second.Visualization)
	assert.True(t, second.Visualization.HasTable)
	assert.Equal(t, []string{"get_meta_campaigns_timeseries"}, second.OperationsInvoked)

	// The resumed turn runs against the first campaign only.
	last := invoker.calls[len(invoker.calls)-1]
	assert.Equal(t, []string{"c1"}, last.Body["campaign_ids"])
	assert.Equal(t, "30d", last.Params["period"])
}

func TestAccountWithoutCampaignsCompletesWithWarning(t *testing.T) {
	classifier := pipelineClassifier()
	main := llmtest.NewMockLLM()
	invoker := &scriptedInvoker{payload: map[string]string{
		"get_meta_campaigns_list": `{"campaigns": []}`,
	}}
	orch := newTestOrchestrator(t, classifier, main, invoker)

	resp, err := orch.HandleMessage(context.Background(), Request{
		Message: "How did my campaigns perform over the last 30 days?",
		Domain:  state.DomainMetaAds,
		Context: agentsContext("act_1"),
	})
	require.NoError(t, err)

	assert.True(t, resp.IsComplete)
	assert.Empty(t, resp.ClarificationPrompt)
	assert.Contains(t, resp.AnswerText, "No campaigns found")
	assert.Equal(t, []string{"get_meta_campaigns_list"}, resp.OperationsInvoked,
		"no analysis operations run against an empty account")
}

func TestCandidateFetchFailureTerminatesTurn(t *testing.T) {
	classifier := pipelineClassifier()
	main := llmtest.NewMockLLM()
	invoker := &scriptedInvoker{fail: map[string]string{
		"get_meta_campaigns_list": "upstream returned 500",
	}}
	orch := newTestOrchestrator(t, classifier, main, invoker)

	resp, err := orch.HandleMessage(context.Background(), Request{
		Message: "How did my campaigns perform over the last 30 days?",
		Domain:  state.DomainMetaAds,
		Context: agentsContext("act_1"),
	})
	require.NoError(t, err)

	assert.True(t, resp.IsComplete)
	assert.Empty(t, resp.ClarificationPrompt)
	assert.Contains(t, resp.AnswerText, "upstream returned 500")
	assert.Equal(t, []string{"get_meta_campaigns_list"}, resp.OperationsInvoked,
		"no analysis operations after a failed listing")
	assert.Zero(t, main.Calls(), "synthesis is skipped when nothing was fetched")
}

func TestAllOperationsFailedSurfacesErrors(t *testing.T) {
	classifier := pipelineClassifier()
	main := llmtest.NewMockLLM().WithDefaultResponse("Everything looks great!")
	invoker := &scriptedInvoker{
		payload: map[string]string{
			"get_meta_campaigns_list": `{"campaigns": [{"id": "c1", "name": "Summer Sale"}]}`,
		},
		fail: map[string]string{
			"get_meta_campaigns_timeseries": "upstream returned 503",
		},
	}
	orch := newTestOrchestrator(t, classifier, main, invoker)

	first, err := orch.HandleMessage(context.Background(), Request{
		Message: "How did my campaigns perform over the last 30 days?",
		Domain:  state.DomainMetaAds,
		Context: agentsContext("act_1"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ClarificationPrompt)

	second, err := orch.HandleMessage(context.Background(), Request{
		Message:   "1",
		Domain:    state.DomainMetaAds,
		SessionID: first.SessionID,
		Context:   agentsContext("act_1"),
	})
	require.NoError(t, err)

	assert.True(t, second.IsComplete)
	assert.Contains(t, second.AnswerText, "get_meta_campaigns_timeseries failed")
	assert.Contains(t, second.AnswerText, "upstream returned 503")
	assert.NotContains(t, second.AnswerText, "Everything looks great!")
	assert.Zero(t, main.Calls(), "the model must not reformat an all-failure answer")
}

func TestEmptyLevelAnswerOmitsUnrelatedWarnings(t *testing.T) {
	classifier := llmtest.NewMockLLM().
		WithResponse("classify user questions", "analytical").
		WithResponse("Extract analysis parameters", "not json"). // time window falls back with a warning
		WithResponse("granularity detection",
			`{"granularity_level": "campaign", "confidence": "high", "needs_clarification": false}`)
	invoker := &scriptedInvoker{payload: map[string]string{
		"get_meta_campaigns_list": `{"campaigns": []}`,
	}}
	orch := newTestOrchestrator(t, classifier, llmtest.NewMockLLM(), invoker)

	resp, err := orch.HandleMessage(context.Background(), Request{
		Message: "How did my campaigns perform?",
		Domain:  state.DomainMetaAds,
		Context: agentsContext("act_1"),
	})
	require.NoError(t, err)

	assert.True(t, resp.IsComplete)
	assert.Equal(t, "No campaigns found for this account.", resp.AnswerText)
}

func TestChitchatAnswersDirectly(t *testing.T) {
	classifier := llmtest.NewMockLLM().WithResponse("classify user questions", "chitchat")
	main := llmtest.NewMockLLM().WithDefaultResponse("Hello! Ask me about your ad performance.")
	invoker := &scriptedInvoker{}
	orch := newTestOrchestrator(t, classifier, main, invoker)

	resp, err := orch.HandleMessage(context.Background(), Request{
		Message: "hi there",
		Domain:  state.DomainMetaAds,
	})
	require.NoError(t, err)

	assert.True(t, resp.IsComplete)
	assert.Contains(t, resp.AnswerText, "Hello!")
	assert.Empty(t, resp.OperationsInvoked)
	assert.Empty(t, invoker.names)
}

func TestMissingAccountAsksForIt(t *testing.T) {
	classifier := pipelineClassifier()
	orch := newTestOrchestrator(t, classifier, llmtest.NewMockLLM(), &scriptedInvoker{})

	resp, err := orch.HandleMessage(context.Background(), Request{
		Message: "How did my campaigns perform over the last 30 days?",
		Domain:  state.DomainMetaAds,
	})
	require.NoError(t, err)

	assert.False(t, resp.IsComplete)
	assert.Contains(t, resp.ClarificationPrompt, "Which ad account")
}

func TestMissingPeriodAsksForIt(t *testing.T) {
	classifier := llmtest.NewMockLLM().
		WithResponse("classify user questions", "analytical").
		WithResponse("Extract analysis parameters", `{"has_time_period": false}`)
	orch := newTestOrchestrator(t, classifier, llmtest.NewMockLLM(), &scriptedInvoker{})

	resp, err := orch.HandleMessage(context.Background(), Request{
		Message: "How did my campaigns perform?",
		Domain:  state.DomainMetaAds,
		Context: agentsContext("act_1"),
	})
	require.NoError(t, err)

	assert.False(t, resp.IsComplete)
	assert.Contains(t, resp.ClarificationPrompt, "What time period")
}

func TestUnmatchedSelectionReasks(t *testing.T) {
	classifier := pipelineClassifier()
	invoker := &scriptedInvoker{payload: map[string]string{
		"get_meta_campaigns_list": `{"campaigns": [{"id": "c1", "name": "Summer Sale"}]}`,
	}}
	orch := newTestOrchestrator(t, classifier, llmtest.NewMockLLM(), invoker)

	first, err := orch.HandleMessage(context.Background(), Request{
		Message: "How did my campaigns perform over the last 30 days?",
		Domain:  state.DomainMetaAds,
		Context: agentsContext("act_1"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ClarificationPrompt)

	second, err := orch.HandleMessage(context.Background(), Request{
		Message:   "the purple one",
		Domain:    state.DomainMetaAds,
		SessionID: first.SessionID,
		Context:   agentsContext("act_1"),
	})
	require.NoError(t, err)

	assert.False(t, second.IsComplete)
	assert.Contains(t, second.ClarificationPrompt, "couldn't match")
	require.Len(t, second.CandidateOptions, 1)
}

func TestRequestValidation(t *testing.T) {
	orch := newTestOrchestrator(t, llmtest.NewMockLLM(), llmtest.NewMockLLM(), &scriptedInvoker{})

	_, err := orch.HandleMessage(context.Background(), Request{Domain: state.DomainMetaAds})
	assert.Error(t, err)

	_, err = orch.HandleMessage(context.Background(), Request{Message: "hi", Domain: "crypto_ads"})
	assert.Error(t, err)
}

func TestUnknownSessionStartsFresh(t *testing.T) {
	classifier := llmtest.NewMockLLM().WithResponse("classify user questions", "chitchat")
	main := llmtest.NewMockLLM().WithDefaultResponse("Hi!")
	orch := newTestOrchestrator(t, classifier, main, &scriptedInvoker{})

	resp, err := orch.HandleMessage(context.Background(), Request{
		Message:   "hello",
		Domain:    state.DomainMetaAds,
		SessionID: "never-seen-before",
	})
	require.NoError(t, err)
	assert.Equal(t, "never-seen-before", resp.SessionID)
	assert.True(t, resp.IsComplete)
}
