package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsight/adsight/ai/llm/llmtest"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
)

func TestIntentClassify(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		fail     bool
		want     state.IntentType
	}{
		{name: "chitchat", response: "chitchat", want: state.IntentChitchat},
		{name: "analytical", response: "analytical", want: state.IntentAnalytical},
		{name: "padded response", response: "  Analytical \n", want: state.IntentAnalytical},
		{name: "garbage defaults to analytical", response: "I think this is a data question", want: state.IntentAnalytical},
		{name: "llm failure defaults to analytical", fail: true, want: state.IntentAnalytical},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := llmtest.NewMockLLM().WithDefaultResponse(tc.response)
			if tc.fail {
				mock.WithError(errors.New("provider down"))
			}
			c := NewIntentClassifier(mock)
			assert.Equal(t, tc.want, c.Classify(context.Background(), "how are my ads doing"))
		})
	}
}

func TestChitchatFallsBackToCannedReply(t *testing.T) {
	mock := llmtest.NewMockLLM().WithError(errors.New("provider down"))
	r := NewChitchatResponder(mock)

	info := registry.New().Info(state.DomainMetaAds)
	reply := r.Respond(context.Background(), "hello", info)
	assert.Contains(t, reply, "Facebook/Instagram ad campaigns")
}

func TestResolveKeyword(t *testing.T) {
	// 2026-09-01 fixed so computed dates are stable
	clock := clockwork.NewFakeClockAt(time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC))
	a := NewTimeWindowAgentWithClock(llmtest.NewMockLLM(), clock)

	testCases := []struct {
		name    string
		keyword string
		domain  state.Domain
		want    state.TimeWindow
	}{
		{
			name:    "google ads preset",
			keyword: "last 7 days",
			domain:  state.DomainGoogleAds,
			want:    state.TimeWindow{Keyword: "LAST_7_DAYS"},
		},
		{
			name:    "google ads last month",
			keyword: "past month",
			domain:  state.DomainGoogleAds,
			want:    state.TimeWindow{Keyword: "LAST_30_DAYS"},
		},
		{
			name:    "google ads yesterday is custom",
			keyword: "yesterday",
			domain:  state.DomainIntentInsights,
			want:    state.TimeWindow{Keyword: "CUSTOM", Start: "2026-08-31", End: "2026-08-31"},
		},
		{
			name:    "google ads arbitrary day count",
			keyword: "last 14 days",
			domain:  state.DomainGoogleAds,
			want:    state.TimeWindow{Keyword: "LAST_14_DAYS"},
		},
		{
			name:    "meta compact preset",
			keyword: "last week",
			domain:  state.DomainMetaAds,
			want:    state.TimeWindow{Keyword: "7d"},
		},
		{
			name:    "meta default",
			keyword: "recently I guess",
			domain:  state.DomainMetaAds,
			want:    state.TimeWindow{Keyword: "30d"},
		},
		{
			name:    "analytics computed dates",
			keyword: "last 30 days",
			domain:  state.DomainGoogleAnalytics,
			want:    state.TimeWindow{Keyword: "day", Start: "2026-08-02", End: "2026-09-01"},
		},
		{
			name:    "analytics this month",
			keyword: "this month",
			domain:  state.DomainGoogleAnalytics,
			want:    state.TimeWindow{Keyword: "month", Start: "2026-09-01", End: "2026-09-01"},
		},
		{
			name:    "analytics default",
			keyword: "whenever",
			domain:  state.DomainFacebook,
			want:    state.TimeWindow{Keyword: "day", Start: "2026-08-25", End: "2026-09-01"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.ResolveKeyword(tc.keyword, tc.domain))
		})
	}
}

func TestExtractSuspendsWithoutPeriod(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse(`{"has_time_period": false}`)
	a := NewTimeWindowAgent(mock)

	st := &state.TurnState{Question: "how are my campaigns doing", Domain: state.DomainMetaAds}
	a.Extract(context.Background(), st)

	require.True(t, st.NeedsClarification())
	assert.Equal(t, ClarifyTimePeriod, st.PendingClarification)
	assert.False(t, st.IsComplete)
}

func TestExtractKeepsSessionWindow(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse(`{"has_time_period": false}`)
	a := NewTimeWindowAgent(mock)

	st := &state.TurnState{
		Question: "and how about ad sets",
		Domain:   state.DomainMetaAds,
		Window:   state.TimeWindow{Keyword: "90d"},
	}
	a.Extract(context.Background(), st)

	assert.False(t, st.NeedsClarification())
	assert.Equal(t, "90d", st.Window.Keyword)
}

func TestExtractFallsBackOnGarbage(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		fail     bool
	}{
		{name: "malformed json", response: "sure! here you go: {broken"},
		{name: "llm failure", fail: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := llmtest.NewMockLLM().WithDefaultResponse(tc.response)
			if tc.fail {
				mock.WithError(errors.New("provider down"))
			}
			a := NewTimeWindowAgent(mock)

			st := &state.TurnState{Question: "campaign performance last week", Domain: state.DomainMetaAds}
			a.Extract(context.Background(), st)

			assert.False(t, st.NeedsClarification(), "fallback must not ask the user")
			assert.Equal(t, "7d", st.Window.Keyword)
			assert.NotEmpty(t, st.Warnings)
		})
	}
}

func TestExtractParsesFencedJSON(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse(
		"```json\n{\"has_time_period\": true, \"period_keyword\": \"last 30 days\", \"metrics\": [\"spend\"]}\n```")
	a := NewTimeWindowAgent(mock)

	st := &state.TurnState{Question: "spend in the last 30 days", Domain: state.DomainMetaAds}
	a.Extract(context.Background(), st)

	assert.Equal(t, "30d", st.Window.Keyword)
	assert.Equal(t, []string{"spend"}, st.Metrics)
}

func TestResolveAccount(t *testing.T) {
	testCases := []struct {
		name        string
		domain      state.Domain
		rc          ResolvedContext
		carried     string
		wantID      string
		wantSuspend bool
	}{
		{name: "meta from context", domain: state.DomainMetaAds, rc: ResolvedContext{AccountID: "act_1"}, wantID: "act_1"},
		{name: "google ads uses customer id", domain: state.DomainGoogleAds, rc: ResolvedContext{CustomerID: "123"}, wantID: "123"},
		{name: "analytics uses property id", domain: state.DomainGoogleAnalytics, rc: ResolvedContext{PropertyID: "p9"}, wantID: "p9"},
		{name: "carried from session", domain: state.DomainMetaAds, carried: "act_7", wantID: "act_7"},
		{name: "missing suspends", domain: state.DomainMetaAds, wantSuspend: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			st := &state.TurnState{Domain: tc.domain, AccountID: tc.carried}
			ResolveAccount(st, tc.rc)

			assert.Equal(t, tc.wantID, st.AccountID)
			assert.Equal(t, tc.wantSuspend, st.NeedsClarification())
		})
	}
}
