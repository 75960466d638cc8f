package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGranularityOnlyAdvances(t *testing.T) {
	testCases := []struct {
		name  string
		steps []GranularityLevel
		want  GranularityLevel
	}{
		{
			name:  "normal drill down",
			steps: []GranularityLevel{LevelAccount, LevelCampaign, LevelAdSet},
			want:  LevelAdSet,
		},
		{
			name:  "regression ignored",
			steps: []GranularityLevel{LevelAdSet, LevelCampaign, LevelAccount},
			want:  LevelAdSet,
		},
		{
			name:  "unknown ignored",
			steps: []GranularityLevel{LevelCampaign, LevelUnknown},
			want:  LevelCampaign,
		},
		{
			name:  "repeat is a no-op",
			steps: []GranularityLevel{LevelAd, LevelAd},
			want:  LevelAd,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var s TurnState
			for _, level := range tc.steps {
				s.SetLevel(level)
			}
			assert.Equal(t, tc.want, s.Level)
		})
	}
}

func TestSuspendClearsCompletion(t *testing.T) {
	var s TurnState
	s.Complete()
	require.True(t, s.IsComplete)

	s.Suspend("Which campaigns?")
	assert.True(t, s.NeedsClarification())
	assert.False(t, s.IsComplete, "a suspended turn must never be complete")

	s.Complete()
	assert.False(t, s.NeedsClarification())
	assert.True(t, s.IsComplete)
}

func TestSetSelectionClearsCandidates(t *testing.T) {
	s := TurnState{
		Candidates: []Candidate{{ID: "c1", Name: "Spring Sale"}, {ID: "c2", Name: "Summer Sale"}},
	}
	s.SetSelection(LevelCampaign, []string{"c1"}, []string{"Spring Sale"})

	assert.Nil(t, s.Candidates, "candidate list must be cleared once IDs are selected")
	assert.Equal(t, []string{"c1"}, s.CampaignIDs)
	assert.Equal(t, []string{"c1"}, s.SelectedAt(LevelCampaign))
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := &TurnState{
		Question:    "how did my campaigns do last week",
		Domain:      DomainMetaAds,
		SessionID:   "sess-1",
		UserEmail:   "alice@example.com",
		AuthToken:   "secret-token",
		Intent:      IntentAnalytical,
		Window:      TimeWindow{Keyword: "7d"},
		AccountID:   "act_42",
		Level:       LevelCampaign,
		CampaignIDs: []string{"c1", "c2"},
		Answer:      "stale answer",
		Errors:      []string{"stale error"},
	}
	s.Suspend("Which campaigns would you like to analyze?")

	raw, err := Snapshot(s)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token", "auth token must not be persisted")

	restored, err := Rehydrate(raw, "the first two", "fresh-token")
	require.NoError(t, err)

	// Session-scoped parameters survive
	assert.Equal(t, DomainMetaAds, restored.Domain)
	assert.Equal(t, TimeWindow{Keyword: "7d"}, restored.Window)
	assert.Equal(t, LevelCampaign, restored.Level)
	assert.Equal(t, []string{"c1", "c2"}, restored.CampaignIDs)
	assert.Equal(t, "act_42", restored.AccountID)

	// Per-turn outputs and the clarification are reset
	assert.Equal(t, "the first two", restored.Question)
	assert.Equal(t, "fresh-token", restored.AuthToken)
	assert.False(t, restored.NeedsClarification())
	assert.False(t, restored.IsComplete)
	assert.Empty(t, restored.Answer)
	assert.Empty(t, restored.Errors)
}

func TestRehydrateRejectsGarbage(t *testing.T) {
	_, err := Rehydrate([]byte("{not json"), "hi", "")
	assert.Error(t, err)
}
