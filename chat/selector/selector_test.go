package selector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/adsight/adsight/ai/llm/llmtest"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
)

func TestSelect(t *testing.T) {
	testCases := []struct {
		name     string
		response string
		fail     bool
		level    state.GranularityLevel
		want     []string
		warnings bool
	}{
		{
			name:     "valid selection",
			response: `{"selected_operations": ["get_meta_campaigns_timeseries", "get_campaigns_demographics"], "reasoning": "trend plus audience"}`,
			level:    state.LevelCampaign,
			want:     []string{"get_meta_campaigns_timeseries", "get_campaigns_demographics"},
		},
		{
			name:     "unknown names dropped, valid kept",
			response: `{"selected_operations": ["get_super_secret_data", "get_meta_campaigns_timeseries"]}`,
			level:    state.LevelCampaign,
			want:     []string{"get_meta_campaigns_timeseries"},
			warnings: true,
		},
		{
			name:     "all unknown falls back to level default",
			response: `{"selected_operations": ["made_up_op"]}`,
			level:    state.LevelCampaign,
			want:     []string{"get_meta_campaigns_timeseries"},
			warnings: true,
		},
		{
			name:     "wrong level operation rejected",
			response: `{"selected_operations": ["get_ads_timeseries"]}`,
			level:    state.LevelCampaign,
			want:     []string{"get_meta_campaigns_timeseries"},
			warnings: true,
		},
		{
			name:     "duplicates deduplicated",
			response: `{"selected_operations": ["get_meta_campaigns_timeseries", "get_meta_campaigns_timeseries"]}`,
			level:    state.LevelCampaign,
			want:     []string{"get_meta_campaigns_timeseries"},
		},
		{
			name:     "malformed json falls back",
			response: "let me think about which operations...",
			level:    state.LevelAccount,
			want:     []string{"get_meta_account_insights"},
		},
		{
			name:  "llm failure falls back",
			fail:  true,
			level: state.LevelAdSet,
			want:  []string{"get_adsets_timeseries"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := llmtest.NewMockLLM().WithDefaultResponse(tc.response)
			if tc.fail {
				mock.WithError(errors.New("provider down"))
			}
			s := New(mock, registry.New())

			st := &state.TurnState{
				Question: "how are my campaigns trending",
				Domain:   state.DomainMetaAds,
				Level:    tc.level,
			}
			s.Select(context.Background(), st)

			assert.Equal(t, tc.want, st.SelectedOperations)
			if tc.warnings {
				assert.NotEmpty(t, st.Warnings)
			}
		})
	}
}

func TestSelectFlatDomain(t *testing.T) {
	mock := llmtest.NewMockLLM().WithDefaultResponse(
		`{"selected_operations": ["get_traffic_sources", "get_top_pages"]}`)
	s := New(mock, registry.New())

	st := &state.TurnState{
		Question: "where is my traffic coming from",
		Domain:   state.DomainGoogleAnalytics,
	}
	s.Select(context.Background(), st)

	assert.Equal(t, []string{"get_traffic_sources", "get_top_pages"}, st.SelectedOperations)
}
