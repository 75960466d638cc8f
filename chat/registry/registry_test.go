package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adsight/adsight/chat/state"
)

func TestPathParams(t *testing.T) {
	testCases := []struct {
		name string
		op   Operation
		want []string
	}{
		{
			name: "single placeholder",
			op:   Operation{Path: "/api/meta/ad-accounts/{account_id}/insights/summary"},
			want: []string{"account_id"},
		},
		{
			name: "no placeholder",
			op:   Operation{Path: "/api/meta/ad-accounts"},
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.op.PathParams())
		})
	}
}

func TestQueryParamsExcludePathParams(t *testing.T) {
	r := New()
	op, ok := r.Lookup(state.DomainMetaAds, "get_meta_account_insights")
	require.True(t, ok)

	query := op.QueryParams()
	assert.NotContains(t, query, "account_id")
	assert.Contains(t, query, "period")
	assert.Contains(t, query, "start_date")
	assert.Contains(t, query, "end_date")
}

func TestOperationsAtLevel(t *testing.T) {
	r := New()

	campaignOps := r.OperationsAtLevel(state.DomainMetaAds, state.LevelCampaign)
	require.NotEmpty(t, campaignOps)
	for _, op := range campaignOps {
		assert.Equal(t, state.LevelCampaign, op.Level, op.Name)
	}

	// Flat domains ignore the level
	gaOps := r.OperationsAtLevel(state.DomainGoogleAnalytics, state.LevelAd)
	assert.Len(t, gaOps, len(r.Operations(state.DomainGoogleAnalytics)))
}

func TestListAndDefaultOperations(t *testing.T) {
	r := New()

	listOp, ok := r.ListOperation(state.DomainMetaAds, state.LevelCampaign)
	require.True(t, ok)
	assert.Equal(t, "get_meta_campaigns_list", listOp.Name)

	def, ok := r.DefaultAtLevel(state.DomainMetaAds, state.LevelAdSet)
	require.True(t, ok)
	assert.Equal(t, "get_adsets_timeseries", def.Name)

	// Flat domains fall back to their overview operation
	def, ok = r.DefaultAtLevel(state.DomainGoogleAds, state.LevelCampaign)
	require.True(t, ok)
	assert.Equal(t, "get_key_stats", def.Name)

	_, ok = r.ListOperation(state.DomainGoogleAds, state.LevelCampaign)
	assert.False(t, ok, "flat domains have no candidate listing")
}

func TestEveryDomainHasCatalogAndInfo(t *testing.T) {
	r := New()
	for _, domain := range state.Domains() {
		assert.NotEmpty(t, r.Operations(domain), "catalog missing for %s", domain)
		assert.NotEmpty(t, r.Info(domain).Description, "info missing for %s", domain)

		_, ok := r.Default(domain)
		assert.True(t, ok)
	}
	assert.Len(t, r.AllInfo(), len(state.Domains()))
}
