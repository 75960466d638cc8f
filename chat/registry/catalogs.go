package registry

import "github.com/adsight/adsight/chat/state"

// catalogs returns the per-domain operation tables. Paths mirror the
// upstream data API routes verbatim.
func catalogs() map[state.Domain][]Operation {
	return map[state.Domain][]Operation{
		state.DomainGoogleAds:       googleAdsCatalog(),
		state.DomainGoogleAnalytics: googleAnalyticsCatalog(),
		state.DomainIntentInsights:  intentInsightsCatalog(),
		state.DomainMetaAds:         metaAdsCatalog(),
		state.DomainFacebook:        facebookCatalog(),
		state.DomainInstagram:       instagramCatalog(),
	}
}

func googleAdsCatalog() []Operation {
	dateParams := []string{"customer_id", "period", "start_date", "end_date"}
	return []Operation{
		{Name: "get_key_stats", Path: "/api/ads/key-stats/{customer_id}", Method: "GET", RequiredParams: dateParams, Description: "Account-level key statistics"},
		{Name: "get_customers", Path: "/api/ads/customers", Method: "GET", Description: "List accessible customer accounts"},
		{Name: "get_campaigns", Path: "/api/ads/campaigns/{customer_id}", Method: "GET", RequiredParams: dateParams, Description: "Campaign performance"},
		{Name: "get_keywords", Path: "/api/ads/keywords/{customer_id}", Method: "GET", RequiredParams: dateParams, Description: "Keyword performance"},
		{Name: "get_performance", Path: "/api/ads/performance/{customer_id}", Method: "GET", RequiredParams: dateParams, Description: "Overall performance metrics"},
		{Name: "get_geographic", Path: "/api/ads/geographic/{customer_id}", Method: "GET", RequiredParams: dateParams, Description: "Geographic performance breakdown"},
		{Name: "get_device_performance", Path: "/api/ads/device-performance/{customer_id}", Method: "GET", RequiredParams: dateParams, Description: "Performance by device"},
		{Name: "get_time_performance", Path: "/api/ads/time-performance/{customer_id}", Method: "GET", RequiredParams: dateParams, Description: "Performance by time of day"},
		{Name: "get_keyword_ideas", Path: "/api/ads/keyword-ideas/{customer_id}", Method: "POST", RequiredParams: []string{"customer_id"}, BodyParams: []string{"keywords", "location", "language"}, Description: "Keyword idea suggestions"},
	}
}

func googleAnalyticsCatalog() []Operation {
	dateParams := []string{"property_id", "period", "start_date", "end_date"}
	return []Operation{
		{Name: "get_metrics", Path: "/api/analytics/metrics/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Core site metrics"},
		{Name: "get_properties", Path: "/api/analytics/properties", Method: "GET", Description: "List accessible properties"},
		{Name: "get_traffic_sources", Path: "/api/analytics/traffic-sources/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Traffic source breakdown"},
		{Name: "get_top_pages", Path: "/api/analytics/top-pages/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Top pages by views"},
		{Name: "get_conversions", Path: "/api/analytics/conversions/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Conversion events"},
		{Name: "get_channel_performance", Path: "/api/analytics/channel-performance/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Performance by channel"},
		{Name: "get_audience_insights", Path: "/api/analytics/audience-insights/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Audience demographics and interests"},
		{Name: "get_time_series", Path: "/api/analytics/time-series/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Daily metric time series"},
		{Name: "get_trends", Path: "/api/analytics/trends/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Trend analysis"},
		{Name: "get_roas_roi_time_series", Path: "/api/analytics/roas-roi-time-series/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "ROAS and ROI over time"},
		{Name: "get_revenue_breakdown_channel", Path: "/api/analytics/revenue-breakdown/channel/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Revenue by channel"},
		{Name: "get_revenue_breakdown_source", Path: "/api/analytics/revenue-breakdown/source/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Revenue by source"},
		{Name: "get_revenue_breakdown_device", Path: "/api/analytics/revenue-breakdown/device/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Revenue by device"},
		{Name: "get_channel_revenue_timeseries", Path: "/api/analytics/channel-revenue-timeseries/{property_id}", Method: "GET", RequiredParams: dateParams, Description: "Channel revenue over time"},
		{Name: "post_funnel_analysis", Path: "/api/analytics/funnel/{property_id}", Method: "POST", RequiredParams: []string{"property_id"}, BodyParams: []string{"steps", "start_date", "end_date"}, Description: "Custom funnel analysis"},
	}
}

func intentInsightsCatalog() []Operation {
	return []Operation{
		{Name: "get_intent_keyword_insights", Path: "/api/intent/keyword-insights/{account_id}", Method: "POST", RequiredParams: []string{"account_id"}, BodyParams: []string{"seed_keywords", "country", "timeframe", "start_date", "end_date", "include_zero_volume"}, Description: "Get keyword insights and suggestions"},
	}
}

func metaAdsCatalog() []Operation {
	return []Operation{
		// Account level
		{Name: "get_meta_account_insights", Path: "/api/meta/ad-accounts/{account_id}/insights/summary", Method: "GET", RequiredParams: []string{"account_id", "period", "start_date", "end_date"}, Description: "Account-level performance summary", Level: state.LevelAccount},
		{Name: "get_meta_ad_accounts", Path: "/api/meta/ad-accounts", Method: "GET", Description: "List accessible ad accounts", Level: state.LevelAccount},

		// Campaign level
		{Name: "get_meta_campaigns_list", Path: "/api/meta/ad-accounts/{account_id}/campaigns/list", Method: "GET", RequiredParams: []string{"account_id"}, OptionalParams: []string{"status"}, Description: "List campaigns in an account", Level: state.LevelCampaign},
		{Name: "get_meta_campaigns_timeseries", Path: "/api/meta/campaigns/timeseries", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"campaign_ids"}, Description: "Campaign metrics over time", Level: state.LevelCampaign},
		{Name: "get_campaigns_demographics", Path: "/api/meta/campaigns/demographics", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"campaign_ids"}, Description: "Campaign audience demographics", Level: state.LevelCampaign},
		{Name: "get_campaigns_placements", Path: "/api/meta/campaigns/placements", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"campaign_ids"}, Description: "Campaign placement breakdown", Level: state.LevelCampaign},

		// Ad set level
		{Name: "get_adsets_by_campaigns", Path: "/api/meta/campaigns/adsets", Method: "POST", BodyParams: []string{"campaign_ids"}, Description: "List ad sets of campaigns", Level: state.LevelAdSet},
		{Name: "get_adsets_timeseries", Path: "/api/meta/adsets/timeseries", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"adset_ids"}, Description: "Ad set metrics over time", Level: state.LevelAdSet},
		{Name: "get_adsets_demographics", Path: "/api/meta/adsets/demographics", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"adset_ids"}, Description: "Ad set audience demographics", Level: state.LevelAdSet},
		{Name: "get_adsets_placements", Path: "/api/meta/adsets/placements", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"adset_ids"}, Description: "Ad set placement breakdown", Level: state.LevelAdSet},

		// Ad level
		{Name: "get_ads_by_adsets", Path: "/api/meta/adsets/ads", Method: "POST", BodyParams: []string{"adset_ids"}, Description: "List ads of ad sets", Level: state.LevelAd},
		{Name: "get_ads_timeseries", Path: "/api/meta/ads/timeseries", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"ad_ids"}, Description: "Ad metrics over time", Level: state.LevelAd},
		{Name: "get_ads_demographics", Path: "/api/meta/ads/demographics", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"ad_ids"}, Description: "Ad audience demographics", Level: state.LevelAd},
		{Name: "get_ads_placements", Path: "/api/meta/ads/placements", Method: "POST", RequiredParams: []string{"start_date", "end_date"}, OptionalParams: []string{"period"}, BodyParams: []string{"ad_ids"}, Description: "Ad placement breakdown", Level: state.LevelAd},
	}
}

func facebookCatalog() []Operation {
	dateParams := []string{"page_id", "period", "start_date", "end_date"}
	return []Operation{
		{Name: "get_facebook_page_insights", Path: "/api/meta/pages/{page_id}/insights", Method: "GET", RequiredParams: dateParams, Description: "Page-level insights"},
		{Name: "get_facebook_pages", Path: "/api/meta/pages", Method: "GET", Description: "List accessible pages"},
		{Name: "get_facebook_page_posts", Path: "/api/meta/pages/{page_id}/posts", Method: "GET", RequiredParams: []string{"page_id", "limit", "period", "start_date", "end_date"}, Description: "Recent page posts with metrics"},
		{Name: "get_facebook_demographics", Path: "/api/meta/pages/{page_id}/demographics", Method: "GET", RequiredParams: []string{"page_id"}, Description: "Page audience demographics"},
		{Name: "get_facebook_engagement", Path: "/api/meta/pages/{page_id}/engagement-breakdown", Method: "GET", RequiredParams: dateParams, Description: "Engagement breakdown"},
		{Name: "get_meta_page_insights_timeseries", Path: "/api/meta/pages/{page_id}/insights/timeseries", Method: "GET", RequiredParams: dateParams, Description: "Page insights over time"},
		{Name: "get_meta_page_posts_timeseries", Path: "/api/meta/pages/{page_id}/posts/timeseries", Method: "GET", RequiredParams: []string{"page_id", "limit", "period", "start_date", "end_date"}, Description: "Post metrics over time"},
		{Name: "get_meta_video_views_breakdown", Path: "/api/meta/pages/{page_id}/video-views-breakdown", Method: "GET", RequiredParams: dateParams, Description: "Video view breakdown"},
		{Name: "get_meta_content_type_breakdown", Path: "/api/meta/pages/{page_id}/content-type-breakdown", Method: "GET", RequiredParams: dateParams, Description: "Performance by content type"},
		{Name: "get_meta_follows_unfollows", Path: "/api/meta/pages/{page_id}/follows-unfollows", Method: "GET", RequiredParams: dateParams, Description: "Follows and unfollows over time"},
		{Name: "get_meta_organic_vs_paid", Path: "/api/meta/pages/{page_id}/organic-vs-paid", Method: "GET", RequiredParams: dateParams, Description: "Organic vs paid reach"},
	}
}

func instagramCatalog() []Operation {
	dateParams := []string{"account_id", "period", "start_date", "end_date"}
	return []Operation{
		{Name: "get_meta_instagram_insights", Path: "/api/meta/instagram/{account_id}/insights", Method: "GET", RequiredParams: dateParams, Description: "Profile insights"},
		{Name: "get_meta_instagram_accounts", Path: "/api/meta/instagram/accounts", Method: "GET", Description: "List accessible Instagram accounts"},
		{Name: "get_meta_instagram_insights_timeseries", Path: "/api/meta/instagram/{account_id}/insights/timeseries", Method: "GET", RequiredParams: dateParams, Description: "Profile insights over time"},
		{Name: "get_meta_instagram_media", Path: "/api/meta/instagram/{account_id}/media", Method: "GET", RequiredParams: []string{"account_id", "limit", "period", "start_date", "end_date"}, Description: "Recent media with metrics"},
		{Name: "get_meta_instagram_media_timeseries", Path: "/api/meta/instagram/{account_id}/media/timeseries", Method: "GET", RequiredParams: []string{"account_id", "limit", "period", "start_date", "end_date"}, Description: "Media metrics over time"},
	}
}

func domainInfo() map[state.Domain]DomainInfo {
	return map[state.Domain]DomainInfo{
		state.DomainGoogleAds: {
			Domain:       state.DomainGoogleAds,
			Description:  "Campaign performance, ad metrics, keyword insights",
			Capabilities: []string{"Campaign analysis", "Keyword performance", "Geographic insights", "Device performance"},
		},
		state.DomainGoogleAnalytics: {
			Domain:       state.DomainGoogleAnalytics,
			Description:  "Website traffic, user behavior, conversions",
			Capabilities: []string{"Traffic source analysis", "Page performance", "Conversion tracking", "Revenue breakdowns"},
		},
		state.DomainIntentInsights: {
			Domain:       state.DomainIntentInsights,
			Description:  "Keyword research and search trends",
			Capabilities: []string{"Keyword suggestions", "Search volume data", "Trend analysis"},
		},
		state.DomainMetaAds: {
			Domain:       state.DomainMetaAds,
			Description:  "Facebook/Instagram ad campaigns",
			Capabilities: []string{"Campaign performance", "Ad set analysis", "Ad creative insights", "Demographics and placements"},
		},
		state.DomainFacebook: {
			Domain:       state.DomainFacebook,
			Description:  "Page insights and engagement",
			Capabilities: []string{"Page metrics", "Post performance", "Audience demographics"},
		},
		state.DomainInstagram: {
			Domain:       state.DomainInstagram,
			Description:  "Profile insights and content performance",
			Capabilities: []string{"Profile metrics", "Media performance", "Audience insights"},
		},
	}
}
