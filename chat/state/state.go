// Package state holds the typed per-turn conversation state shared by the
// pipeline stages. All fields live on TurnState; stages never stash data in
// ambient globals.
package state

import (
	"encoding/json"
	"time"
)

// Domain identifies the data product a conversation is about.
type Domain string

const (
	DomainMetaAds         Domain = "meta_ads"
	DomainGoogleAnalytics Domain = "google_analytics"
	DomainGoogleAds       Domain = "google_ads"
	DomainIntentInsights  Domain = "intent_insights"
	DomainFacebook        Domain = "facebook"
	DomainInstagram       Domain = "instagram"
)

// Valid reports whether d is a known domain.
func (d Domain) Valid() bool {
	switch d {
	case DomainMetaAds, DomainGoogleAnalytics, DomainGoogleAds,
		DomainIntentInsights, DomainFacebook, DomainInstagram:
		return true
	}
	return false
}

// Domains lists all known domains.
func Domains() []Domain {
	return []Domain{
		DomainMetaAds,
		DomainGoogleAnalytics,
		DomainGoogleAds,
		DomainIntentInsights,
		DomainFacebook,
		DomainInstagram,
	}
}

// IntentType classifies a user message.
type IntentType string

const (
	IntentChitchat   IntentType = "chitchat"
	IntentAnalytical IntentType = "analytical"
)

// GranularityLevel is the depth of the ads entity hierarchy a question
// targets. Levels are ordered; a session level only ever deepens.
type GranularityLevel string

const (
	LevelUnknown  GranularityLevel = "unknown"
	LevelAccount  GranularityLevel = "account"
	LevelCampaign GranularityLevel = "campaign"
	LevelAdSet    GranularityLevel = "adset"
	LevelAd       GranularityLevel = "ad"
)

// Depth returns the ordering of a level in the hierarchy. Unknown is -1.
func (l GranularityLevel) Depth() int {
	switch l {
	case LevelAccount:
		return 0
	case LevelCampaign:
		return 1
	case LevelAdSet:
		return 2
	case LevelAd:
		return 3
	default:
		return -1
	}
}

// DeeperThan reports whether l is strictly deeper than other.
func (l GranularityLevel) DeeperThan(other GranularityLevel) bool {
	return l.Depth() > other.Depth()
}

// Next returns the next level down the hierarchy, or LevelAd at the bottom.
func (l GranularityLevel) Next() GranularityLevel {
	switch l {
	case LevelAccount:
		return LevelCampaign
	case LevelCampaign:
		return LevelAdSet
	case LevelAdSet, LevelAd:
		return LevelAd
	default:
		return LevelAccount
	}
}

// TimeWindow is the resolved analysis period.
// For domains with preset-based upstream APIs only the keyword is set; for
// date-ranged APIs Start and End carry YYYY-MM-DD dates.
type TimeWindow struct {
	Keyword string `json:"keyword,omitempty"` // e.g. LAST_7_DAYS, 30d
	Start   string `json:"start,omitempty"`   // YYYY-MM-DD
	End     string `json:"end,omitempty"`     // YYYY-MM-DD
}

// IsZero reports whether no period has been resolved yet.
func (w TimeWindow) IsZero() bool {
	return w.Keyword == "" && w.Start == "" && w.End == ""
}

// Candidate is an entity offered to the user for selection at a level.
type Candidate struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// OperationResult records one upstream operation execution.
type OperationResult struct {
	Operation    string            `json:"operation"`
	Path         string            `json:"path"`
	Method       string            `json:"method"`
	Params       map[string]string `json:"params,omitempty"`
	Success      bool              `json:"success"`
	StatusCode   int               `json:"status_code,omitempty"`
	Data         json.RawMessage   `json:"data,omitempty"`
	Error        string            `json:"error,omitempty"`
	Attempts     int               `json:"attempts"`
	ResponseTime float64           `json:"response_time_seconds"`
	Timestamp    time.Time         `json:"timestamp"`
}

// Visualization describes tables and charts extracted from the formatted
// answer.
type Visualization struct {
	HasTable bool        `json:"has_table"`
	HasChart bool        `json:"has_chart"`
	Tables   []TableSpec `json:"tables,omitempty"`
	Charts   []ChartSpec `json:"charts,omitempty"`
}

// TableSpec is one requested table.
type TableSpec struct {
	Description string     `json:"description"`
	Columns     []string   `json:"columns,omitempty"`
	Rows        [][]string `json:"rows,omitempty"`
}

// ChartSpec is one requested chart.
type ChartSpec struct {
	Type        string    `json:"type"` // line, bar, pie
	Description string    `json:"description"`
	Labels      []string  `json:"labels,omitempty"`
	Datasets    []Dataset `json:"datasets,omitempty"`
}

// Dataset is one chart series.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// TurnState carries everything a single conversation turn accumulates while
// flowing through the pipeline.
type TurnState struct {
	// Inputs
	Question  string `json:"question"`
	Domain    Domain `json:"domain"`
	SessionID string `json:"session_id"`
	UserEmail string `json:"user_email,omitempty"`
	AuthToken string `json:"-"` // never persisted

	// Classification and parameters
	Intent   IntentType        `json:"intent,omitempty"`
	Window   TimeWindow        `json:"window,omitempty"`
	Entities []string          `json:"entities,omitempty"`
	Metrics  []string          `json:"metrics,omitempty"`
	Filters  map[string]string `json:"filters,omitempty"`

	// Granularity (ads domains)
	AccountID     string           `json:"account_id,omitempty"`
	Level         GranularityLevel `json:"level,omitempty"`
	CampaignIDs   []string         `json:"campaign_ids,omitempty"`
	CampaignNames []string         `json:"campaign_names,omitempty"`
	AdSetIDs      []string         `json:"adset_ids,omitempty"`
	AdSetNames    []string         `json:"adset_names,omitempty"`
	AdIDs         []string         `json:"ad_ids,omitempty"`
	AdNames       []string         `json:"ad_names,omitempty"`
	Candidates    []Candidate      `json:"candidates,omitempty"`
	StatusFilter  string           `json:"status_filter,omitempty"`

	// Selection and execution
	SelectedOperations []string          `json:"selected_operations,omitempty"`
	Results            []OperationResult `json:"results,omitempty"`
	OperationsInvoked  []string          `json:"operations_invoked,omitempty"`

	// Synthesis
	Insights      string         `json:"insights,omitempty"`
	Answer        string         `json:"answer,omitempty"`
	Visualization *Visualization `json:"visualization,omitempty"`

	// Diagnostics
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Stage    string   `json:"stage,omitempty"`

	// Clarification and completion
	PendingClarification string `json:"pending_clarification,omitempty"`
	IsComplete           bool   `json:"is_complete"`
}

// NeedsClarification reports whether the turn is suspended on the user.
func (s *TurnState) NeedsClarification() bool {
	return s.PendingClarification != ""
}

// Suspend parks the turn on a clarification prompt. A suspended turn is
// never complete.
func (s *TurnState) Suspend(prompt string) {
	s.PendingClarification = prompt
	s.IsComplete = false
}

// Complete marks the turn finished and clears any stale clarification.
func (s *TurnState) Complete() {
	s.PendingClarification = ""
	s.IsComplete = true
}

// SetLevel deepens the session granularity. A shallower or unknown level is
// ignored so granularity only ever advances.
func (s *TurnState) SetLevel(level GranularityLevel) {
	if level.Depth() < 0 {
		return
	}
	if level.DeeperThan(s.Level) {
		s.Level = level
	}
}

// SetSelection records the chosen IDs at a level and clears the candidate
// list that prompted the choice.
func (s *TurnState) SetSelection(level GranularityLevel, ids, names []string) {
	switch level {
	case LevelCampaign:
		s.CampaignIDs = ids
		s.CampaignNames = names
	case LevelAdSet:
		s.AdSetIDs = ids
		s.AdSetNames = names
	case LevelAd:
		s.AdIDs = ids
		s.AdNames = names
	}
	s.Candidates = nil
}

// SelectedAt returns the IDs already chosen at a level.
func (s *TurnState) SelectedAt(level GranularityLevel) []string {
	switch level {
	case LevelCampaign:
		return s.CampaignIDs
	case LevelAdSet:
		return s.AdSetIDs
	case LevelAd:
		return s.AdIDs
	default:
		return nil
	}
}

// AddError appends a non-fatal error note.
func (s *TurnState) AddError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// AddWarning appends a warning note.
func (s *TurnState) AddWarning(msg string) {
	s.Warnings = append(s.Warnings, msg)
}
