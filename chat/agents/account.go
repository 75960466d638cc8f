package agents

import (
	"github.com/adsight/adsight/chat/state"
)

// ClarifyAccount is the prompt used when no ad account can be resolved.
const ClarifyAccount = "Which ad account would you like to analyze?"

// ResolvedContext carries identifiers the caller already resolved upstream
// (portal selection, URL parameters) so the pipeline never guesses them.
type ResolvedContext struct {
	AccountID  string `json:"account_id,omitempty"`
	PropertyID string `json:"property_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	PageID     string `json:"page_id,omitempty"`
}

// ResolveAccount fills the turn's account ID from the resolved context or
// the carried session state. Missing account suspends the turn; it is a
// clarification, never an error.
func ResolveAccount(st *state.TurnState, rc ResolvedContext) {
	if id := accountFor(st.Domain, rc); id != "" {
		st.AccountID = id
	}
	if st.AccountID == "" {
		st.Suspend(ClarifyAccount)
	}
}

func accountFor(domain state.Domain, rc ResolvedContext) string {
	switch domain {
	case state.DomainGoogleAds:
		return rc.CustomerID
	case state.DomainGoogleAnalytics:
		return rc.PropertyID
	case state.DomainFacebook:
		return rc.PageID
	default:
		return rc.AccountID
	}
}
