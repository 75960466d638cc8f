package executor

import (
	"sort"
	"strings"

	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/state"
)

// defaultListLimit caps list-style operations (posts, media).
const defaultListLimit = "10"

// buildCall maps turn state onto an operation's parameters. Only parameters
// with resolved values are sent; the upstream API applies its own defaults
// for absent optional ones.
func buildCall(st *state.TurnState, op registry.Operation) Call {
	params := make(map[string]string)

	for _, name := range append(append([]string{}, op.RequiredParams...), op.OptionalParams...) {
		if v := paramValue(st, name); v != "" {
			params[name] = v
		}
	}

	body := make(map[string]any)
	for _, name := range op.BodyParams {
		if v := bodyValue(st, name); v != nil {
			body[name] = v
		}
	}

	return Call{Params: params, Body: body, AuthToken: st.AuthToken}
}

func paramValue(st *state.TurnState, name string) string {
	switch name {
	case "account_id", "customer_id", "property_id", "page_id":
		// The resolved account ID carries the domain's primary identifier.
		return st.AccountID
	case "period":
		return st.Window.Keyword
	case "start_date":
		return st.Window.Start
	case "end_date":
		return st.Window.End
	case "status":
		return st.StatusFilter
	case "limit":
		return defaultListLimit
	default:
		if st.Filters != nil {
			return st.Filters[name]
		}
		return ""
	}
}

func bodyValue(st *state.TurnState, name string) any {
	switch name {
	case "campaign_ids":
		return idsOrNil(st.CampaignIDs)
	case "adset_ids":
		return idsOrNil(st.AdSetIDs)
	case "ad_ids":
		return idsOrNil(st.AdIDs)
	case "seed_keywords", "keywords":
		return idsOrNil(st.Entities)
	case "start_date":
		if st.Window.Start != "" {
			return st.Window.Start
		}
		return nil
	case "end_date":
		if st.Window.End != "" {
			return st.Window.End
		}
		return nil
	default:
		if st.Filters != nil {
			if v, ok := st.Filters[name]; ok {
				return v
			}
		}
		return nil
	}
}

func idsOrNil(ids []string) any {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// cacheKey identifies a response by operation, user, and normalized
// parameters so identical requests within the TTL share one upstream call.
func cacheKey(op registry.Operation, st *state.TurnState, call Call) string {
	parts := make([]string, 0, len(call.Params)+len(call.Body))
	for k, v := range call.Params {
		parts = append(parts, k+"="+v)
	}
	for k, v := range call.Body {
		if ids, ok := v.([]string); ok {
			parts = append(parts, k+"="+strings.Join(ids, "+"))
		}
	}
	sort.Strings(parts)
	return op.Name + ":" + st.UserEmail + ":" + strings.Join(parts, "&")
}
