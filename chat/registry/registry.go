// Package registry is the closed catalog of upstream operations the service
// may invoke. The LLM never produces URLs; it only picks names from here.
package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adsight/adsight/chat/state"
)

// Operation describes one invocable upstream endpoint.
type Operation struct {
	Name           string
	Path           string // template with {param} placeholders
	Method         string
	RequiredParams []string // includes path params
	OptionalParams []string
	BodyParams     []string
	Description    string
	// Level scopes hierarchy-aware operations (meta ads). Empty for flat
	// domains.
	Level state.GranularityLevel
}

// PathParams returns the placeholder names in the path template.
func (o Operation) PathParams() []string {
	var params []string
	path := o.Path
	for {
		open := strings.Index(path, "{")
		if open < 0 {
			return params
		}
		end := strings.Index(path[open:], "}")
		if end < 0 {
			return params
		}
		params = append(params, path[open+1:open+end])
		path = path[open+end+1:]
	}
}

// QueryParams returns the required and optional params that are not path
// params; these travel in the query string.
func (o Operation) QueryParams() []string {
	pathParams := make(map[string]bool)
	for _, p := range o.PathParams() {
		pathParams[p] = true
	}

	var params []string
	for _, p := range append(append([]string{}, o.RequiredParams...), o.OptionalParams...) {
		if !pathParams[p] {
			params = append(params, p)
		}
	}
	return params
}

// DomainInfo describes what a domain can answer, surfaced to callers and to
// the chitchat responder.
type DomainInfo struct {
	Domain       state.Domain `json:"domain"`
	Description  string       `json:"description"`
	Capabilities []string     `json:"capabilities"`
}

// Registry holds the per-domain operation catalogs. Read-only after New.
type Registry struct {
	byDomain map[state.Domain][]Operation
	byName   map[state.Domain]map[string]Operation
	info     map[state.Domain]DomainInfo
}

// New builds the registry from the built-in catalogs.
func New() *Registry {
	r := &Registry{
		byDomain: make(map[state.Domain][]Operation),
		byName:   make(map[state.Domain]map[string]Operation),
		info:     domainInfo(),
	}
	for domain, ops := range catalogs() {
		r.byDomain[domain] = ops
		index := make(map[string]Operation, len(ops))
		for _, op := range ops {
			index[op.Name] = op
		}
		r.byName[domain] = index
	}
	return r
}

// Operations returns the catalog for a domain, in declaration order.
func (r *Registry) Operations(domain state.Domain) []Operation {
	ops := r.byDomain[domain]
	out := make([]Operation, len(ops))
	copy(out, ops)
	return out
}

// Lookup finds an operation by name within a domain.
func (r *Registry) Lookup(domain state.Domain, name string) (Operation, bool) {
	op, ok := r.byName[domain][name]
	return op, ok
}

// OperationsAtLevel returns the operations scoped to a granularity level.
// Flat domains return their whole catalog regardless of level.
func (r *Registry) OperationsAtLevel(domain state.Domain, level state.GranularityLevel) []Operation {
	all := r.byDomain[domain]
	if domain != state.DomainMetaAds {
		out := make([]Operation, len(all))
		copy(out, all)
		return out
	}

	var out []Operation
	for _, op := range all {
		if op.Level == level {
			out = append(out, op)
		}
	}
	return out
}

// Default returns the domain's overview operation, used when selection
// produces nothing usable.
func (r *Registry) Default(domain state.Domain) (Operation, bool) {
	ops := r.byDomain[domain]
	if len(ops) == 0 {
		return Operation{}, false
	}
	return ops[0], true
}

// DefaultAtLevel returns the analysis operation the executor falls back to at
// a granularity level (the level's timeseries).
func (r *Registry) DefaultAtLevel(domain state.Domain, level state.GranularityLevel) (Operation, bool) {
	name, ok := levelDefaults[level]
	if !ok || domain != state.DomainMetaAds {
		return r.Default(domain)
	}
	return r.Lookup(domain, name)
}

// ListOperation returns the operation that enumerates candidates at a level.
func (r *Registry) ListOperation(domain state.Domain, level state.GranularityLevel) (Operation, bool) {
	if domain != state.DomainMetaAds {
		return Operation{}, false
	}
	name, ok := levelListOps[level]
	if !ok {
		return Operation{}, false
	}
	return r.Lookup(domain, name)
}

// Info returns the capability description for a domain.
func (r *Registry) Info(domain state.Domain) DomainInfo {
	if info, ok := r.info[domain]; ok {
		return info
	}
	return DomainInfo{Domain: domain, Description: "No information available"}
}

// AllInfo returns capability descriptions for every domain, sorted by name.
func (r *Registry) AllInfo() []DomainInfo {
	out := make([]DomainInfo, 0, len(r.info))
	for _, info := range r.info {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// Names returns the operation names of a domain, for prompt construction.
func (r *Registry) Names(domain state.Domain) []string {
	ops := r.byDomain[domain]
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
	}
	return names
}

// Describe renders a catalog slice as prompt lines "name: description".
func Describe(ops []Operation) string {
	var b strings.Builder
	for _, op := range ops {
		fmt.Fprintf(&b, "- %s: %s\n", op.Name, op.Description)
	}
	return b.String()
}

var levelListOps = map[state.GranularityLevel]string{
	state.LevelCampaign: "get_meta_campaigns_list",
	state.LevelAdSet:    "get_adsets_by_campaigns",
	state.LevelAd:       "get_ads_by_adsets",
}

var levelDefaults = map[state.GranularityLevel]string{
	state.LevelAccount:  "get_meta_account_insights",
	state.LevelCampaign: "get_meta_campaigns_timeseries",
	state.LevelAdSet:    "get_adsets_timeseries",
	state.LevelAd:       "get_ads_timeseries",
}
