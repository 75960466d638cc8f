package executor

import (
	"encoding/json"

	"github.com/adsight/adsight/chat/state"
)

type candidateRecord struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

// parseCandidates pulls entity records out of a listing response. Upstream
// list payloads are either a bare array or an object with one array field
// ("campaigns", "adsets", "ads", "data"); both shapes are accepted.
func parseCandidates(raw json.RawMessage) []state.Candidate {
	if len(raw) == 0 {
		return nil
	}

	var records []candidateRecord
	if err := json.Unmarshal(raw, &records); err == nil {
		return toCandidates(records)
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil
	}
	for _, field := range []string{"campaigns", "adsets", "ads", "data", "items", "results"} {
		inner, ok := wrapper[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(inner, &records); err == nil {
			return toCandidates(records)
		}
	}
	return nil
}

func toCandidates(records []candidateRecord) []state.Candidate {
	var out []state.Candidate
	for _, rec := range records {
		if rec.ID == "" {
			continue
		}
		name := rec.Name
		if name == "" {
			name = rec.ID
		}
		out = append(out, state.Candidate{ID: rec.ID, Name: name, Status: rec.Status})
	}
	return out
}
