package state

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Snapshot serializes the fields needed to resume a suspended turn.
// The auth token is deliberately excluded; callers supply it again on the
// next request.
func Snapshot(s *TurnState) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "marshal turn snapshot")
	}
	return raw, nil
}

// Rehydrate restores a snapshot and folds the user's next message into it.
// Session-scoped parameters (time window, granularity, selections, account)
// survive; per-turn outputs and the pending clarification are reset so the
// pipeline can run again cleanly.
func Rehydrate(raw []byte, message, authToken string) (*TurnState, error) {
	var s TurnState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, "unmarshal turn snapshot")
	}

	s.Question = message
	s.AuthToken = authToken

	s.PendingClarification = ""
	s.IsComplete = false
	s.SelectedOperations = nil
	s.Results = nil
	s.OperationsInvoked = nil
	s.Insights = ""
	s.Answer = ""
	s.Visualization = nil
	s.Errors = nil
	s.Warnings = nil
	s.Stage = ""

	return &s, nil
}
