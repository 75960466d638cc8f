package granularity

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/adsight/adsight/chat/state"
)

// PendingSelectionLevel returns the level a suspended turn is waiting on, or
// LevelUnknown when no selection is pending.
func PendingSelectionLevel(st *state.TurnState) state.GranularityLevel {
	if len(st.Candidates) == 0 {
		return state.LevelUnknown
	}
	level := nextUnselected(st)
	if level == state.LevelUnknown && st.Level.Depth() > 0 {
		return st.Level
	}
	return level
}

var numberRe = regexp.MustCompile(`\b(\d+)\b`)

var ordinalWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// ParseSelection interprets a user reply against the offered candidates.
// It understands "all", list numbers ("1 and 3"), "first N", and name
// substrings. Returns nil when nothing matches; the caller re-asks.
func ParseSelection(candidates []state.Candidate, reply string) []state.Candidate {
	reply = strings.ToLower(strings.TrimSpace(reply))
	if reply == "" || len(candidates) == 0 {
		return nil
	}

	if strings.Contains(reply, "all") && !strings.Contains(reply, "not all") {
		out := make([]state.Candidate, len(candidates))
		copy(out, candidates)
		return out
	}

	// "first two" / "first 3"
	if strings.Contains(reply, "first") {
		n := 1
		if m := numberRe.FindStringSubmatch(reply); m != nil {
			n, _ = strconv.Atoi(m[1])
		} else {
			for word, v := range ordinalWords {
				if strings.Contains(reply, word) {
					n = v
					break
				}
			}
		}
		if n > len(candidates) {
			n = len(candidates)
		}
		if n > 0 {
			out := make([]state.Candidate, n)
			copy(out, candidates[:n])
			return out
		}
	}

	// List positions: "1, 3" picks the first and third option
	var picked []state.Candidate
	seen := make(map[int]bool)
	for _, m := range numberRe.FindAllStringSubmatch(reply, -1) {
		idx, _ := strconv.Atoi(m[1])
		if idx >= 1 && idx <= len(candidates) && !seen[idx] {
			picked = append(picked, candidates[idx-1])
			seen[idx] = true
		}
	}
	if len(picked) > 0 {
		return picked
	}

	// Name or ID substrings
	for i, cand := range candidates {
		name := strings.ToLower(cand.Name)
		if (name != "" && strings.Contains(reply, name)) || strings.Contains(reply, strings.ToLower(cand.ID)) {
			if !seen[i+1] {
				picked = append(picked, cand)
				seen[i+1] = true
			}
		}
	}
	return picked
}

// ApplySelection records a parsed selection on the turn and reports whether
// anything matched.
func ApplySelection(st *state.TurnState, reply string) bool {
	level := PendingSelectionLevel(st)
	if level == state.LevelUnknown {
		return false
	}

	picked := ParseSelection(st.Candidates, reply)
	if len(picked) == 0 {
		return false
	}

	ids := make([]string, len(picked))
	names := make([]string, len(picked))
	for i, cand := range picked {
		ids[i] = cand.ID
		names[i] = cand.Name
	}
	st.SetSelection(level, ids, names)
	return true
}
