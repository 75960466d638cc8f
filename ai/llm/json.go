package llm

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// DecodeJSON unmarshals a model reply into out, tolerating the markdown
// code fences models like to wrap JSON in.
func DecodeJSON(content string, out any) error {
	cleaned := strings.TrimSpace(content)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return errors.Wrap(err, "decode LLM JSON response")
	}
	return nil
}
