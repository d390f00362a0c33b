// Package jsonx decodes agent JSON responses with a one-shot repair pass.
// Agents occasionally wrap JSON in markdown fences or emit trailing commas;
// strict decoding is attempted first, then a single repair before giving up.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Decode unmarshals raw into v. On a strict decode failure it strips
// markdown fences, applies a one-shot JSON repair, and retries once.
func Decode(raw string, v any) error {
	trimmed := StripFences(raw)

	strictErr := json.Unmarshal([]byte(trimmed), v)
	if strictErr == nil {
		return nil
	}

	repaired, repairErr := jsonrepair.JSONRepair(trimmed)
	if repairErr != nil {
		return fmt.Errorf("decode agent response: %w (repair failed: %v)", strictErr, repairErr)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode agent response after repair: %w", err)
	}
	return nil
}

// StripFences removes a surrounding markdown code fence, with or without a
// language tag, and trims whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		// Drop the language tag line (e.g. "json").
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
