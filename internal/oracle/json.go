package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// extractJSON pulls a valid JSON object out of messy model output. Models
// routinely wrap their answer in markdown fences or surround it with prose,
// so the extractor strips fences first and then takes the outermost
// brace-delimited block.
func extractJSON(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if m := fenceRe.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}

	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}

	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("oracle: output is not valid JSON")
	}
	return []byte(trimmed), nil
}

// decodeInto extracts JSON from raw model output and unmarshals it into out.
func decodeInto(text string, out any) error {
	data, err := extractJSON(text)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("oracle: decode output: %w", err)
	}
	return nil
}
