package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/autodev/internal/shared"
)

// analysisErrorPrefix marks a chunk the backend emits in place of analysis output when the model call fails.
const analysisErrorPrefix = "Error:"

// ExtractSpec pulls the JSON object out of streamed analysis text.
//
// Markdown code fences and any prose around the outermost braces are discarded.
func ExtractSpec(text string) (json.RawMessage, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, analysisErrorPrefix) {
		return nil, fmt.Errorf("%w: %s", ErrAnalysisFailed, strings.TrimSpace(strings.TrimPrefix(text, analysisErrorPrefix)))
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in analysis", shared.ErrMalformedResponse)
	}

	raw := []byte(text[start : end+1])
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: analysis is not valid JSON", shared.ErrMalformedResponse)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	return json.RawMessage(compact.Bytes()), nil
}
