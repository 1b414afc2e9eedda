package generation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON decodes the first JSON document found in model output. It
// accepts a bare JSON body, a fenced ```json block, or a document embedded
// in surrounding prose.
func ExtractJSON(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty response")
	}

	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	if block := fencedBlock(text); block != "" {
		if err := json.Unmarshal([]byte(block), &v); err == nil {
			return v, nil
		}
	}

	// Last resort: outermost braces.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &v); err == nil {
			return v, nil
		}
	}

	return nil, fmt.Errorf("response contains no decodable JSON document")
}

func fencedBlock(text string) string {
	for _, marker := range []string{"```json", "```"} {
		i := strings.Index(text, marker)
		if i < 0 {
			continue
		}
		rest := text[i+len(marker):]
		j := strings.Index(rest, "```")
		if j < 0 {
			continue
		}
		return strings.TrimSpace(rest[:j])
	}
	return ""
}
