package articulation

import (
	"encoding/json"
	"fmt"
	"strings"
)

const bom = "\uFEFF"

// repairHeader applies the single bounded cleanup pass used when a header
// fails to decode: trim, strip a json fence, strip stray delimiters, strip a
// byte-order mark. Nothing else is attempted.
func repairHeader(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	if strings.HasPrefix(s, Delimiter) {
		s = strings.TrimSpace(strings.TrimPrefix(s, Delimiter))
	}
	if strings.HasSuffix(s, Delimiter) {
		s = strings.TrimSpace(strings.TrimSuffix(s, Delimiter))
	}
	return strings.TrimPrefix(s, bom)
}

// decodeHeader decodes a header object, retrying once after repair.
// repaired reports whether the retry was needed and succeeded.
func decodeHeader(raw string) (header map[string]any, repaired bool, err error) {
	if err := json.Unmarshal([]byte(raw), &header); err == nil && header != nil {
		return header, false, nil
	}

	header = nil
	fixed := repairHeader(raw)
	if retryErr := json.Unmarshal([]byte(fixed), &header); retryErr != nil {
		return nil, false, fmt.Errorf("%w: invalid JSON format after retry: %v", ErrMalformedBlock, retryErr)
	}
	if header == nil {
		return nil, false, fmt.Errorf("%w: action header is not a JSON object", ErrMalformedBlock)
	}
	return header, true, nil
}
