package analysis

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var (
	jsonFence  = regexp.MustCompile("(?i)```json\\s*")
	plainFence = regexp.MustCompile("```\\s*")
	// Greedy: from the first '{' to the last '}'.
	objectSpan = regexp.MustCompile(`(?s)\{.*\}`)
)

// Normalize extracts the JSON object from raw model output. Markdown code
// fences are dropped first. The object's shape is not checked, only that
// it parses. ok is false when no JSON object can be extracted. An object
// whose strings decode to NUL is rejected too since jsonb cannot store it.
func Normalize(raw string) (result json.RawMessage, ok bool) {
	text := jsonFence.ReplaceAllString(raw, "")
	text = plainFence.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	span := objectSpan.FindString(text)
	if span == "" || !json.Valid([]byte(span)) || hasNUL([]byte(span)) {
		return nil, false
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(span)); err != nil {
		return nil, false
	}
	return json.RawMessage(buf.Bytes()), true
}

// hasNUL reports whether any key or string value of valid JSON decodes to
// a string containing U+0000. An escaped backslash followed by "u0000" is
// ordinary text and does not count.
func hasNUL(data []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if s, ok := tok.(string); ok && strings.IndexByte(s, 0) >= 0 {
			return true
		}
	}
}
