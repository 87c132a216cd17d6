package llmadapter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// codeBlockRe strips markdown code fences LLMs wrap JSON responses in.
var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// trailingCommaRe removes a comma immediately before a closing brace or
// bracket, the most common malformed-JSON defect in LLM output.
var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// excerptLen is the per-side excerpt length spec §4.5 edge case 6 / §5
// failure policy specifies: "first 500 + last 500 chars".
const excerptLen = 500

// ParseJSONTolerant implements C3's tolerant JSON parsing (§4.3): strip
// code fences, attempt a strict parse, and on failure run a repair pass
// before giving up. Returns the decoded top-level object.
func ParseJSONTolerant(raw string) (map[string]interface{}, error) {
	body := stripFences(raw)
	body = sliceToBraces(body)
	if body == "" {
		return nil, fmt.Errorf("no JSON object found in response: %s", Excerpt(raw))
	}

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(body), &result); err == nil {
		return result, nil
	}

	repaired := repairJSON(body)
	if err := json.Unmarshal([]byte(repaired), &result); err == nil {
		return result, nil
	}

	if canonical, ok := recoverViaGjson(repaired); ok {
		if err := json.Unmarshal([]byte(canonical), &result); err == nil {
			return result, nil
		}
	}

	return nil, fmt.Errorf("unrecoverable malformed JSON response: %s", Excerpt(raw))
}

// Excerpt returns the bounded head+tail excerpt callers log on unrecoverable
// parse failure (§4.5 edge case 6, §5 failure policy).
func Excerpt(raw string) string {
	if len(raw) <= 2*excerptLen {
		return raw
	}
	return raw[:excerptLen] + " ... " + raw[len(raw)-excerptLen:]
}

func stripFences(raw string) string {
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// sliceToBraces drops stray prose surrounding the JSON object by slicing
// between the first '{' and the last '}'.
func sliceToBraces(s string) string {
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return ""
}

// repairJSON fixes the common defects spec §4.3 names: trailing commas,
// unclosed braces/brackets, and an unbalanced trailing quote.
func repairJSON(s string) string {
	s = trailingCommaRe.ReplaceAllString(s, "$1")

	var stack []byte
	inString := false
	escaped := false
	quoteCount := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				inString = false
				quoteCount++
			}
			continue
		}
		switch c {
		case '"':
			inString = true
			quoteCount++
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}

	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}

	return s
}

// recoverViaGjson is the last-resort repair stage: gjson tolerates a
// malformed document enough to walk whatever top-level fields it can find,
// and sjson rebuilds them into a guaranteed-valid canonical object for the
// final strict decode.
func recoverViaGjson(s string) (string, bool) {
	parsed := gjson.Parse(s)
	if !parsed.IsObject() {
		return "", false
	}

	canonical := "{}"
	ok := false
	var setErr error
	parsed.ForEach(func(key, value gjson.Result) bool {
		canonical, setErr = sjson.SetRaw(canonical, key.String(), value.Raw)
		if setErr != nil {
			return false
		}
		ok = true
		return true
	})
	if setErr != nil || !ok {
		return "", false
	}
	return canonical, true
}
