package scriptagent

import (
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSON extraction layer. Model text routinely wraps its payload in markdown
// fences, prefixes it with prose, or carries small malformations (unquoted
// year ranges, trailing commas, Python's None). Extraction attempts four
// strategies in order, applying an idempotent repair pass before each parse.

var (
	fencedJSONRe = regexp.MustCompile("(?s)```json\\s*\\n(.*?)```")
	fencedAnyRe  = regexp.MustCompile("(?s)```\\s*\\n(.*?)```")

	// 2009-2010 style bare year ranges are not valid JSON numbers
	yearRangeRe = regexp.MustCompile(`:\s*(\d{4})\s*-\s*(\d{4})\s*([,}\]])`)
	// trailing comma before a closing bracket/brace
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	// Python-style None where null belongs
	noneLiteralRe = regexp.MustCompile(`:\s*None\s*([,}\]])`)
)

// RepairJSON fixes common model JSON errors before parsing: wraps bare
// four-digit/four-digit year-range values in quotes, strips trailing commas
// before a closing bracket or brace, and rewrites the literal None to null.
// Running it on already-valid JSON does not alter semantics; the pass is
// idempotent.
func RepairJSON(text string) string {
	text = yearRangeRe.ReplaceAllString(text, `: "$1-$2"$3`)
	text = trailingCommaRe.ReplaceAllString(text, `$1`)
	text = noneLiteralRe.ReplaceAllString(text, `: null$1`)
	return text
}

// ExtractJSON recovers a well-formed JSON value from free-form model text.
// Strategies, stopping at the first success:
//  1. the interior of a fenced block explicitly marked as JSON
//  2. the interior of any fenced block
//  3. the entire raw text
//  4. the substring from the first '{' to the last '}' inclusive
//
// Each candidate is tried verbatim and then repaired. The second return is
// false when every strategy fails.
func ExtractJSON(raw string) (string, bool) {
	for _, re := range []*regexp.Regexp{fencedJSONRe, fencedAnyRe} {
		if m := re.FindStringSubmatch(raw); m != nil {
			if parsed, ok := tryParse(m[1]); ok {
				return parsed, true
			}
		}
	}

	if parsed, ok := tryParse(raw); ok {
		return parsed, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end != -1 && start < end {
		if parsed, ok := tryParse(raw[start : end+1]); ok {
			return parsed, true
		}
	}

	return "", false
}

// tryParse validates a candidate as-is, then after repair.
func tryParse(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}

	if gjson.Valid(candidate) {
		return candidate, true
	}

	repaired := RepairJSON(candidate)
	if gjson.Valid(repaired) {
		return repaired, true
	}

	return "", false
}

// PayloadPhase reads the self-declared phase tag from an extracted payload.
// Returns "" when the payload carries no phase field.
func PayloadPhase(payload string) string {
	return gjson.Get(payload, "phase").String()
}

// NormalizeScript prepares an accepted script payload for persistence: the
// conversational phase tag is dropped and the pipeline status stamp is added,
// without disturbing any extra fields the model chose to include.
func NormalizeScript(payload string) (string, error) {
	out, err := sjson.Delete(payload, "phase")
	if err != nil {
		return "", err
	}
	return sjson.Set(out, "status", "ready")
}
