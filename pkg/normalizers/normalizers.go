// Package normalizers provides field cleaning and name canonicalization
// functions used by staging, matching, and collapse.
package normalizers

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// RoleNouns are tokens that mark a name as describing a role rather than a
// person. A name containing any of these is never treated as a person name.
var RoleNouns = map[string]bool{
	"representative": true,
	"spokesperson":   true,
	"official":       true,
	"officials":      true,
	"officer":        true,
	"officers":       true,
	"agent":          true,
	"agents":         true,
	"witness":        true,
	"attorney":       true,
	"lawyer":         true,
	"family":         true,
	"families":       true,
	"relative":       true,
	"relatives":      true,
	"advocate":       true,
	"activist":       true,
	"protester":      true,
	"protesters":     true,
	"suspect":        true,
	"victim":         true,
	"inspector":      true,
	"general":        true,
}

// genericActorPhrases flag crowd or agency descriptions reported in place of
// a victim name.
var genericActorPhrases = []string{
	" a man",
	" a woman",
	"young man",
	"young woman",
	"protester",
	"protesters",
	"protestor",
	"protestors",
	"unknown",
	"unidentified",
	"u.s.",
	"ice agents",
	"ice agent",
	"ice officer",
	"ice officers",
	"border patrol",
	"cbp",
	"dhs",
	"officer",
	"officers",
	"agent",
	"agents",
	"homeland security",
	"immigration officers",
}

// DetentionKeywords mark text as describing a death in custody.
var DetentionKeywords = []string{
	"detention",
	"detained",
	"custody",
	"in custody",
	"jail",
	"prison",
	"facility",
	"processing center",
	"detention center",
	"detention facility",
}

// ContainsAnyKeyword reports whether the lowercased text contains any of the
// given phrases.
func ContainsAnyKeyword(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonLetterRe  = regexp.MustCompile(`[^A-Za-z ]+`)
)

// CleanString trims a value and returns nil when nothing remains.
func CleanString(value string) *string {
	stripped := strings.TrimSpace(value)
	if stripped == "" {
		return nil
	}
	return &stripped
}

// CleanAny coerces an arbitrary decoded JSON value to a cleaned string.
// Numbers are formatted without a trailing ".0" so ages survive loosely
// typed feeds.
func CleanAny(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return CleanString(v)
	case float64:
		if v == float64(int64(v)) {
			return CleanString(strconv.FormatInt(int64(v), 10))
		}
		return CleanString(strconv.FormatFloat(v, 'f', -1, 64))
	case bool:
		return CleanString(strconv.FormatBool(v))
	default:
		return nil
	}
}

// TrimWords limits text to maxWords whitespace-separated words.
func TrimWords(text *string, maxWords int) *string {
	if text == nil {
		return nil
	}
	words := strings.Fields(*text)
	if len(words) <= maxWords {
		return text
	}
	trimmed := strings.Join(words[:maxWords], " ")
	return &trimmed
}

// StripDiacritics decomposes the string and drops combining marks.
func StripDiacritics(value string) string {
	decomposed := norm.NFKD.String(value)
	var result strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// CanonicalPersonTokens reduces a name to lowercase ASCII letter tokens.
// Hyphens and apostrophes split tokens, everything else non-alphabetic is
// dropped.
func CanonicalPersonTokens(name string) []string {
	text := StripDiacritics(name)
	text = strings.ReplaceAll(text, "-", " ")
	text = strings.ReplaceAll(text, "'", " ")
	text = nonLetterRe.ReplaceAllString(text, " ")
	text = strings.ToLower(strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " ")))
	if text == "" {
		return nil
	}
	return strings.Split(text, " ")
}

// CanonicalPersonName joins the canonical tokens, or returns "" when the
// name does not have at least two tokens.
func CanonicalPersonName(name string) string {
	tokens := CanonicalPersonTokens(name)
	if len(tokens) < 2 {
		return ""
	}
	return strings.Join(tokens, " ")
}

// NameMergeKey keys a name by its first and last whitespace tokens, ignoring
// middle names. Returns "" for single-token names.
func NameMergeKey(name string) string {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[0] + " " + parts[len(parts)-1])
}

// IsLikelyPersonName reports whether a string plausibly names an individual:
// two to five canonical tokens, none a role noun, not all initials.
func IsLikelyPersonName(name string) bool {
	tokens := CanonicalPersonTokens(name)
	if len(tokens) < 2 || len(tokens) > 5 {
		return false
	}
	allShort := true
	for _, token := range tokens {
		if RoleNouns[token] {
			return false
		}
		if len(token) > 2 {
			allShort = false
		}
	}
	return !allShort
}

// IsGenericActor reports whether a reported name describes a crowd, agency,
// or unidentified person instead of a specific individual.
func IsGenericActor(name string) bool {
	if strings.TrimSpace(name) == "" {
		return true
	}
	lowered := strings.ToLower(name)
	for _, phrase := range genericActorPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return !IsLikelyPersonName(name)
}

// SanitizeCity rejects city values that are too long, contain digits, or
// carry narrative fragments from upstream extraction.
func SanitizeCity(value *string) *string {
	cleaned := cleanOptional(value)
	if cleaned == nil {
		return nil
	}
	if len(*cleaned) > 60 {
		return nil
	}
	if len(strings.Fields(*cleaned)) > 4 {
		return nil
	}
	lowered := " " + strings.ToLower(*cleaned) + " "
	for _, token := range []string{" detention ", " custody ", " passed away ", " death "} {
		if strings.Contains(lowered, token) {
			return nil
		}
	}
	if containsDigit(*cleaned) {
		return nil
	}
	return cleaned
}

// SanitizeState rejects state values that are too long or contain digits.
func SanitizeState(value *string) *string {
	cleaned := cleanOptional(value)
	if cleaned == nil {
		return nil
	}
	if len(*cleaned) > 30 {
		return nil
	}
	if len(strings.Fields(*cleaned)) > 3 {
		return nil
	}
	if containsDigit(*cleaned) {
		return nil
	}
	return cleaned
}

// SanitizeFacilityOrLocation rejects location values that read like prose
// rather than a place name.
func SanitizeFacilityOrLocation(value *string) *string {
	cleaned := cleanOptional(value)
	if cleaned == nil {
		return nil
	}
	if len(*cleaned) > 110 {
		return nil
	}
	if len(strings.Fields(*cleaned)) > 14 {
		return nil
	}
	lowered := " " + strings.ToLower(*cleaned) + " "
	for _, token := range []string{" who ", " which ", " that ", " pending ", " noted ", " assessment ", " on the same date "} {
		if strings.Contains(lowered, token) {
			return nil
		}
	}
	return cleaned
}

// NormalizeList cleans each element, drops empties, and deduplicates while
// preserving first-seen order.
func NormalizeList(values []string) []string {
	result := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, value := range values {
		cleaned := CleanString(value)
		if cleaned == nil || seen[*cleaned] {
			continue
		}
		seen[*cleaned] = true
		result = append(result, *cleaned)
	}
	return result
}

// NormalizeListAny coerces a decoded JSON value into a cleaned string list.
// Lists are cleaned element-wise; a bare string splits on commas.
func NormalizeListAny(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
		return NormalizeList(items)
	case []string:
		return NormalizeList(v)
	case string:
		return NormalizeList(strings.Split(v, ","))
	default:
		return []string{}
	}
}

// NormalizeOptionalBool coerces loosely typed truthy values to *bool.
func NormalizeOptionalBool(value any) *bool {
	switch v := value.(type) {
	case bool:
		return &v
	case float64:
		b := v != 0
		return &b
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			b := true
			return &b
		case "false", "no", "0":
			b := false
			return &b
		}
	}
	return nil
}

func cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	return CleanString(*value)
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
