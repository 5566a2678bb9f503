package ingest

import (
	"strings"

	"github.com/Ramsey-B/laurel/pkg/normalizers"
)

// Keyword gates for the news triplet feed. A story must read as both a
// death lead and immigration-enforcement related to produce a candidate.
var (
	DeathKeywords = []string{
		"killed",
		"fatally",
		"shot",
		"shot and killed",
		"shot dead",
		"died",
		"death",
		"dead",
		"fatal",
		"murdered",
		"slain",
	}

	IceKeywords = []string{
		"ice",
		"immigration and customs enforcement",
		"immigration officers",
		"immigration enforcement",
		"ice agent",
		"ice agents",
		"ice officer",
		"border patrol",
		"cbp",
		"homeland security",
		"dhs",
		"hsi",
	}
)

func isDeathLead(text string) bool {
	return normalizers.ContainsAnyKeyword(text, DeathKeywords)
}

func isICERelated(text string) bool {
	return normalizers.ContainsAnyKeyword(text, IceKeywords)
}

func inferDeathContext(text string) string {
	if normalizers.ContainsAnyKeyword(text, normalizers.DetentionKeywords) {
		return "detention"
	}
	return "street"
}

func inferAgency(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "hsi"):
		return "HSI"
	case strings.Contains(lowered, "cbp"), strings.Contains(lowered, "border patrol"):
		return "CBP"
	case strings.Contains(lowered, "dhs"), strings.Contains(lowered, "homeland security"):
		return "DHS"
	case strings.Contains(lowered, "ice"), strings.Contains(lowered, "immigration and customs enforcement"):
		return "ICE"
	}
	return "unknown"
}

func inferCustodyStatus(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "transport"), strings.Contains(lowered, "transfer"):
		return "ICE transport"
	case strings.Contains(lowered, "cbp"), strings.Contains(lowered, "border patrol"):
		return "CBP encounter"
	case normalizers.ContainsAnyKeyword(text, normalizers.DetentionKeywords):
		return "ICE detention"
	}
	return "unknown"
}

func inferManner(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "shot"), strings.Contains(lowered, "shooting"):
		return "shooting"
	case strings.Contains(lowered, "stabbed"), strings.Contains(lowered, "stabbing"):
		return "stabbing"
	case strings.Contains(lowered, "overdose"):
		return "overdose"
	case strings.Contains(lowered, "suicide"):
		return "suicide"
	case strings.Contains(lowered, "killed"), strings.Contains(lowered, "fatally"):
		return "homicide"
	}
	return ""
}

func extractInvestigationStatus(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "under investigation"), strings.Contains(lowered, "investigation continues"):
		return "under_investigation"
	case strings.Contains(lowered, "awaiting autopsy"), strings.Contains(lowered, "autopsy pending"):
		return "autopsy_pending"
	case strings.Contains(lowered, "homicide investigation"), strings.Contains(lowered, "homicide probe"):
		return "homicide_investigation"
	case strings.Contains(lowered, "ruled a homicide"), strings.Contains(lowered, "ruled homicide"):
		return "ruled_homicide"
	case strings.Contains(lowered, "charged with"), strings.Contains(lowered, "charges filed"):
		return "charges_filed"
	case strings.Contains(lowered, "no charges"), strings.Contains(lowered, "declined to charge"):
		return "no_charges"
	}
	return ""
}

func extractSuspectRoleAndAgency(text string) (string, string) {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "ice agent"), strings.Contains(lowered, "ice officer"),
		strings.Contains(lowered, "immigration officer"):
		return "ICE agent", "ICE"
	case strings.Contains(lowered, "border patrol"), strings.Contains(lowered, "cbp"):
		return "Border Patrol agent", "CBP"
	case strings.Contains(lowered, "hsi"):
		return "HSI agent", "HSI"
	}
	return "", ""
}

func extractSuspectIdentified(text string) *bool {
	lowered := strings.ToLower(text)
	falseValue, trueValue := false, true
	switch {
	case strings.Contains(lowered, "not been identified"),
		strings.Contains(lowered, "unidentified"),
		strings.Contains(lowered, "identity has not been released"),
		strings.Contains(lowered, "identity not released"):
		return &falseValue
	case strings.Contains(lowered, "identified as"),
		strings.Contains(lowered, "was identified"),
		strings.Contains(lowered, "named as"):
		return &trueValue
	}
	return nil
}

func extractSuspectStatus(text string) string {
	lowered := strings.ToLower(text)
	switch {
	case strings.Contains(lowered, "charged with"), strings.Contains(lowered, "charges filed"):
		return "charged"
	case strings.Contains(lowered, "arrested"):
		return "arrested"
	case strings.Contains(lowered, "suspended"), strings.Contains(lowered, "placed on leave"):
		return "suspended"
	}
	return ""
}

// scoreConfidence prescores a triplet candidate from its keyword hits.
func scoreConfidence(text, personName string) int {
	score := 10
	if isDeathLead(text) {
		score += 40
	}
	if isICERelated(text) {
		score += 30
	}
	if personName != "" {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}
