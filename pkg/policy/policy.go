// Package policy holds the source-domain lists that gate which citations a
// record may carry and how its confidence is scored.
package policy

import (
	"net/url"
	"strings"
)

// SourcePolicy is the set of domain lists applied when filtering sources and
// scoring records. Matching is suffix-aware: a listed domain matches the
// exact host and any subdomain of it.
type SourcePolicy struct {
	Allowed               map[string]bool
	Blocked               map[string]bool
	Official              map[string]bool
	TriangulationRequired map[string]bool
}

// Default returns the production domain lists.
func Default() *SourcePolicy {
	return &SourcePolicy{
		Allowed: set(
			"reuters.com",
			"apnews.com",
			"pbs.org",
			"npr.org",
			"nbcnews.com",
			"propublica.org",
			"nytimes.com",
			"washingtonpost.com",
			"latimes.com",
			"startribune.com",
			"houstonchronicle.com",
			"dallasnews.com",
			"azcentral.com",
			"sfchronicle.com",
			"chicagotribune.com",
			"ice.gov",
			"justice.gov",
			"oig.dhs.gov",
			"ifs.harriscountytx.gov",
			"me.lacounty.gov",
			"cookcountyil.gov",
			"maricopa.gov",
			"pima.gov",
		),
		Blocked: set(
			"freerepublic.com",
			"memeorandum.com",
			"headtopics.com",
			"onenewspage.com",
			"newsnow.co.uk",
			"substack.com",
			"medium.com",
			"blogspot.com",
			"wordpress.com",
			"facebook.com",
			"twitter.com",
			"reddit.com",
			"rumble.com",
			"bitchute.com",
		),
		Official: set(
			"ice.gov",
			"justice.gov",
			"oig.dhs.gov",
			"ifs.harriscountytx.gov",
			"me.lacounty.gov",
			"cookcountyil.gov",
			"maricopa.gov",
			"pima.gov",
		),
		TriangulationRequired: set(
			"apnews.com",
			"nbcnews.com",
		),
	}
}

// ExtractDomain pulls the registrable host out of a URL, stripping the port
// and a leading www. Returns "" when no host can be found.
func ExtractDomain(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Host)
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	host = strings.TrimPrefix(host, "www.")
	return host
}

// NormalizeDomain cleans a bare domain or URL into a host suitable for list
// comparison.
func NormalizeDomain(value string) string {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return ""
	}
	if strings.HasPrefix(cleaned, "http://") || strings.HasPrefix(cleaned, "https://") {
		return ExtractDomain(cleaned)
	}
	cleaned = strings.ToLower(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "www.")
	if idx := strings.Index(cleaned, "/"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	return cleaned
}

// IsBlocked reports whether a URL's host is on the block list. URLs with no
// extractable host are treated as blocked.
func (p *SourcePolicy) IsBlocked(rawURL string) bool {
	host := ExtractDomain(rawURL)
	if host == "" {
		return true
	}
	return matchesAny(host, p.Blocked)
}

// IsAllowed reports whether a URL's host is on the allow list and not
// blocked.
func (p *SourcePolicy) IsAllowed(rawURL string) bool {
	host := ExtractDomain(rawURL)
	if host == "" {
		return false
	}
	if p.IsBlocked(rawURL) {
		return false
	}
	return matchesAny(host, p.Allowed)
}

// IsOfficial reports whether a URL's host belongs to a government source.
func (p *SourcePolicy) IsOfficial(rawURL string) bool {
	host := ExtractDomain(rawURL)
	if host == "" {
		return false
	}
	return matchesAny(host, p.Official)
}

// IsWikipedia reports whether a URL points at any wikipedia.org host.
// Wikipedia is never an acceptable citation for a death record.
func IsWikipedia(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(parsed.Host), "wikipedia.org")
}

// HasAllTriangulationDomains reports whether every domain on the
// triangulation list appears in the given host set.
func (p *SourcePolicy) HasAllTriangulationDomains(domains map[string]bool) bool {
	for required := range p.TriangulationRequired {
		if !domains[required] {
			return false
		}
	}
	return true
}

func domainMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func matchesAny(host string, domains map[string]bool) bool {
	for domain := range domains {
		if domainMatches(host, domain) {
			return true
		}
	}
	return false
}

func set(domains ...string) map[string]bool {
	result := make(map[string]bool, len(domains))
	for _, domain := range domains {
		result[domain] = true
	}
	return result
}
