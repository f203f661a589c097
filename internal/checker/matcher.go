package checker

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// RegexMatcher is the canonical LinkMatcher. It searches the raw body text
// for an anchor tag whose href equals the target URL literally, falling
// back to an http-scheme variant and then to a loose same-site scan.
type RegexMatcher struct {
	looseLimit int
}

// NewRegexMatcher creates a matcher. looseLimit caps how many URLs the
// loose fallback reports.
func NewRegexMatcher(looseLimit int) *RegexMatcher {
	if looseLimit <= 0 {
		looseLimit = 5
	}
	return &RegexMatcher{looseLimit: looseLimit}
}

// Match applies the ordered matching strategies, first match wins:
//  1. anchor with href equal to the target URL as given
//  2. anchor with href equal to the https->http swapped target
//  3. loose scan for any URL in the target's domain family
func (m *RegexMatcher) Match(body, targetURL string) MatchResult {
	for i, candidate := range schemeCandidates(targetURL) {
		tag, ok := findAnchor(body, candidate)
		if !ok {
			continue
		}
		kind := MatchDefault
		if hasNofollow(tag) {
			kind = MatchNofollow
		}
		return MatchResult{Kind: kind, AltScheme: i > 0}
	}

	if urls := LooseScan(body, targetURL, m.looseLimit); len(urls) > 0 {
		return MatchResult{Kind: MatchLoose, LooseURLs: urls}
	}

	return MatchResult{Kind: MatchNotFound}
}

// schemeCandidates returns the target URL as given plus, for https targets,
// the same URL with an http scheme. The swap goes only in that direction.
func schemeCandidates(targetURL string) []string {
	candidates := []string{targetURL}
	if rest, ok := strings.CutPrefix(targetURL, "https://"); ok {
		candidates = append(candidates, "http://"+rest)
	}
	return candidates
}

// findAnchor searches body for an anchor tag whose href attribute equals
// candidate, case-insensitive, with single or double quotes. The candidate
// is metacharacter-escaped: this is a literal substring match, not a
// URL-semantics match.
func findAnchor(body, candidate string) (string, bool) {
	pattern := `(?i)<a\b[^>]*\bhref\s*=\s*["']` + regexp.QuoteMeta(candidate) + `["'][^>]*>`
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", false
	}
	tag := re.FindString(body)
	return tag, tag != ""
}

var nofollowRe = regexp.MustCompile(`(?i)\brel\s*=\s*["'][^"']*\bnofollow\b[^"']*["']`)

// hasNofollow reports whether the matched anchor tag carries a rel
// attribute containing the nofollow token.
func hasNofollow(tag string) bool {
	return nofollowRe.MatchString(tag)
}

var bodyURLRe = regexp.MustCompile(`(?i)https?://[^\s"'<>)]+`)

// LooseScan collects URLs in body that share the target's domain family
// (same registrable domain, any path), up to limit, deduplicated in order
// of appearance. Any link to the site counts as evidence; the permissive
// behavior is deliberate.
func LooseScan(body, targetURL string, limit int) []string {
	family := domainFamily(targetURL)
	if family == "" {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	seen := make(map[string]bool)
	var found []string
	for _, raw := range bodyURLRe.FindAllString(body, -1) {
		if domainFamily(raw) != family || seen[raw] {
			continue
		}
		seen[raw] = true
		found = append(found, raw)
		if len(found) >= limit {
			break
		}
	}
	return found
}

// domainFamily returns the registrable domain of a URL's host, or the bare
// host when the public suffix list has no answer for it.
func domainFamily(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	family, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return family
}
