package checker

import (
	"strings"

	"github.com/masahif/linkmamori/internal/parser"
)

// DOMMatcher implements LinkMatcher on a real HTML parse. It honors the
// same contract as RegexMatcher: exact href equality for the target and
// its http-scheme variant, nofollow detection on the matched anchor, loose
// same-site scan as the last resort.
type DOMMatcher struct {
	looseLimit int
}

// NewDOMMatcher creates a DOM-backed matcher.
func NewDOMMatcher(looseLimit int) *DOMMatcher {
	if looseLimit <= 0 {
		looseLimit = 5
	}
	return &DOMMatcher{looseLimit: looseLimit}
}

// Match parses the body and compares anchor hrefs literally, ignoring
// case, against the scheme candidates in order.
func (m *DOMMatcher) Match(body, targetURL string) MatchResult {
	anchors, err := parser.ExtractAnchors(body)
	if err != nil {
		anchors = nil
	}

	for i, candidate := range schemeCandidates(targetURL) {
		for _, a := range anchors {
			if !strings.EqualFold(a.Href, candidate) {
				continue
			}
			kind := MatchDefault
			if parser.HasRelToken(a.Rel, "nofollow") {
				kind = MatchNofollow
			}
			return MatchResult{Kind: kind, AltScheme: i > 0}
		}
	}

	if urls := LooseScan(body, targetURL, m.looseLimit); len(urls) > 0 {
		return MatchResult{Kind: MatchLoose, LooseURLs: urls}
	}

	return MatchResult{Kind: MatchNotFound}
}
