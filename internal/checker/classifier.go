package checker

import (
	"fmt"
	"strings"
)

// Evidence is everything collected about one record before classification.
// Target fields are only populated when the source fetch returned 200;
// Match is only populated when both fetches returned 200.
type Evidence struct {
	Source    *FetchResult
	SourceErr error
	Target    *FetchResult
	TargetErr error
	Match     *MatchResult
	// Fallback holds the loose scan of the source body, populated only
	// when the target responded with exactly 400.
	Fallback *MatchResult
}

// Classify reduces collected evidence to an Outcome. It is a pure function:
// identical evidence always yields an identical (status, remark) pair.
func Classify(ev Evidence) Outcome {
	status, remark := classify(ev)
	return Outcome{
		Status: status,
		Remark: remark,
		Color:  colorFor(status, remark),
	}
}

func classify(ev Evidence) (Status, string) {
	if ev.SourceErr != nil {
		if isTLSError(ev.SourceErr) {
			return StatusUnknown, ev.SourceErr.Error()
		}
		return StatusMissing, ev.SourceErr.Error()
	}

	switch ev.Source.StatusCode {
	case 200:
	case 403:
		return StatusUnknown, "forbidden (403)"
	case 401:
		return StatusUnknown, "unauthorized (401)"
	default:
		return StatusMissing, statusLabel(ev.Source.StatusCode)
	}

	if ev.TargetErr != nil {
		return StatusMissing, "target unreachable: " + ev.TargetErr.Error()
	}

	switch {
	case ev.Target.StatusCode == 400:
		// The target rejects the probe outright; fall back to asking
		// whether the source still links to the target's site at all.
		if ev.Fallback != nil && len(ev.Fallback.LooseURLs) > 0 {
			return StatusLive, "target unreachable (400) but related link(s) found: " +
				strings.Join(ev.Fallback.LooseURLs, ", ")
		}
		return StatusMissing, "target unreachable (400)"
	case ev.Target.StatusCode != 200:
		return StatusMissing, "target " + statusLabel(ev.Target.StatusCode)
	}

	if ev.Match == nil {
		return StatusMissing, ""
	}

	switch ev.Match.Kind {
	case MatchDefault:
		if ev.Match.AltScheme {
			return StatusLive, "alternate scheme match"
		}
		return StatusLive, ""
	case MatchNofollow:
		if ev.Match.AltScheme {
			return StatusLive, "nofollow link (alternate scheme)"
		}
		return StatusLive, "nofollow link"
	case MatchLoose:
		return StatusLive, "different link(s) found: " + strings.Join(ev.Match.LooseURLs, ", ")
	default:
		return StatusMissing, ""
	}
}

var tlsErrorMarkers = []string{
	"ssl",
	"certificate",
	"handshake",
	"secure connection",
	"tls",
	"x509",
}

// isTLSError reports whether a transport error bears the hallmarks of a
// TLS/certificate problem. Such failures are inconclusive: the link may be
// intact but inaccessible to the automated checker.
func isTLSError(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, marker := range tlsErrorMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// statusLabel maps common HTTP status codes to short human labels;
// unmapped codes pass through numerically.
func statusLabel(code int) string {
	switch {
	case code == 404:
		return "not found (404)"
	case code == 408:
		return "request timeout (408)"
	case code == 429:
		return "too many requests (429)"
	case code >= 500 && code < 600:
		return fmt.Sprintf("server error (%d)", code)
	default:
		return fmt.Sprintf("HTTP %d", code)
	}
}

// Display colors keyed by outcome category. Presentation only; nothing
// reads these back.
const (
	colorLive      = "#b7e1cd"
	colorNofollow  = "#fce8b2"
	colorAltScheme = "#d9ead3"
	colorLoose     = "#fff2cc"
	colorMissing   = "#f4c7c3"
	colorUnknown   = "#fce5cd"
)

func colorFor(status Status, remark string) string {
	switch status {
	case StatusMissing:
		return colorMissing
	case StatusUnknown:
		return colorUnknown
	}

	switch {
	case strings.HasPrefix(remark, "nofollow link"):
		return colorNofollow
	case remark == "alternate scheme match":
		return colorAltScheme
	case strings.HasPrefix(remark, "different link(s) found"),
		strings.HasPrefix(remark, "target unreachable (400)"):
		return colorLoose
	default:
		return colorLive
	}
}
