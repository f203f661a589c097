package checker

import "time"

// Status is the closed classification applied to every checked record.
type Status string

const (
	// StatusLive means the expected backlink (or an accepted variant of it)
	// was found on the source page.
	StatusLive Status = "live"
	// StatusMissing means no qualifying link was found, or the check failed
	// in a way that is not trust-related.
	StatusMissing Status = "missing"
	// StatusUnknown means the check itself was inconclusive (access denied,
	// TLS trouble) rather than the link being absent.
	StatusUnknown Status = "unknown"
)

// Record is one row of a dataset. Row is 1-based; row 1 is the header row
// and never appears as a Record.
type Record struct {
	Row       int
	SourceURL string // page expected to host the link; empty means skip
	TargetURL string // URL expected to be linked to
}

// Outcome is the result written back for a checked record. Color is a
// display hint derived from Status and Remark; it never feeds back into
// control flow.
type Outcome struct {
	Status Status
	Remark string
	Color  string
}

// MatchKind identifies how (or whether) the target link was found on the
// source page.
type MatchKind int

const (
	MatchNotFound MatchKind = iota
	MatchDefault            // anchor with matching href
	MatchNofollow           // anchor found but rel contains nofollow
	MatchLoose              // no anchor, but same-site URLs appear in the body
)

// MatchResult is the output of a LinkMatcher.
type MatchResult struct {
	Kind MatchKind
	// AltScheme is set when the match used the https->http swapped
	// candidate rather than the target URL as given.
	AltScheme bool
	// LooseURLs holds the URLs reported by the loose fallback, capped at
	// the configured limit.
	LooseURLs []string
}

// ProgressState is the externally persisted cursor of a verification cycle.
// The pair (DatasetIndex, Row) fully determines the resumption point.
type ProgressState struct {
	DatasetNames []string
	DatasetIndex int
	Row          int
}

// FailedCheck is the tuple forwarded to the notification queue for every
// record that ends up missing.
type FailedCheck struct {
	SourceURL string
	TargetURL string
	CheckedAt time.Time
	Remark    string
}
