package checker

import "testing"

// The DOM matcher must honor the same contract as the regex matcher.
func TestDOMMatcherContract(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		target   string
		wantKind MatchKind
		wantAlt  bool
	}{
		{
			name:     "exact anchor",
			body:     `<html><body><a href="https://target.example/x">here</a></body></html>`,
			target:   "https://target.example/x",
			wantKind: MatchDefault,
		},
		{
			name:     "nofollow token among others",
			body:     `<a href="https://target.example/x" rel="ugc NoFollow">here</a>`,
			target:   "https://target.example/x",
			wantKind: MatchNofollow,
		},
		{
			name:     "scheme swapped",
			body:     `<a href="http://target.example/x">here</a>`,
			target:   "https://target.example/x",
			wantKind: MatchDefault,
			wantAlt:  true,
		},
		{
			name:     "loose fallback",
			body:     `<p>see https://target.example/other for details</p>`,
			target:   "https://target.example/x",
			wantKind: MatchLoose,
		},
		{
			name:     "not found",
			body:     `<a href="https://elsewhere.net/">x</a>`,
			target:   "https://target.example/x",
			wantKind: MatchNotFound,
		},
		{
			// Broken markup the regex approach would trip over: the DOM
			// parser normalizes unclosed tags.
			name:     "unclosed tags",
			body:     `<div><a href="https://target.example/x">link<div>`,
			target:   "https://target.example/x",
			wantKind: MatchDefault,
		},
	}

	m := NewDOMMatcher(5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.body, tt.target)
			if got.Kind != tt.wantKind {
				t.Errorf("Match kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.AltScheme != tt.wantAlt {
				t.Errorf("AltScheme = %v, want %v", got.AltScheme, tt.wantAlt)
			}
		})
	}
}
