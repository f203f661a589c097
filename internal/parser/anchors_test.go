package parser

import "testing"

func TestExtractAnchors(t *testing.T) {
	body := `<html><body>
	<a href="https://a.example/1" rel="nofollow">first</a>
	<a href="https://a.example/2">second <b>link</b></a>
	<a name="no-href">skipped</a>
	<a href="https://a.example/3"></a>
	</body></html>`

	anchors, err := ExtractAnchors(body)
	if err != nil {
		t.Fatalf("ExtractAnchors failed: %v", err)
	}

	if len(anchors) != 3 {
		t.Fatalf("Expected 3 anchors, got %d: %+v", len(anchors), anchors)
	}

	if anchors[0].Href != "https://a.example/1" || anchors[0].Rel != "nofollow" {
		t.Errorf("First anchor = %+v", anchors[0])
	}
	if anchors[1].Text != "second link" {
		t.Errorf("Nested text = %q, want 'second link'", anchors[1].Text)
	}
	if anchors[2].Text != "" {
		t.Errorf("Empty anchor text = %q", anchors[2].Text)
	}
}

func TestExtractAnchorsBrokenMarkup(t *testing.T) {
	anchors, err := ExtractAnchors(`<div><a href="/x">unclosed<div><a href="/y">second`)
	if err != nil {
		t.Fatalf("Tolerant parse failed: %v", err)
	}
	if len(anchors) != 2 {
		t.Errorf("Expected 2 anchors from broken markup, got %d", len(anchors))
	}
}

func TestHasRelToken(t *testing.T) {
	tests := []struct {
		rel   string
		token string
		want  bool
	}{
		{"nofollow", "nofollow", true},
		{"ugc nofollow sponsored", "nofollow", true},
		{"NOFOLLOW", "nofollow", true},
		{"nofollower", "nofollow", false},
		{"", "nofollow", false},
	}

	for _, tt := range tests {
		if got := HasRelToken(tt.rel, tt.token); got != tt.want {
			t.Errorf("HasRelToken(%q, %q) = %v, want %v", tt.rel, tt.token, got, tt.want)
		}
	}
}
