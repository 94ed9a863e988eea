package htmlsanitize

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		keep []string
		drop []string
	}{
		{
			name: "findings table",
			in:   `<table class="findings"><tr><th colspan="2">Findings</th></tr><tr><td rowspan="2">Lungs</td><td>Clear</td></tr></table>`,
			keep: []string{"<table", `class="findings"`, `colspan="2"`, `rowspan="2"`, "Lungs"},
		},
		{
			name: "headings and emphasis",
			in:   "<h2>Impression</h2><p><strong>No</strong> acute <em>process</em>.</p><ul><li>one</li></ul>",
			keep: []string{"<h2>Impression</h2>", "<strong>No</strong>", "<em>process</em>", "<li>one</li>"},
		},
		{
			name: "alignment style on cells",
			in:   `<td style="text-align: center">Centered</td>`,
			keep: []string{"text-align", "Centered"},
		},
		{
			name: "script",
			in:   "<p>Report</p><script>alert(1)</script>",
			keep: []string{"<p>Report</p>"},
			drop: []string{"<script", "alert(1)"},
		},
		{
			name: "event handlers",
			in:   `<p onclick="steal()">x</p><img src="https://pacs.example/a.png" onerror="steal()">`,
			keep: []string{"https://pacs.example/a.png"},
			drop: []string{"onclick", "onerror", "steal()"},
		},
		{
			name: "javascript and data urls",
			in:   `<a href="javascript:alert(1)">bad</a><img src="data:image/png;base64,AAAA">`,
			drop: []string{"javascript:", "data:image"},
		},
		{
			name: "frames forms and style blocks",
			in:   `<iframe src="https://evil.example"></iframe><form><input name="x"></form><style>p{}</style><p>Body</p>`,
			keep: []string{"Body"},
			drop: []string{"<iframe", "<form", "<input", "<style"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Sanitize(tc.in)
			for _, s := range tc.keep {
				if !strings.Contains(got, s) {
					t.Errorf("Sanitize() = %q, missing %q", got, s)
				}
			}
			for _, s := range tc.drop {
				if strings.Contains(got, s) {
					t.Errorf("Sanitize() = %q, still contains %q", got, s)
				}
			}
		})
	}
}

func TestSanitize_Empty(t *testing.T) {
	if got := Sanitize(""); got != "" {
		t.Errorf("Sanitize(\"\") = %q, want empty", got)
	}
}

func TestIsPlainText(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"No acute findings.", true},
		{"size < 5mm", true},
		{"ratio > 1", true},
		{"<p>tagged</p>", false},
	}
	for _, tc := range tests {
		if got := IsPlainText(tc.in); got != tc.want {
			t.Errorf("IsPlainText(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPrepare(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain line", "Normal study", "<p>Normal study</p>"},
		{"plain lines", "Heart: normal\nLungs: clear", "<p>Heart: normal<br>Lungs: clear</p>"},
		{"plain text is escaped", "A & B < 3", "<p>A &amp; B &lt; 3</p>"},
		{"html passes through", "<p>Impression</p>", "<p>Impression</p>"},
		{"html is sanitized", "<p>Impression</p><script>x()</script>", "<p>Impression</p>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Prepare(tc.in); got != tc.want {
				t.Errorf("Prepare(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
