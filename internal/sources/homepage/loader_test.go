package homepage

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `---
- Developer:
    - Github:
        - abbr: GH
          href: https://github.com/
          icon: github.png
- Social:
    - Reddit:
        - abbr: RE
          href: https://reddit.com/
          description: The front page of the internet
    - Secret:
        - abbr: SE
          href: {{HOMEPAGE_VAR_SECRET_URL}}
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bookmarks.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to create test YAML file: %v", err)
	}
	return path
}

func TestLoaderLoad(t *testing.T) {
	loader := NewLoader(writeFile(t, sampleYAML))

	config, err := loader.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(config) != 2 {
		t.Fatalf("Load() returned %v categories, want 2", len(config))
	}

	entries := config[0]["Developer"][0]["Github"]
	if len(entries) != 1 || entries[0].Href != "https://github.com/" {
		t.Errorf("Github entry = %+v", entries)
	}
}

func TestLoaderLoadFileNotFound(t *testing.T) {
	loader := NewLoader("/nonexistent/path/bookmarks.yaml")
	if _, err := loader.Load(); err == nil {
		t.Error("Load() with non-existent file should return error")
	}
}

func TestLoaderLoadInvalidYAML(t *testing.T) {
	loader := NewLoader(writeFile(t, "- Developer: [unclosed"))
	if _, err := loader.Load(); err == nil {
		t.Error("Load() with invalid YAML should return error")
	}
}

func TestStripTemplateVariables(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single template variable",
			input:    "href: {{HOMEPAGE_VAR_URL}}",
			expected: `href: ""`,
		},
		{
			name:     "multiple template variables",
			input:    "a: {{A}}\nb: {{B}}",
			expected: "a: \"\"\nb: \"\"",
		},
		{
			name:     "no template variables",
			input:    "href: https://example.com",
			expected: "href: https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(stripTemplateVariables([]byte(tt.input)))
			if got != tt.expected {
				t.Errorf("stripTemplateVariables() = %q, want %q", got, tt.expected)
			}
		})
	}
}
