package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSeedFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "websites.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSeedFile(t *testing.T) {
	path := writeSeedFile(t, `
websites:
  - url: https://example.com
    name: Example
  - url: https://blog.example.org
    name: Example Blog
    active: false
`)

	loader := NewLoader(path)
	websites, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}

	if len(websites) != 2 {
		t.Fatalf("Expected 2 websites, got %d", len(websites))
	}

	if websites[0].URL != "https://example.com" {
		t.Errorf("Expected URL 'https://example.com', got '%s'", websites[0].URL)
	}
	if websites[0].Name != "Example" {
		t.Errorf("Expected name 'Example', got '%s'", websites[0].Name)
	}
	if !websites[0].IsActive() {
		t.Error("Expected first website to default to active")
	}
	if websites[1].IsActive() {
		t.Error("Expected second website to be inactive")
	}
}

func TestLoadMissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	websites, err := loader.Load()
	if err != nil {
		t.Fatalf("Missing seed file should not be an error, got: %v", err)
	}
	if len(websites) != 0 {
		t.Errorf("Expected no websites, got %d", len(websites))
	}
}

func TestLoadInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "missing URL",
			content: `
websites:
  - name: No URL
`,
		},
		{
			name: "missing name",
			content: `
websites:
  - url: https://example.com
`,
		},
		{
			name: "bad scheme",
			content: `
websites:
  - url: ftp://example.com
    name: FTP Site
`,
		},
		{
			name: "no host",
			content: `
websites:
  - url: "https://"
    name: Empty Host
`,
		},
		{
			name:    "malformed YAML",
			content: "websites: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(writeSeedFile(t, tt.content))
			if _, err := loader.Load(); err == nil {
				t.Error("Expected an error, got nil")
			}
		})
	}
}
