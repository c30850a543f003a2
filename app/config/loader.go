package config

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the websites seed file
type Loader struct {
	path string
}

// NewLoader creates a new seed file loader
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the seed file and returns the website entries.
// A missing file is not an error: websites can also be registered via the API.
func (l *Loader) Load() ([]WebsiteSeed, error) {
	if _, err := os.Stat(l.path); os.IsNotExist(err) {
		return nil, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, entry := range seed.Websites {
		if err := l.validate(entry); err != nil {
			return nil, fmt.Errorf("invalid website entry at index %d: %w", i, err)
		}
	}

	return seed.Websites, nil
}

// validate validates a single website entry
func (l *Loader) validate(entry WebsiteSeed) error {
	if entry.URL == "" {
		return fmt.Errorf("website URL is required")
	}
	if entry.Name == "" {
		return fmt.Errorf("website name is required")
	}

	parsed, err := url.Parse(entry.URL)
	if err != nil {
		return fmt.Errorf("website URL is not a valid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("website URL must use http or https scheme")
	}
	if parsed.Host == "" {
		return fmt.Errorf("website URL must have a host")
	}

	return nil
}
