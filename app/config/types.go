package config

// WebsiteSeed is a single website registration entry from the seed file.
type WebsiteSeed struct {
	URL    string `yaml:"url"`
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"` // nil means active
}

// SeedFile is the top-level structure of the websites seed file.
type SeedFile struct {
	Websites []WebsiteSeed `yaml:"websites"`
}

// IsActive resolves the optional active flag, defaulting to true.
func (w WebsiteSeed) IsActive() bool {
	return w.Active == nil || *w.Active
}
