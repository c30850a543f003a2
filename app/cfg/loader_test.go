package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:              "8080",
		UserAgent:         "Test Agent",
		WorkerCount:       5,
		SchedulerInterval: 300,
		APIAccessKey:      "test-key",
		Version:           "test-version",
		WebsitesFile:      "./websites.yml",
		DBHost:            "localhost",
		DBPort:            "5432",
		DBUser:            "test_user",
		DBPassword:        "test_password",
		DBName:            "test_db",
		FetchTimeout:      15,
		DiscoveryTimeout:  10,
		MaxBodySize:       10485760,
		MaxRedirects:      5,
		ProbeConcurrency:  4,
		DegradedThreshold: 3,
		InactiveThreshold: 10,
		Timezone:          "UTC",
		Debug:             true,
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("Expected worker count 5, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval != 300 {
		t.Errorf("Expected scheduler interval 300, got %d", cfg.SchedulerInterval)
	}
	if cfg.WebsitesFile != "./websites.yml" {
		t.Errorf("Expected websites file './websites.yml', got '%s'", cfg.WebsitesFile)
	}
	if cfg.MaxBodySize != 10485760 {
		t.Errorf("Expected max body size 10485760, got %d", cfg.MaxBodySize)
	}
	if cfg.DegradedThreshold != 3 {
		t.Errorf("Expected degraded threshold 3, got %d", cfg.DegradedThreshold)
	}
	if cfg.InactiveThreshold != 10 {
		t.Errorf("Expected inactive threshold 10, got %d", cfg.InactiveThreshold)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
}
