package config

import (
	"os"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("Expected default config to be created")
	}

	// Test harness defaults: the four-node reference scenario
	if cfg.Harness.NodeCount() != 4 {
		t.Errorf("Expected 4 node slots, got %d", cfg.Harness.NodeCount())
	}

	if cfg.Harness.NodeNames[0] != "node1" {
		t.Errorf("Expected first slot bound to node1, got %s", cfg.Harness.NodeNames[0])
	}

	if cfg.Harness.PortFor(0) != 6999 {
		t.Errorf("Expected slot 0 default port 6999, got %d", cfg.Harness.PortFor(0))
	}

	if cfg.Harness.PortFor(3) != 7299 {
		t.Errorf("Expected slot 3 default port 7299, got %d", cfg.Harness.PortFor(3))
	}

	// Test API defaults
	if cfg.API.Port <= 0 {
		t.Error("Expected API port to be positive")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	configContent := `
harness:
  node_names: ["alpha", "beta"]
  default_host: "127.0.0.1"
  base_port: 9000
  port_stride: 10

api:
  host: "127.0.0.1"
  port: 8088
  enable_cors: false

monitoring:
  enabled: true
  metrics_port: 9191
  metrics_path: "/metrics"

logging:
  level: "debug"
  format: "json"
`

	tmpfile, err := os.CreateTemp("", "mockgrid_test_config_*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpfile.Name())

	if _, err := tmpfile.WriteString(configContent); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(tmpfile.Name())
	if err != nil {
		t.Fatalf("Expected config to load, got %v", err)
	}

	if cfg.Harness.NodeCount() != 2 {
		t.Errorf("Expected 2 node slots, got %d", cfg.Harness.NodeCount())
	}

	if cfg.Harness.PortFor(1) != 9010 {
		t.Errorf("Expected slot 1 port 9010, got %d", cfg.Harness.PortFor(1))
	}

	if cfg.API.Port != 8088 {
		t.Errorf("Expected API port 8088, got %d", cfg.API.Port)
	}

	if cfg.Monitoring.MetricsPort != 9191 {
		t.Errorf("Expected metrics port 9191, got %d", cfg.Monitoring.MetricsPort)
	}

	if string(cfg.Logging.Level) != "debug" {
		t.Errorf("Expected debug log level, got %s", cfg.Logging.Level)
	}
}

func TestValidateRejectsDuplicateNodeNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Harness.NodeNames = []string{"node1", "node1"}

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation to reject duplicate node names")
	}
}

func TestValidateRejectsEmptyNodeTable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Harness.NodeNames = nil

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation to reject an empty node table")
	}
}

func TestValidateRejectsBadPorts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Harness.BasePort = -1

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation to reject a negative base port")
	}

	cfg = DefaultConfig()
	cfg.Monitoring.MetricsPort = 70000

	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation to reject an out-of-range metrics port")
	}
}
