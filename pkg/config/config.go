package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/meftunca/mockgrid/pkg/logging"
	"github.com/meftunca/mockgrid/pkg/types"
)

// HarnessConfig holds the fixed node table and addressing defaults. The
// index-to-name binding is fixed at configuration time; slot i is bound to
// NodeNames[i] for the lifetime of the harness.
type HarnessConfig struct {
	NodeNames   []string `mapstructure:"node_names" yaml:"node_names" json:"node_names"`
	DefaultHost string   `mapstructure:"default_host" yaml:"default_host" json:"default_host"`
	BasePort    int      `mapstructure:"base_port" yaml:"base_port" json:"base_port"`
	PortStride  int      `mapstructure:"port_stride" yaml:"port_stride" json:"port_stride"`
}

// NodeCount returns the number of configured node slots.
func (c HarnessConfig) NodeCount() int {
	return len(c.NodeNames)
}

// PortFor returns the default port for the given slot index.
func (c HarnessConfig) PortFor(index int) int {
	return c.BasePort + index*c.PortStride
}

// APIConfig holds the driver-facing HTTP API settings
type APIConfig struct {
	Host            string        `mapstructure:"host" yaml:"host" json:"host"`
	Port            int           `mapstructure:"port" yaml:"port" json:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" json:"idle_timeout"`
	EnableCORS      bool          `mapstructure:"enable_cors" yaml:"enable_cors" json:"enable_cors"`
	EnableLogger    bool          `mapstructure:"enable_logger" yaml:"enable_logger" json:"enable_logger"`
	EnableRecover   bool          `mapstructure:"enable_recover" yaml:"enable_recover" json:"enable_recover"`
	EnableRequestID bool          `mapstructure:"enable_request_id" yaml:"enable_request_id" json:"enable_request_id"`
}

// MonitoringConfig holds monitoring and metrics settings
type MonitoringConfig struct {
	Enabled         bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	MetricsPort     int    `mapstructure:"metrics_port" yaml:"metrics_port" json:"metrics_port"`
	MetricsPath     string `mapstructure:"metrics_path" yaml:"metrics_path" json:"metrics_path"`
	HealthCheckPath string `mapstructure:"health_check_path" yaml:"health_check_path" json:"health_check_path"`
}

// Config represents the main configuration structure
type Config struct {
	Harness    HarnessConfig    `mapstructure:"harness" yaml:"harness" json:"harness"`
	API        APIConfig        `mapstructure:"api" yaml:"api" json:"api"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring" json:"monitoring"`
	Logging    logging.Config   `mapstructure:"logging" yaml:"logging" json:"logging"`
}

// DefaultConfig returns a configuration matching the four-node reference
// scenario: node1..node4 on localhost, ports 6999/7099/7199/7299
func DefaultConfig() *Config {
	return &Config{
		Harness: HarnessConfig{
			NodeNames:   []string{"node1", "node2", "node3", "node4"},
			DefaultHost: "localhost",
			BasePort:    6999,
			PortStride:  100,
		},
		API: APIConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			EnableCORS:      true,
			EnableLogger:    true,
			EnableRecover:   true,
			EnableRequestID: true,
		},
		Monitoring: MonitoringConfig{
			Enabled:         true,
			MetricsPort:     9090,
			MetricsPath:     "/metrics",
			HealthCheckPath: "/health",
		},
		Logging: logging.DefaultConfig(),
	}
}

// LoadConfig loads configuration from file
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	config := DefaultConfig()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/mockgrid")
	}

	// Enable reading from environment variables
	v.SetEnvPrefix("MOCKGRID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal config
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Harness.NodeNames) == 0 {
		return types.ErrInvalidConfig("harness.node_names must name at least one node")
	}

	seen := make(map[string]bool, len(c.Harness.NodeNames))
	for _, name := range c.Harness.NodeNames {
		if name == "" {
			return types.ErrInvalidConfig("harness.node_names must not contain empty names")
		}
		if seen[name] {
			return types.ErrInvalidConfig(fmt.Sprintf("duplicate node name: %s", name))
		}
		seen[name] = true
	}

	if c.Harness.BasePort <= 0 || c.Harness.BasePort > 65535 {
		return types.ErrInvalidConfig(fmt.Sprintf("invalid base port: %d", c.Harness.BasePort))
	}

	if c.Harness.PortStride < 0 {
		return types.ErrInvalidConfig(fmt.Sprintf("invalid port stride: %d", c.Harness.PortStride))
	}

	if c.API.Port <= 0 || c.API.Port > 65535 {
		return types.ErrInvalidConfig(fmt.Sprintf("invalid API port: %d", c.API.Port))
	}

	if c.Monitoring.Enabled {
		if c.Monitoring.MetricsPort <= 0 || c.Monitoring.MetricsPort > 65535 {
			return types.ErrInvalidConfig(fmt.Sprintf("invalid metrics port: %d", c.Monitoring.MetricsPort))
		}
	}

	return nil
}
