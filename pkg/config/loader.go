package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pkgerrors "github.com/AltairaLabs/cosyvoice-bridge/pkg/errors"
)

// Default values applied before a config file is decoded.
const (
	DefaultServerAddr         = ":8080"
	DefaultMetricsAddr        = ":9090"
	DefaultServiceName        = "cosyvoice-bridge"
	DefaultNotificationBuffer = 50
	DefaultRedisPrefix        = "cosyvoice"
	DefaultMaxBodySize        = 1 << 20

	defaultReadHeaderTimeout = 10 * time.Second
	defaultCatalogTimeout    = 15 * time.Second
	defaultSynthesisTimeout  = 120 * time.Second
)

// Defaults returns a complete configuration with every default applied.
func Defaults() *Config {
	return &Config{
		APIVersion: APIVersion,
		Kind:       KindBridgeConfig,
		Spec: BridgeSpec{
			Provider: ProviderConfig{
				CatalogTimeout:   defaultCatalogTimeout,
				SynthesisTimeout: defaultSynthesisTimeout,
			},
			Logging: DefaultLoggingConfig(),
			Persistence: PersistenceConfig{
				Backend: BackendMemory,
				Redis:   RedisConfig{Prefix: DefaultRedisPrefix},
			},
			Metrics: MetricsConfig{Addr: DefaultMetricsAddr},
			Telemetry: TelemetryConfig{
				ServiceName: DefaultServiceName,
			},
			Server: ServerConfig{
				Addr:               DefaultServerAddr,
				ReadHeaderTimeout:  defaultReadHeaderTimeout,
				NotificationBuffer: DefaultNotificationBuffer,
				MaxBodySize:        DefaultMaxBodySize,
			},
		},
	}
}

// Load reads and parses a config file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.ComponentConfig, "Load", err).
			WithDetails(map[string]any{"file": filename})
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.ComponentConfig, "Load", err).
			WithDetails(map[string]any{"file": filename})
	}
	return cfg, nil
}

// Parse expands ${VAR} references, checks the document against the schema,
// decodes it over Defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := []byte(os.ExpandEnv(string(data)))

	result, err := ValidateWithSchema(expanded)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, fmt.Errorf("config does not match schema:\n%s", formatSchemaErrors(result.Errors))
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
