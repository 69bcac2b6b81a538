package config

import "time"

// Config is a bridge configuration file in K8s-style manifest format.
type Config struct {
	APIVersion string     `yaml:"apiVersion" json:"apiVersion"`
	Kind       string     `yaml:"kind" json:"kind"`
	Metadata   ObjectMeta `yaml:"metadata,omitempty" json:"metadata,omitempty"`
	Spec       BridgeSpec `yaml:"spec" json:"spec"`
}

// ObjectMeta holds resource metadata.
type ObjectMeta struct {
	Name   string            `yaml:"name,omitempty" json:"name,omitempty"`
	Labels map[string]string `yaml:"labels,omitempty" json:"labels,omitempty"`
}

// BridgeSpec groups every section of the bridge configuration.
type BridgeSpec struct {
	Provider    ProviderConfig    `yaml:"provider,omitempty" json:"provider,omitempty"`
	Logging     LoggingConfigSpec `yaml:"logging,omitempty" json:"logging,omitempty"`
	Persistence PersistenceConfig `yaml:"persistence,omitempty" json:"persistence,omitempty"`
	Metrics     MetricsConfig     `yaml:"metrics,omitempty" json:"metrics,omitempty"`
	Telemetry   TelemetryConfig   `yaml:"telemetry,omitempty" json:"telemetry,omitempty"`
	Server      ServerConfig      `yaml:"server,omitempty" json:"server,omitempty"`
}

// ProviderConfig configures the CosyVoice adapter.
//
// The settings fields seed the adapter settings. Persisted settings loaded
// from the store are merged on top, so an empty field here means "use the
// adapter default".
type ProviderConfig struct {
	Endpoint  string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Format    string `yaml:"format,omitempty" json:"format,omitempty"`
	Language  string `yaml:"language,omitempty" json:"language,omitempty"`
	Streaming *bool  `yaml:"streaming,omitempty" json:"streaming,omitempty"`

	// CatalogTimeout bounds each GET /speakers round trip.
	CatalogTimeout time.Duration `yaml:"catalogTimeout,omitempty" json:"catalogTimeout,omitempty"`

	// SynthesisTimeout bounds the wait for synthesis response headers.
	SynthesisTimeout time.Duration `yaml:"synthesisTimeout,omitempty" json:"synthesisTimeout,omitempty"`

	// RateLimit caps synthesis calls per second. Zero disables the limit.
	RateLimit float64 `yaml:"rateLimit,omitempty" json:"rateLimit,omitempty" jsonschema:"minimum=0"`
	RateBurst int     `yaml:"rateBurst,omitempty" json:"rateBurst,omitempty" jsonschema:"minimum=0"`

	// VoicesQuery is a JMESPath expression extracting the speaker list from
	// a wrapped /speakers response.
	VoicesQuery string `yaml:"voicesQuery,omitempty" json:"voicesQuery,omitempty"`
}

// SettingsOverlay returns the settings fields that are set, keyed by the
// adapter's option keys.
func (p ProviderConfig) SettingsOverlay() map[string]any {
	out := map[string]any{}
	if p.Endpoint != "" {
		out["provider_endpoint"] = p.Endpoint
	}
	if p.Format != "" {
		out["format"] = p.Format
	}
	if p.Language != "" {
		out["language"] = p.Language
	}
	if p.Streaming != nil {
		out["streaming"] = *p.Streaming
	}
	return out
}

// Persistence backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// PersistenceConfig selects where host settings are persisted.
type PersistenceConfig struct {
	Backend string      `yaml:"backend,omitempty" json:"backend,omitempty" jsonschema:"enum=memory,enum=redis"`
	Redis   RedisConfig `yaml:"redis,omitempty" json:"redis,omitempty"`
}

// RedisConfig configures the Redis settings store.
type RedisConfig struct {
	Addr     string        `yaml:"addr,omitempty" json:"addr,omitempty"`
	Password string        `yaml:"password,omitempty" json:"password,omitempty"`
	DB       int           `yaml:"db,omitempty" json:"db,omitempty" jsonschema:"minimum=0"`
	Prefix   string        `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	TTL      time.Duration `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Addr    string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Endpoint    string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	ServiceName string `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
}

// ServerConfig configures the bridge HTTP server.
type ServerConfig struct {
	Addr              string        `yaml:"addr,omitempty" json:"addr,omitempty"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout,omitempty" json:"readHeaderTimeout,omitempty"`

	// NotificationBuffer is how many recent notifications /notifications keeps.
	NotificationBuffer int `yaml:"notificationBuffer,omitempty" json:"notificationBuffer,omitempty"`

	// MaxBodySize caps request bodies in bytes.
	MaxBodySize int64 `yaml:"maxBodySize,omitempty" json:"maxBodySize,omitempty"`
}
