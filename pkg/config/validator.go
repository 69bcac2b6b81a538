package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/jmespath/go-jmespath"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Value   string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return "config validation error: " + e.Field + ": " + e.Message + " (got: " + e.Value + ")"
	}
	return "config validation error: " + e.Field + ": " + e.Message
}

// Validate performs semantic validation and returns every problem found,
// joined. The audio format is deliberately not checked against the
// supported set: an unsupported value only fails at synthesis time.
func (c *Config) Validate() error {
	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	if c.APIVersion != APIVersion {
		add(&ValidationError{Field: "apiVersion", Message: "unsupported version", Value: c.APIVersion})
	}
	if c.Kind != KindBridgeConfig {
		add(&ValidationError{Field: "kind", Message: "must be " + KindBridgeConfig, Value: c.Kind})
	}

	add(c.Spec.Provider.validate())
	add(c.Spec.Logging.Validate())
	add(c.Spec.Persistence.validate())

	if c.Spec.Metrics.Enabled && c.Spec.Metrics.Addr == "" {
		add(&ValidationError{Field: "metrics.addr", Message: "required when metrics are enabled"})
	}
	if c.Spec.Telemetry.Enabled {
		add(validateURL("telemetry.endpoint", c.Spec.Telemetry.Endpoint))
	}
	if c.Spec.Server.NotificationBuffer < 0 {
		add(&ValidationError{
			Field:   "server.notificationBuffer",
			Message: "must not be negative",
			Value:   fmt.Sprint(c.Spec.Server.NotificationBuffer),
		})
	}
	if c.Spec.Server.MaxBodySize < 0 {
		add(&ValidationError{
			Field:   "server.maxBodySize",
			Message: "must not be negative",
			Value:   fmt.Sprint(c.Spec.Server.MaxBodySize),
		})
	}

	return errors.Join(errs...)
}

func (p ProviderConfig) validate() error {
	var errs []error
	if p.Endpoint != "" {
		errs = append(errs, validateURL("provider.endpoint", p.Endpoint))
	}
	if p.CatalogTimeout < 0 {
		errs = append(errs, &ValidationError{Field: "provider.catalogTimeout", Message: "must not be negative"})
	}
	if p.SynthesisTimeout < 0 {
		errs = append(errs, &ValidationError{Field: "provider.synthesisTimeout", Message: "must not be negative"})
	}
	if p.VoicesQuery != "" {
		if _, err := jmespath.Compile(p.VoicesQuery); err != nil {
			errs = append(errs, &ValidationError{
				Field: "provider.voicesQuery", Message: "invalid JMESPath expression", Value: p.VoicesQuery,
			})
		}
	}
	return errors.Join(errs...)
}

func (p PersistenceConfig) validate() error {
	switch p.Backend {
	case "", BackendMemory:
		return nil
	case BackendRedis:
		if p.Redis.Addr == "" {
			return &ValidationError{Field: "persistence.redis.addr", Message: "required for the redis backend"}
		}
		return nil
	default:
		return &ValidationError{Field: "persistence.backend", Message: "must be one of: memory, redis", Value: p.Backend}
	}
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: field, Message: "must be an absolute URL", Value: raw}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: field, Message: "scheme must be http or https", Value: raw}
	}
	return nil
}
