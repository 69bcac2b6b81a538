package config

// LoggingConfigSpec defines the logging configuration parameters.
type LoggingConfigSpec struct {
	// DefaultLevel is the log level. Supported values: debug, info, warn, error.
	DefaultLevel string `yaml:"defaultLevel,omitempty" json:"defaultLevel,omitempty"`

	// Format specifies the output format, "json" or "text".
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

// LogLevel constants for programmatic use.
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// LogFormat constants for programmatic use.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// DefaultLoggingConfig returns a LoggingConfigSpec with sensible defaults.
func DefaultLoggingConfig() LoggingConfigSpec {
	return LoggingConfigSpec{
		DefaultLevel: LogLevelInfo,
		Format:       LogFormatText,
	}
}

// Validate validates the LoggingConfigSpec.
func (c *LoggingConfigSpec) Validate() error {
	if c.DefaultLevel != "" && !isValidLogLevel(c.DefaultLevel) {
		return &ValidationError{
			Field:   "logging.defaultLevel",
			Message: "must be one of: debug, info, warn, error",
			Value:   c.DefaultLevel,
		}
	}

	if c.Format != "" && c.Format != LogFormatJSON && c.Format != LogFormatText {
		return &ValidationError{
			Field:   "logging.format",
			Message: "must be one of: json, text",
			Value:   c.Format,
		}
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}
