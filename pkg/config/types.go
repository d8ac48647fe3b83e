// pkg/config/types.go
package config

import "time"

// Config holds the complete stackscan configuration.
type Config struct {
	Log       LogConfig       `description:"Logging configuration" koanf:"log"`
	Server    ServerConfig    `description:"HTTP server configuration" koanf:"server"`
	Detect    DetectConfig    `description:"Detection request configuration" koanf:"detect"`
	Catalog   CatalogConfig   `description:"Technology catalog configuration" koanf:"catalog"`
	Telemetry TelemetryConfig `description:"Detection telemetry configuration" koanf:"telemetry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `description:"Log level (debug, info, warn, error)" koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format string `description:"Log format (text, json)" koanf:"format" validate:"oneof=text json"`
	File   string `description:"Log file path (empty for stderr)" koanf:"file"`
}

// ServerConfig holds the HTTP server settings used by 'stackscan server start'.
type ServerConfig struct {
	Addr         string        `description:"Listen address" koanf:"addr" validate:"required"`
	Port         int           `description:"Listen port" koanf:"port" validate:"min=1,max=65535"`
	Concurrency  int           `description:"Batch detection workers" koanf:"concurrency" validate:"min=1,max=256"`
	ReadTimeout  time.Duration `description:"HTTP read timeout" koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `description:"HTTP write timeout" koanf:"write_timeout" validate:"gte=0"`
	Auth         AuthConfig    `description:"API authentication" koanf:"auth"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	Mode  string `description:"Authentication mode (none, token)" koanf:"mode" validate:"oneof=none token"`
	Token string `description:"Bearer token when mode is token" koanf:"token" validate:"required_if=Mode token"`
}

// DetectConfig bounds a single detection request.
type DetectConfig struct {
	Timeout      time.Duration `description:"Default fetch timeout" koanf:"timeout" validate:"gt=0"`
	MaxTimeout   time.Duration `description:"Upper bound for caller supplied timeouts" koanf:"max_timeout" validate:"gtefield=Timeout"`
	UserAgent    string        `description:"User-Agent sent when fetching pages" koanf:"user_agent"`
	MaxBodyBytes int64         `description:"Maximum response body bytes read per page" koanf:"max_body_bytes" validate:"gt=0"`
}

// CatalogConfig selects where technology signatures come from.
type CatalogConfig struct {
	Path     string `description:"Catalog file (JSON or YAML); empty uses cache then embedded" koanf:"path"`
	URL      string `description:"Remote catalog URL used by 'catalog sync'" koanf:"url" validate:"omitempty,url"`
	CacheDir string `description:"Directory holding the synced catalog cache" koanf:"cache_dir"`
	Watch    bool   `description:"Reload the catalog file when it changes" koanf:"watch"`
}

// TelemetryConfig controls the detection event log.
type TelemetryConfig struct {
	File string `description:"JSONL file receiving detection events (empty disables)" koanf:"file"`
}
