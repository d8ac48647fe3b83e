// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by EnvSource.
const EnvPrefix = "STACKSCAN_"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager holding the default configuration.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
		currentConfig: DefaultConfig(),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: DefaultServerConfig(),
		Detect: DefaultDetectConfig(),
	}
}

// Load loads configuration from defaults, the optional YAML file,
// STACKSCAN_* environment variables and flags, in that order.
func (m *Manager) Load(flags *pflag.FlagSet, customConfigFilePath string) error {
	debug := false
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			debug = true
		}
	}
	return m.LoadWithSources(DefaultSources(customConfigFilePath, flags, debug))
}

// LoadWithSources loads the given sources in ascending priority and
// validates the merged result. The previous configuration is kept on error.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	ordered := make([]ConfigSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range ordered {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("config source %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := k.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}
	postProcessConfig(&newCfg)
	if err := Validate(newCfg); err != nil {
		return err
	}

	m.mu.Lock()
	m.koanfInstance = k
	m.currentConfig = newCfg
	m.mu.Unlock()
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentConfig
}

// Koanf exposes the merged key space, mainly for 'config' style introspection.
func (m *Manager) Koanf() *koanf.Koanf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance
}

// Validate checks cfg against its struct tags and returns a readable error
// naming every offending key.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fieldKey(fe.Namespace()), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

// fieldKey turns "Config.Detect.MaxTimeout" into "detect.maxtimeout".
func fieldKey(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}

func postProcessConfig(cfg *Config) {
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Server.Auth.Mode == "" {
		cfg.Server.Auth.Mode = "none"
	}
	if cfg.Detect.UserAgent == "" {
		cfg.Detect.UserAgent = DefaultDetectConfig().UserAgent
	}
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map[string]interface{}
// for Koanf's confmap.Provider. This is a bit manual but ensures Koanf knows all keys.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		// Log configuration
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		// Server configuration
		"server.addr":          def.Server.Addr,
		"server.port":          def.Server.Port,
		"server.concurrency":   def.Server.Concurrency,
		"server.read_timeout":  def.Server.ReadTimeout,
		"server.write_timeout": def.Server.WriteTimeout,
		"server.auth.mode":     def.Server.Auth.Mode,
		"server.auth.token":    def.Server.Auth.Token,

		// Detection bounds
		"detect.timeout":        def.Detect.Timeout,
		"detect.max_timeout":    def.Detect.MaxTimeout,
		"detect.user_agent":     def.Detect.UserAgent,
		"detect.max_body_bytes": def.Detect.MaxBodyBytes,

		// Catalog
		"catalog.path":      def.Catalog.Path,
		"catalog.url":       def.Catalog.URL,
		"catalog.cache_dir": def.Catalog.CacheDir,
		"catalog.watch":     def.Catalog.Watch,

		"telemetry.file": def.Telemetry.File,
	}
}

// BindFlags defines the global flags shared by every command.
func BindFlags(flags *pflag.FlagSet) {
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("log.level", "", "Log level (debug, info, warn, error)")
	flags.String("log.format", "", "Log format (text, json)")
	flags.String("log.file", "", "Write logs to this file instead of stderr")
}
