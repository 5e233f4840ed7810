package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/gradefeed/internal/feed"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Graph   GraphConfig   `yaml:"graph"`
	Logging LoggingConfig `yaml:"logging"`
	Feed    FeedConfig    `yaml:"feed"`
	Session SessionConfig `yaml:"session"`
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	AllowedOriginsCSV string        `yaml:"allowed_origins"`
}

// GraphConfig describes connectivity to the Neo4j snapshot store.
type GraphConfig struct {
	URI            string `yaml:"uri"`
	Database       string `yaml:"database"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxConnections int    `yaml:"max_connections"`
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string `yaml:"level"`
	Format        string `yaml:"format"` // text|json
	IncludeCaller bool   `yaml:"include_caller"`
}

// FeedConfig tunes the decoder.
type FeedConfig struct {
	Workers             int           `yaml:"workers"`
	ParallelThreshold   int           `yaml:"parallel_threshold"`
	DuplicatePolicy     string        `yaml:"duplicate_policy"`
	SkipMalformedTables bool          `yaml:"skip_malformed_tables"`
	MaxBlobBytes        int64         `yaml:"max_blob_bytes"`
	DecodeTimeout       time.Duration `yaml:"decode_timeout"`
}

// SessionConfig holds the portal and CAS endpoints plus credentials.
// An empty Username disables live refresh.
type SessionConfig struct {
	PortalURL string        `yaml:"portal_url"`
	CASURL    string        `yaml:"cas_url"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Enabled reports whether credentials are configured.
func (s SessionConfig) Enabled() bool {
	return s.Username != "" && s.CASURL != "" && s.PortalURL != ""
}

// FileEnv names the optional YAML overlay.
const FileEnv = "GRADEFEED_CONFIG"

const (
	defaultHost             = "0.0.0.0"
	defaultPort             = 8080
	defaultReadTimeout      = 10 * time.Second
	defaultWriteTimeout     = 15 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "text"
	defaultGraphMaxSessions = 10
	defaultFeedWorkers      = 4
	defaultFeedThreshold    = 256
	defaultDuplicatePolicy  = "last-wins"
	defaultMaxBlobBytes     = 8 << 20
	defaultDecodeTimeout    = 5 * time.Second
	defaultPortalURL        = "https://tomuss.univ-lyon1.fr"
	defaultCASURL           = "https://cas.univ-lyon1.fr/cas"
	defaultSessionTimeout   = 30 * time.Second
)

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Host:            defaultHost,
			Port:            defaultPort,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Graph: GraphConfig{MaxConnections: defaultGraphMaxSessions},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
		Feed: FeedConfig{
			Workers:           defaultFeedWorkers,
			ParallelThreshold: defaultFeedThreshold,
			DuplicatePolicy:   defaultDuplicatePolicy,
			MaxBlobBytes:      defaultMaxBlobBytes,
			DecodeTimeout:     defaultDecodeTimeout,
		},
		Session: SessionConfig{
			PortalURL: defaultPortalURL,
			CASURL:    defaultCASURL,
			Timeout:   defaultSessionTimeout,
		},
	}
}

// Load applies, in order, the defaults, the YAML file named by
// GRADEFEED_CONFIG and the environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTP.Host, "SERVER_HOST")
	setString(&cfg.HTTP.AllowedOriginsCSV, "SERVER_ALLOWED_ORIGINS")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setBool(&cfg.Logging.IncludeCaller, "LOG_INCLUDE_CALLER")
	setString(&cfg.Graph.URI, "GRAPH_URI")
	setString(&cfg.Graph.Database, "GRAPH_DATABASE")
	setString(&cfg.Graph.Username, "GRAPH_USERNAME")
	setString(&cfg.Graph.Password, "GRAPH_PASSWORD")
	setString(&cfg.Feed.DuplicatePolicy, "FEED_DUPLICATE_POLICY")
	setBool(&cfg.Feed.SkipMalformedTables, "FEED_SKIP_MALFORMED_TABLES")
	setString(&cfg.Session.PortalURL, "PORTAL_URL")
	setString(&cfg.Session.CASURL, "CAS_URL")
	setString(&cfg.Session.Username, "CAS_USERNAME")
	setString(&cfg.Session.Password, "CAS_PASSWORD")

	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid SERVER_PORT value %q: %w", v, err)
		}
		cfg.HTTP.Port = port
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"GRAPH_MAX_CONNECTIONS", &cfg.Graph.MaxConnections},
		{"FEED_WORKERS", &cfg.Feed.Workers},
		{"FEED_PARALLEL_THRESHOLD", &cfg.Feed.ParallelThreshold},
	}
	for _, it := range ints {
		if err := setInt(it.dst, it.key); err != nil {
			return err
		}
	}

	if v := os.Getenv("FEED_MAX_BLOB_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid FEED_MAX_BLOB_BYTES: %w", err)
		}
		cfg.Feed.MaxBlobBytes = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.HTTP.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout},
		{"SERVER_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.HTTP.ShutdownTimeout},
		{"FEED_DECODE_TIMEOUT", &cfg.Feed.DecodeTimeout},
		{"CAS_TIMEOUT", &cfg.Session.Timeout},
	}
	for _, d := range durations {
		if err := setDuration(d.dst, d.key); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.HTTP.Port)
	}
	if c.Feed.Workers < 1 {
		return fmt.Errorf("feed workers must be positive, got %d", c.Feed.Workers)
	}
	if c.Feed.MaxBlobBytes <= 0 {
		return fmt.Errorf("feed max blob bytes must be positive, got %d", c.Feed.MaxBlobBytes)
	}
	if _, err := feed.ParseDuplicatePolicy(c.Feed.DuplicatePolicy); err != nil {
		return fmt.Errorf("feed: %w", err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.ParseBool(v); err == nil {
			*dst = val
		}
	}
}

func setInt(dst *int, key string) error {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		*dst = val
	}
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}
