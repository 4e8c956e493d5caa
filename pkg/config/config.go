package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Snapshot   SnapshotConfig
	Sync       SyncConfig
	Classifier ClassifierConfig
	Console    ConsoleConfig
	Exports    ExportsConfig
}

// DatabaseConfig carries the layered connection string resolution inputs.
type DatabaseConfig struct {
	URL          string
	OverrideFile string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SnapshotConfig tunes the state controller bootstrap behaviour.
type SnapshotConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	LoadTimeout  time.Duration
}

// SyncConfig configures the asynchronous persistence queue behind
// optimistic mutations.
type SyncConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// ClassifierConfig points at the optional external alert classifier.
type ClassifierConfig struct {
	Enabled  bool
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// ConsoleConfig gates the administrative SQL console.
type ConsoleConfig struct {
	Enabled bool
}

// ExportsConfig controls item-analysis report exports.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		URL:          strings.TrimSpace(v.GetString("DATABASE_URL")),
		OverrideFile: v.GetString("DATABASE_URL_OVERRIDE_FILE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Snapshot = SnapshotConfig{
		CacheEnabled: v.GetBool("SNAPSHOT_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("SNAPSHOT_CACHE_TTL"), 5*time.Minute),
		LoadTimeout:  parseDuration(v.GetString("SNAPSHOT_LOAD_TIMEOUT"), 30*time.Second),
	}

	cfg.Sync = SyncConfig{
		Workers:    v.GetInt("SYNC_WORKERS"),
		BufferSize: v.GetInt("SYNC_BUFFER_SIZE"),
		MaxRetries: v.GetInt("SYNC_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("SYNC_RETRY_DELAY"), time.Second),
	}

	cfg.Classifier = ClassifierConfig{
		Enabled:  v.GetBool("CLASSIFIER_ENABLED"),
		Endpoint: v.GetString("CLASSIFIER_ENDPOINT"),
		APIKey:   v.GetString("CLASSIFIER_API_KEY"),
		Timeout:  parseDuration(v.GetString("CLASSIFIER_TIMEOUT"), 10*time.Second),
	}

	cfg.Console = ConsoleConfig{
		Enabled: v.GetBool("ENABLE_SQL_CONSOLE"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 30*time.Minute),
	}

	return cfg, nil
}

// ResolveDatabaseURL returns the connection string using the documented
// priority: environment value first, then the locally persisted override
// file. The boolean is false when neither source yields a value, in which
// case the state controller must enter SetupRequired instead of dialing.
func (d DatabaseConfig) ResolveDatabaseURL() (string, bool) {
	if d.URL != "" {
		return d.URL, true
	}
	if d.OverrideFile == "" {
		return "", false
	}
	raw, err := os.ReadFile(d.OverrideFile)
	if err != nil {
		return "", false
	}
	url := strings.TrimSpace(string(raw))
	if url == "" {
		return "", false
	}
	return url, true
}

// SaveOverride persists a connection string override next to the process,
// the server-side analog of the UI's emergency URL form.
func (d DatabaseConfig) SaveOverride(url string) error {
	path := d.OverrideFile
	if path == "" {
		path = ".labdesk_dburl"
	}
	return os.WriteFile(path, []byte(strings.TrimSpace(url)+"\n"), 0o600)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_URL_OVERRIDE_FILE", ".labdesk_dburl")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SNAPSHOT_CACHE_ENABLED", false)
	v.SetDefault("SNAPSHOT_CACHE_TTL", "5m")
	v.SetDefault("SNAPSHOT_LOAD_TIMEOUT", "30s")

	v.SetDefault("SYNC_WORKERS", 1)
	v.SetDefault("SYNC_BUFFER_SIZE", 16)
	v.SetDefault("SYNC_MAX_RETRIES", 3)
	v.SetDefault("SYNC_RETRY_DELAY", "1s")

	v.SetDefault("CLASSIFIER_ENABLED", false)
	v.SetDefault("CLASSIFIER_ENDPOINT", "")
	v.SetDefault("CLASSIFIER_API_KEY", "")
	v.SetDefault("CLASSIFIER_TIMEOUT", "10s")

	v.SetDefault("ENABLE_SQL_CONSOLE", false)

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "30m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
