package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const envPrefix = "STORYFEED"

// Config is the typed view of the viper settings.
type Config struct {
	API     APIConfig
	Session SessionConfig
	Cache   CacheConfig
	Log     LogConfig
	TTS     TTSConfig
	Stub    StubConfig
}

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	Burst     int
}

type SessionConfig struct {
	Path string
}

type CacheConfig struct {
	Dir    string
	MaxAge time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type TTSConfig struct {
	Type      string
	Voice     string
	Speed     float64
	Volume    float64
	CachePath string
}

type StubConfig struct {
	Addr   string
	Secret string
}

func SetDefaults() {
	home := homeDir()

	viper.SetDefault("api.base_url", "https://hack-or-snooze-v3.herokuapp.com")
	viper.SetDefault("api.timeout", 30*time.Second)
	viper.SetDefault("api.rate_limit", 5.0)
	viper.SetDefault("api.burst", 2)

	viper.SetDefault("session.path", filepath.Join(home, "session.db"))

	viper.SetDefault("cache.dir", cacheDir())
	viper.SetDefault("cache.max_age", 10*time.Minute)

	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("tts.type", "auto") // Auto-select best engine
	viper.SetDefault("tts.voice", "default")
	viper.SetDefault("tts.speed", 1.0)
	viper.SetDefault("tts.volume", 0.8)
	viper.SetDefault("tts.cache_path", filepath.Join(cacheDir(), "audio"))

	viper.SetDefault("stub.addr", ":8080")
	viper.SetDefault("stub.secret", "storyfeed-stub-secret")
}

// Init wires the config file, .env file and environment into viper. A
// missing config file is not an error.
func Init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	viper.SetConfigName("storyfeed")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.storyfeed")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// Load reads the current viper state into a Config.
func Load() Config {
	return Config{
		API: APIConfig{
			BaseURL:   viper.GetString("api.base_url"),
			Timeout:   viper.GetDuration("api.timeout"),
			RateLimit: viper.GetFloat64("api.rate_limit"),
			Burst:     viper.GetInt("api.burst"),
		},
		Session: SessionConfig{
			Path: expandHome(viper.GetString("session.path")),
		},
		Cache: CacheConfig{
			Dir:    expandHome(viper.GetString("cache.dir")),
			MaxAge: viper.GetDuration("cache.max_age"),
		},
		Log: LogConfig{
			Level:  viper.GetString("log.level"),
			Format: viper.GetString("log.format"),
		},
		TTS: TTSConfig{
			Type:      viper.GetString("tts.type"),
			Voice:     viper.GetString("tts.voice"),
			Speed:     viper.GetFloat64("tts.speed"),
			Volume:    viper.GetFloat64("tts.volume"),
			CachePath: expandHome(viper.GetString("tts.cache_path")),
		},
		Stub: StubConfig{
			Addr:   viper.GetString("stub.addr"),
			Secret: viper.GetString("stub.secret"),
		},
	}
}

// SetupLogger applies the log settings to the global logrus logger.
func SetupLogger(c LogConfig) {
	logrus.SetOutput(os.Stderr)

	if strings.EqualFold(c.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		logrus.WithError(err).Warnf("Unknown log level %q, using warn", c.Level)
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".storyfeed")
	}
	return ".storyfeed"
}

// cacheDir returns the appropriate cache directory
func cacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "storyfeed")
	}
	return filepath.Join(homeDir(), "cache")
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
