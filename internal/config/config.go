package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g.
// CAMPUS_LIFE_GAME_TICK_INTERVAL=800ms.
const EnvPrefix = "CAMPUS_LIFE"

// Config holds the application configuration.
type Config struct {
	Game        GameConfig        `mapstructure:"game"`
	AI          AIConfig          `mapstructure:"ai"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Server      ServerConfig      `mapstructure:"server"`
	Log         LogConfig         `mapstructure:"log"`
}

type GameConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Difficulty   string        `mapstructure:"difficulty"`
	Competition  string        `mapstructure:"competition"`
	Seed         uint64        `mapstructure:"seed"`
	SaveDir      string        `mapstructure:"save_dir"`
	// Storage selects where saves go: "file" (SaveDir) or "database".
	Storage string `mapstructure:"storage"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
	Count   int           `mapstructure:"count"`
	// Every requests AI events every N semester weeks.
	Every int `mapstructure:"every"`
}

// Available reports whether AI events can be requested.
func (c AIConfig) Available() bool {
	return c.Enabled && c.APIKey != ""
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type LeaderboardConfig struct {
	URL         string        `mapstructure:"url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	ChallengeID string        `mapstructure:"challenge_id"`
	Limit       int           `mapstructure:"limit"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type LogConfig struct {
	Level  string        `mapstructure:"level"`
	Format string        `mapstructure:"format"`
	Output string        `mapstructure:"output"`
	File   LogFileConfig `mapstructure:"file"`
}

type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Loader reads the configuration and keeps it current when the file changes.
type Loader struct {
	v   *viper.Viper
	mu  sync.RWMutex
	cfg *Config
}

// New reads configPath, or config.yaml from ./config or the working
// directory when configPath is empty. A missing default file is not an
// error; defaults and environment variables still apply.
func New(configPath string) (*Loader, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("ai.api_key", EnvPrefix+"_AI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &Loader{v: v, cfg: cfg}, nil
}

// LoadConfig loads the configuration once without watching it.
func LoadConfig(configPath string) (*Config, error) {
	l, err := New(configPath)
	if err != nil {
		return nil, err
	}
	return l.Get(), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.tick_interval", "1500ms")
	v.SetDefault("game.difficulty", "NORMAL")
	v.SetDefault("game.competition", "")
	v.SetDefault("game.seed", 0)
	v.SetDefault("game.save_dir", ".saves")
	v.SetDefault("game.storage", "file")

	v.SetDefault("ai.enabled", true)
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", "20s")
	v.SetDefault("ai.count", 2)
	v.SetDefault("ai.every", 3)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/campus-life.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("leaderboard.url", "")
	v.SetDefault("leaderboard.timeout", "5s")
	v.SetDefault("leaderboard.challenge_id", "")
	v.SetDefault("leaderboard.limit", 20)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "campus-life.log")
	v.SetDefault("log.file.max_size", 20)
	v.SetDefault("log.file.max_age", 14)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.compress", false)
}

// Get returns the current configuration. Callers must not modify it.
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Watch reloads the configuration when the file changes and hands the new
// value to callback. Reload failures keep the previous configuration.
func (l *Loader) Watch(callback func(*Config, error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := l.v.Unmarshal(newCfg); err != nil {
			if callback != nil {
				callback(nil, fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}

		l.mu.Lock()
		l.cfg = newCfg
		l.mu.Unlock()

		if callback != nil {
			callback(newCfg, nil)
		}
	})
	l.v.WatchConfig()
}
