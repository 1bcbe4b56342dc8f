package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/justinabrahms/chessboard/internal/chess"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Session     SessionConfig     `mapstructure:"session"`
	Development DevelopmentConfig `mapstructure:"development"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type SessionConfig struct {
	StartFEN     string `mapstructure:"start_fen"`
	AnalysisMode bool   `mapstructure:"analysis_mode"`
	StrictMoves  bool   `mapstructure:"strict_moves"`
	// IdleTimeout closes sessions nobody has used for this long. Zero keeps
	// sessions until they are deleted.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

type DevelopmentConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// Load reads config.yaml from the working directory or ./config, overlaid
// with CHESSBOARD_* environment variables. A missing file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variables
	v.SetEnvPrefix("CHESSBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("session.start_fen", chess.StartingFEN)
	v.SetDefault("session.analysis_mode", false)
	v.SetDefault("session.strict_moves", false)
	v.SetDefault("session.idle_timeout", "2h")
	v.SetDefault("development.debug", false)
	v.SetDefault("development.log_level", "info")
}

// Validate checks values that would otherwise fail later at startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if _, err := chess.Decode(c.Session.StartFEN); err != nil {
		return fmt.Errorf("invalid session.start_fen: %w", err)
	}
	if c.Session.IdleTimeout < 0 {
		return fmt.Errorf("invalid session.idle_timeout %s", c.Session.IdleTimeout)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the zerolog level for the configured log level, forced to
// debug when development.debug is set.
func (c *Config) Level() (zerolog.Level, error) {
	if c.Development.Debug {
		return zerolog.DebugLevel, nil
	}
	level, err := zerolog.ParseLevel(c.Development.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid development.log_level %q: %w", c.Development.LogLevel, err)
	}
	return level, nil
}

// StartMode is the history mode new sessions begin in.
func (c *Config) StartMode() chess.Mode {
	if c.Session.AnalysisMode {
		return chess.ModeAnalysis
	}
	return chess.ModeGame
}
