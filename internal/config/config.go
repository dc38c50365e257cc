// Package config loads codebreaker settings from an optional TOML file and
// the environment. Environment variables win over the file; the file wins
// over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/robalobadob/codebreaker/internal/game"
)

type Config struct {
	LogLevel string       `toml:"log_level"`
	Game     game.Rules   `toml:"game"`
	Server   ServerConfig `toml:"server"`
	Theme    ThemeConfig  `toml:"theme"`
}

type ServerConfig struct {
	Port           string `toml:"port"`
	DBPath         string `toml:"db_path"`
	ClientOrigin   string `toml:"client_origin"`
	JWTSecret      string `toml:"jwt_secret"`
	JWTExpiresDays int    `toml:"jwt_expires_days"`
	CookieName     string `toml:"cookie_name"`
	DailySalt      string `toml:"daily_salt"`
	Production     bool   `toml:"production"`
	SessionIdleMin int    `toml:"session_idle_minutes"` // idle sessions older than this are pruned
}

// ThemeConfig holds terminal colours (hex or ANSI codes).
type ThemeConfig struct {
	FG        string `toml:"fg,omitempty"`
	Accent    string `toml:"accent,omitempty"`
	Muted     string `toml:"muted,omitempty"`
	Panel     string `toml:"panel,omitempty"`
	Exact     string `toml:"exact,omitempty"`
	Value     string `toml:"value,omitempty"`
	Miss      string `toml:"miss,omitempty"`
	StatusFG  string `toml:"status_fg,omitempty"`
	StatusBG  string `toml:"status_bg,omitempty"`
	ErrorText string `toml:"error,omitempty"`
}

// DefaultTheme is the green-on-black terminal palette.
func DefaultTheme() ThemeConfig {
	return ThemeConfig{
		FG:        "#00ff41",
		Accent:    "#00ff41",
		Muted:     "#888888",
		Panel:     "#1a1a2e",
		Exact:     "#00ff41",
		Value:     "#ffaa00",
		Miss:      "#ff0040",
		StatusFG:  "#00ff41",
		StatusBG:  "#16213e",
		ErrorText: "#ff0040",
	}
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Game:     game.DefaultRules(),
		Server: ServerConfig{
			Port:           "5175",
			DBPath:         "./data/codebreaker.db",
			ClientOrigin:   "http://localhost:5173",
			JWTSecret:      "dev_secret_change_me",
			JWTExpiresDays: 14,
			CookieName:     "codebreaker_token",
			DailySalt:      "local_dev_salt",
			SessionIdleMin: 120,
		},
		Theme: DefaultTheme(),
	}
}

// DefaultConfigPath returns ~/.config/codebreaker/config.toml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "codebreaker", "config.toml")
}

// Load reads path (if non-empty) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the game rules and server settings. Production refuses
// the built-in development secrets.
func (c Config) Validate() error {
	if err := c.Game.Validate(); err != nil {
		return fmt.Errorf("game: %w", err)
	}
	if c.Server.JWTExpiresDays < 1 {
		return fmt.Errorf("server: jwt_expires_days must be positive, got %d", c.Server.JWTExpiresDays)
	}
	if c.Server.Production {
		dev := Default().Server
		if c.Server.JWTSecret == "" || c.Server.JWTSecret == dev.JWTSecret {
			return fmt.Errorf("server: jwt_secret must be set in production")
		}
		if c.Server.DailySalt == "" || c.Server.DailySalt == dev.DailySalt {
			return fmt.Errorf("server: daily_salt must be set in production")
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = envStr("LOG_LEVEL", c.LogLevel)

	c.Game.CodeLength = envInt("CODE_LENGTH", c.Game.CodeLength)
	c.Game.MinDigit = envInt("MIN_DIGIT", c.Game.MinDigit)
	c.Game.MaxDigit = envInt("MAX_DIGIT", c.Game.MaxDigit)
	c.Game.MaxAttempts = envInt("MAX_ATTEMPTS", c.Game.MaxAttempts)

	s := &c.Server
	s.Port = envStr("PORT", s.Port)
	s.DBPath = envStr("DB_PATH", s.DBPath)
	s.ClientOrigin = envStr("CLIENT_ORIGIN", s.ClientOrigin)
	s.JWTSecret = envStr("JWT_SECRET", s.JWTSecret)
	s.JWTExpiresDays = envInt("JWT_EXPIRES_DAYS", s.JWTExpiresDays)
	s.CookieName = envStr("COOKIE_NAME", s.CookieName)
	s.DailySalt = envStr("DAILY_SALT", s.DailySalt)
	s.SessionIdleMin = envInt("SESSION_IDLE_MINUTES", s.SessionIdleMin)
	if env := strings.ToLower(envStr("NODE_ENV", os.Getenv("ENVIRONMENT"))); env == "production" {
		s.Production = true
	}
}

// envStr returns the value of k or def if unset/empty.
func envStr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// envInt parses k as an int; unset or unparsable values keep def.
func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
