package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Keys understood by Load, as environment variables.
const (
	KeyAdminEmail    = "ADMIN_EMAIL"
	KeyAdminPassword = "ADMIN_PASSWORD"
	KeySessionSecret = "SESSION_SECRET"
	KeyDBPath        = "DB_PATH"
	KeyPort          = "PORT"
	KeyAppEnv        = "APP_ENV"
	KeyTokenTTL      = "TOKEN_TTL"
)

const (
	defaultDBPath   = "./dev.db"
	defaultPort     = "8080"
	defaultAppEnv   = "dev"
	defaultTokenTTL = 12 * time.Hour
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	AppEnv        string
	TokenTTL      time.Duration
}

// IsDev reports whether the app runs in a development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	}
	return false
}

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

// Load reads environment variables and returns a populated Config.
func Load() Config {
	return FromViper(viper.New(), DotEnvFile)
}

// FromViper resolves the configuration through v, so callers may bind flags first.
// Values in the dotenv file at dotEnvPath sit below real environment variables.
func FromViper(v *viper.Viper, dotEnvPath string) Config {
	if err := readDotEnv(v, dotEnvPath); err != nil {
		log.Printf("warning: read %s: %v", dotEnvPath, err)
	}

	v.AutomaticEnv()
	v.SetDefault(KeyDBPath, defaultDBPath)
	v.SetDefault(KeyPort, defaultPort)
	v.SetDefault(KeyAppEnv, defaultAppEnv)
	v.SetDefault(KeyTokenTTL, defaultTokenTTL)

	cfg := Config{
		AdminEmail:    v.GetString(KeyAdminEmail),
		AdminPassword: v.GetString(KeyAdminPassword),
		SessionSecret: v.GetString(KeySessionSecret),
		DBPath:        v.GetString(KeyDBPath),
		Port:          v.GetString(KeyPort),
		AppEnv:        v.GetString(KeyAppEnv),
		TokenTTL:      v.GetDuration(KeyTokenTTL),
	}
	if cfg.TokenTTL <= 0 {
		log.Printf("warning: %s is not a positive duration; using %s", KeyTokenTTL, defaultTokenTTL)
		cfg.TokenTTL = defaultTokenTTL
	}

	if cfg.AdminEmail == "" {
		log.Print("warning: ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		log.Print("warning: ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		log.Print("warning: SESSION_SECRET is not set")
	}

	return cfg
}

func readDotEnv(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
