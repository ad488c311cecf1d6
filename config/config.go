// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	configPath       = pflag.String("config", ".", "Directory containing config.toml")
	validLogLevels   = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers     = []string{"sqlite", "postgres"}
	validHashers     = []string{"bcrypt", "argon2id"}
	errMissingSecret = errors.New("jwt.secret is not set")
)

var envs = []string{
	"app.log_level",

	"host.port",
	"host.domain",
	"host.cors",
	"host.ssl.enabled",
	"host.ssl.certificate_path",
	"host.ssl.certificate_key_path",

	"database.driver",
	"database.dsn",

	"security.hasher",
	"security.bcrypt_cost",
	"security.rate_limit",

	"jwt.secret",
	"jwt.ttl",

	"mail.enabled",
	"mail.host",
	"mail.port",
	"mail.sender_address",
	"mail.password",

	"storage.enabled",
	"storage.endpoint",
	"storage.region",
	"storage.bucket",
	"storage.access_key_id",
	"storage.secret_access_key",
	"storage.public_url",
	"storage.avatar_max_size",

	"cloudflare.turnstile.enabled",
	"cloudflare.turnstile.secret_token",

	"cleanup.token_interval",
	"cleanup.account_interval",
	"cleanup.unverified_ttl",
}

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	if err := godotenv.Load(); err != nil {
		fmt.Println("[INFO]: no .env file found, relying on the environment")
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(*configPath)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envs {
		v.BindEnv(key)
	}

	SetDefaults()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		fmt.Println("[WARNING]: config.toml not found, using defaults and environment variables")
	}

	err := Validate()
	if errors.Is(err, errMissingSecret) {
		fmt.Println("WARNING: You haven't set a JWT secret, so it has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random JWT secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		os.Exit(0)
	}

	return err
}

func SetDefaults() {
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.domain", "localhost")
	v.SetDefault("host.cors", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "database.db")

	v.SetDefault("security.hasher", "bcrypt")
	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("security.rate_limit", 10)

	v.SetDefault("jwt.ttl", "720h")

	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.port", 587)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.avatar_max_size", 5<<20)

	v.SetDefault("cloudflare.turnstile.enabled", false)

	v.SetDefault("cleanup.token_interval", "24h")
	v.SetDefault("cleanup.account_interval", "24h")
	v.SetDefault("cleanup.unverified_ttl", "720h")
}

// Validate checks the loaded values. It's split from Setup so it can run
// against values set directly on viper.
func Validate() error {
	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	if !slices.Contains(validDrivers, v.GetString("database.driver")) {
		return errors.New("invalid database driver provided")
	}

	if v.GetString("database.driver") == "postgres" && v.GetString("database.dsn") == "" {
		return errors.New("database.dsn is required for postgres")
	}

	if !slices.Contains(validHashers, v.GetString("security.hasher")) {
		return errors.New("invalid password hasher provided")
	}

	if cost := v.GetInt("security.bcrypt_cost"); cost < 4 || cost > 31 {
		return errors.New("security.bcrypt_cost must be between 4 and 31")
	}

	if v.GetInt("security.rate_limit") <= 0 {
		return errors.New("security.rate_limit must be bigger than 0")
	}

	if v.GetDuration("jwt.ttl") <= 0 {
		return errors.New("jwt.ttl must be a positive duration")
	}

	if v.GetBool("mail.enabled") {
		if v.GetString("mail.host") == "" {
			return errors.New("mail host can't be empty")
		}
		if v.GetString("mail.sender_address") == "" {
			return errors.New("mail sender address can't be empty")
		}
	} else {
		zap.L().Warn("Mail is disabled, verification and reset mails will only be logged")
	}

	if v.GetBool("storage.enabled") {
		if v.GetString("storage.bucket") == "" {
			return errors.New("bucket can't be empty")
		}
		if v.GetString("storage.access_key_id") == "" {
			return errors.New("access key id can't be empty")
		}
		if v.GetString("storage.secret_access_key") == "" {
			return errors.New("secret access key can't be empty")
		}
		if v.GetString("storage.public_url") == "" {
			return errors.New("storage public url can't be empty")
		}
	}

	if v.GetInt64("storage.avatar_max_size") <= 0 {
		return errors.New("storage.avatar_max_size must be bigger than 0")
	}

	if v.GetBool("cloudflare.turnstile.enabled") && v.GetString("cloudflare.turnstile.secret_token") == "" {
		return errors.New("turnstile secret token is missing")
	}

	for _, key := range []string{"cleanup.token_interval", "cleanup.account_interval", "cleanup.unverified_ttl"} {
		if v.GetDuration(key) <= 0 {
			return fmt.Errorf("%s must be a positive duration", key)
		}
	}

	if v.GetString("jwt.secret") == "" {
		return errMissingSecret
	}

	return nil
}
