package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load builds the configuration. A non-empty path names an explicit config
// file which must exist; with an empty path, guestdex.toml / guestdex.yaml
// in the working directory are used when present.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := readConfigFile(v, path); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("GUESTDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.endpoint", "")
	v.SetDefault("ledger.timeout", "10s")
	v.SetDefault("ledger.owner", "")

	v.SetDefault("index.max_name_len", 64)
	v.SetDefault("index.default_page_size", 20)

	v.SetDefault("server.listen", ":8484")

	v.SetDefault("dev.enabled", false)
	v.SetDefault("dev.backend", "pebble")
	v.SetDefault("dev.path", "./guestdex-dev-ledger")

	v.SetDefault("log.level", "info")
}

func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("config file does not exist: %s", path)
		}
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("guestdex")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil // defaults plus env only
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
