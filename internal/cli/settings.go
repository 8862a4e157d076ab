package cli

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/petty/internal/logging"
	"github.com/ppiankov/petty/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// setDefaults registers every key of the default config so that
// AutomaticEnv can override keys that no config file mentions.
func setDefaults(v *viper.Viper) {
	setStructDefaults(v, "", reflect.ValueOf(*model.DefaultConfig()))
}

func setStructDefaults(v *viper.Viper, prefix string, val reflect.Value) {
	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("mapstructure")
		if key == "" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		f := val.Field(i)
		if f.Kind() == reflect.Struct {
			setStructDefaults(v, key, f)
			continue
		}
		v.SetDefault(key, f.Interface())
	}
}

func replacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

// bindFlags binds command flags to config keys. Several commands share keys,
// so binding happens when a command runs rather than in init.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for flag, key := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("unknown flag %q", flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// loadConfig unmarshals the effective configuration and validates it
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *model.Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// newLogger builds the process logger from cfg
func newLogger(cfg *model.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return logger, nil
}
