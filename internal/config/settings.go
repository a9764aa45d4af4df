package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/muurk/dctdash/internal/dashboard"
	"github.com/muurk/dctdash/internal/restapi"
	"github.com/muurk/dctdash/internal/router"
)

// EnvPrefix prefixes every settings environment variable
const EnvPrefix = "DCTDASH"

// Setting defaults
const (
	DefaultListen          = ":8090"
	DefaultDiscoverTimeout = 5 * time.Second
)

// Settings are the resolved runtime options shared by every command
type Settings struct {
	Server          string        `mapstructure:"server"`
	Panel           string        `mapstructure:"panel"`
	Sort            string        `mapstructure:"sort"`
	Descending      bool          `mapstructure:"desc"`
	LockPolicy      string        `mapstructure:"lock-policy"`
	Refresh         time.Duration `mapstructure:"refresh"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Listen          string        `mapstructure:"listen"`
	DiscoverTimeout time.Duration `mapstructure:"discover-timeout"`
	LogLevel        string        `mapstructure:"log-level"`
	LogFile         string        `mapstructure:"log-file"`
}

// DefaultSettings returns the built-in defaults
func DefaultSettings() Settings {
	return Settings{
		Panel:           router.DefaultPanel,
		Sort:            dashboard.DefaultSortOrder.Column.String(),
		LockPolicy:      dashboard.LockFirstArrival.String(),
		Timeout:         restapi.DefaultTimeout,
		Listen:          DefaultListen,
		DiscoverTimeout: DefaultDiscoverTimeout,
	}
}

// LoadSettings resolves settings from flags, DCTDASH_* environment variables,
// the config file at configPath (or the default location) and the defaults.
// Only flags the user changed override the lower layers. flags may be nil.
func LoadSettings(configPath string, flags *pflag.FlagSet) (Settings, error) {
	var cfg Settings
	defaults := DefaultSettings()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("server", defaults.Server)
	v.SetDefault("panel", defaults.Panel)
	v.SetDefault("sort", defaults.Sort)
	v.SetDefault("desc", defaults.Descending)
	v.SetDefault("lock-policy", defaults.LockPolicy)
	v.SetDefault("refresh", defaults.Refresh)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("listen", defaults.Listen)
	v.SetDefault("discover-timeout", defaults.DiscoverTimeout)
	v.SetDefault("log-level", defaults.LogLevel)
	v.SetDefault("log-file", defaults.LogFile)

	if configPath == "" {
		path, err := GetConfigPath()
		if err != nil {
			return cfg, err
		}
		configPath = path
	}
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading %s: %w", configPath, err)
		}
	}

	if flags != nil {
		// Bind only changed flags: a flag default must not mask the file
		var bindErr error
		flags.Visit(func(f *pflag.Flag) {
			if _, known := settingKeys[f.Name]; !known || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(f.Name, f)
		})
		if bindErr != nil {
			return cfg, bindErr
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

var settingKeys = map[string]struct{}{
	"server": {}, "panel": {}, "sort": {}, "desc": {}, "lock-policy": {},
	"refresh": {}, "timeout": {}, "listen": {}, "discover-timeout": {},
	"log-level": {}, "log-file": {},
}

// Validate checks the enumerated settings
func (s Settings) Validate() error {
	if _, err := s.SortOrder(); err != nil {
		return err
	}
	if _, err := s.Policy(); err != nil {
		return err
	}
	if s.Refresh < 0 {
		return fmt.Errorf("refresh interval cannot be negative: %s", s.Refresh)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative: %s", s.Timeout)
	}
	return nil
}

// SortOrder returns the configured table sort
func (s Settings) SortOrder() (dashboard.SortOrder, error) {
	col, err := dashboard.ParseColumn(s.Sort)
	if err != nil {
		return dashboard.DefaultSortOrder, err
	}
	return dashboard.SortOrder{Column: col, Descending: s.Descending}, nil
}

// Policy returns the configured lock policy
func (s Settings) Policy() (dashboard.LockPolicy, error) {
	return dashboard.ParseLockPolicy(s.LockPolicy)
}

// TableOptions returns the dashboard options for these settings
func (s Settings) TableOptions() []dashboard.Option {
	order, _ := s.SortOrder()
	policy, _ := s.Policy()
	return []dashboard.Option{dashboard.WithSortOrder(order), dashboard.WithLockPolicy(policy)}
}
