// Package config loads the process configuration. The loaded values are
// immutable for the process lifetime.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Addr is the TCP bind address.
	Addr string `mapstructure:"addr"`
	// MaxIdle is how long a keep-alive connection may sit between requests
	// before the watchdog closes it.
	MaxIdle time.Duration `mapstructure:"max_idle"`
	// CopyBuffer is the buffer size for streaming media bodies.
	CopyBuffer int `mapstructure:"copy_buffer"`
	// Resource is the media file backing the /resource/mikufans endpoint.
	Resource string `mapstructure:"resource"`
	// AllowOrigin is the value of Access-Control-Allow-Origin on media
	// responses.
	AllowOrigin string `mapstructure:"allow_origin"`
}

// Load reads the given config file (or a bvcd.yaml next to the working
// directory when file is empty) with BVCD_* environment overrides on top of
// the defaults.
func Load(file string) (Config, error) {
	v := viper.New()
	v.SetDefault("addr", "127.0.0.1:7080")
	v.SetDefault("max_idle", 15*time.Second)
	v.SetDefault("copy_buffer", 8<<20)
	v.SetDefault("resource", "./test/video.m4s")
	v.SetDefault("allow_origin", "https://www.bilibili.com")

	v.SetEnvPrefix("bvcd")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	} else {
		v.SetConfigName("bvcd")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
