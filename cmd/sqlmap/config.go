package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

type config struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Mapping  string `mapstructure:"mapping"`
	LogLevel string `mapstructure:"log-level"`
	Verbose  bool   `mapstructure:"verbose"`
}

// loadEnv sets the variables of a .env file in the working directory that
// are not already set.
func loadEnv(fs afero.Fs) error {
	f, err := fs.Open(".env")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	env, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse .env: %w", err)
	}
	for k, v := range env {
		if _, ok := os.LookupEnv(k); !ok {
			os.Setenv(k, v)
		}
	}
	return nil
}

// loadConfig reads .sqlmap.yaml from the working or home directory, or file
// when given, then applies SQLMAP_ variables and flags bound to v.
func loadConfig(fs afero.Fs, v *viper.Viper, file string) (*config, error) {
	if err := loadEnv(fs); err != nil {
		return nil, err
	}
	v.SetFs(fs)
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(".sqlmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	v.SetEnvPrefix("SQLMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg := &config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c *config) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if c.LogLevel != "" {
		if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
	}
	if c.Verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
