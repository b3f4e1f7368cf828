package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Soltrivia-App/soltrivia-contract/internal/repository"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	TelegramAuth  TelegramAuthConfig  `yaml:"telegramAuth"`
	Notifications NotificationsConfig `yaml:"notifications"`

	// Operators may credit deposits into the ledger.
	Operators []string `yaml:"operators"`

	Log logger.Config `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	Debug            bool   `yaml:"debug"`
}

type NotificationsConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Debug     bool          `yaml:"debug"`
	Timeout   time.Duration `yaml:"timeout"`
	QueueSize int           `yaml:"queueSize"`
}

// LoadConfig reads config.yaml from the working directory, or the file named
// by --config. APP_ prefixed environment variables override file values.
func LoadConfig(args []string) (*Config, error) {
	flags := pflag.NewFlagSet("app", pflag.ContinueOnError)
	configFile := flags.String("config", "", "path to the config file")
	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	v := viper.New()
	if *configFile != "" {
		v.SetConfigFile(*configFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(configPath)
		v.SetConfigType(configFormat)
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("database.driver", repository.DriverPgx)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("notifications.timeout", 10*time.Second)
	v.SetDefault("notifications.queueSize", 64)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", logger.EncodingJSON)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
