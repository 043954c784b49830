package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Pool     PoolConfig     `mapstructure:"pool" yaml:"pool"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`

	Port string `mapstructure:"port" yaml:"port"`
}

type DownloadConfig struct {
	OutDir string `mapstructure:"out_dir" yaml:"out_dir"`
}

type PoolConfig struct {
	// Workers caps how many engine calls run at once. Each one is a full
	// download/transcode, so this bounds bandwidth, disk I/O and ffmpeg load.
	Workers   int `mapstructure:"workers" yaml:"workers"`
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

type EngineConfig struct {
	FFmpegPath string `mapstructure:"ffmpeg_path" yaml:"ffmpeg_path"`
}

type LogConfig struct {
	Path          string `mapstructure:"path" yaml:"path"`
	Level         string `mapstructure:"level" yaml:"level"`
	IncludeStdout bool   `mapstructure:"include_stdout" yaml:"include_stdout"`
}

// Load reads the config file at path (optional; defaults apply when absent)
// and layers GOTUBE_* environment variables on top.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Set Defaults
	v.SetDefault("port", "8000")
	v.SetDefault("download.out_dir", "./downloads")
	v.SetDefault("pool.workers", 5)
	v.SetDefault("pool.queue_size", 32)
	v.SetDefault("engine.ffmpeg_path", "")
	v.SetDefault("log.path", "gotube.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.include_stdout", true)

	explicit := path != ""
	if path == "" {
		path = "config.yaml"
	}

	// The server runs fine on defaults, so a missing default config file is
	// not an error. An explicitly passed path must exist.
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Support Environment Variables
	v.SetEnvPrefix("GOTUBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Port == "" {
		c.Port = "8000"
	}

	if c.Download.OutDir == "" {
		c.Download.OutDir = "./downloads"
	}

	abs, err := filepath.Abs(c.Download.OutDir)
	if err != nil {
		return fmt.Errorf("invalid download.out_dir: %w", err)
	}
	c.Download.OutDir = abs

	if c.Pool.Workers <= 0 {
		// Default to a sane value
		c.Pool.Workers = 5
	}

	if c.Pool.QueueSize <= 0 {
		c.Pool.QueueSize = 32
	}

	return nil
}
