package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	JWT      JWTConfig      `yaml:"jwt"`
	Storage  StorageConfig  `yaml:"storage"`
	Sharing  SharingConfig  `yaml:"sharing"`
	Trash    TrashConfig    `yaml:"trash"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type StorageConfig struct {
	BasePath        string `yaml:"base_path"`
	MaxFileSize     int64  `yaml:"max_file_size"`
	ThumbnailWidth  int    `yaml:"thumbnail_width"`
	ThumbnailHeight int    `yaml:"thumbnail_height"`
}

type SharingConfig struct {
	// MaxRecipients caps the resolved grant set of a single target.
	MaxRecipients int `yaml:"max_recipients"`
}

type TrashConfig struct {
	RetentionDays   int `yaml:"retention_days"`
	CleanupInterval int `yaml:"cleanup_interval"`
	ListLimit       int `yaml:"list_limit"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Charset == "" {
		cfg.Database.Charset = "utf8mb4"
	}
	if cfg.JWT.ExpireHours == 0 {
		cfg.JWT.ExpireHours = 24
	}
	if cfg.Storage.MaxFileSize == 0 {
		cfg.Storage.MaxFileSize = 100 << 20
	}
	if cfg.Storage.ThumbnailWidth == 0 {
		cfg.Storage.ThumbnailWidth = 200
	}
	if cfg.Storage.ThumbnailHeight == 0 {
		cfg.Storage.ThumbnailHeight = 200
	}
	if cfg.Sharing.MaxRecipients == 0 {
		cfg.Sharing.MaxRecipients = 99
	}
	if cfg.Trash.RetentionDays == 0 {
		cfg.Trash.RetentionDays = 30
	}
	if cfg.Trash.CleanupInterval == 0 {
		cfg.Trash.CleanupInterval = 86400
	}
	if cfg.Trash.ListLimit == 0 {
		cfg.Trash.ListLimit = 100
	}
}
