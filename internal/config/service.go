// Package config loads the service settings for the sculpt server and CLI.
//
// Every field is optional. Get* methods return the built-in default for
// fields a file leaves out, so partial files are safe.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the canonical service defaults file.
const DefaultConfigPath = "config/service.defaults.json"

// Built-in defaults.
const (
	DefaultListen          = "localhost:8080"
	DefaultTileURL         = "https://api.maptiler.com/tiles/terrain-rgb-v2/{z}/{x}/{y}.webp"
	DefaultTileTimeout     = 15 * time.Second
	DefaultExportDir       = "exports"
	DefaultDBPath          = "sculpture.db"
	DefaultMaxRequestBytes = 32 << 20
	DefaultDownloadTTL     = time.Hour
)

// ServiceConfig is the on-disk service configuration.
type ServiceConfig struct {
	Listen          *string  `json:"listen,omitempty"`
	GRPCListen      *string  `json:"grpc_listen,omitempty"` // empty disables the gRPC service
	TileURL         *string  `json:"tile_url,omitempty"`
	TileRateLimit   *float64 `json:"tile_rate_limit,omitempty"` // requests per second, 0 = unlimited
	TileTimeout     *string  `json:"tile_timeout,omitempty"`    // duration string like "15s"
	ExportDir       *string  `json:"export_dir,omitempty"`
	DBPath          *string  `json:"db_path,omitempty"`
	LogFile         *string  `json:"log_file,omitempty"`
	MaxRequestBytes *int64   `json:"max_request_bytes,omitempty"`
	DownloadTTL     *string  `json:"download_ttl,omitempty"` // unfetched exports are removed after this long
}

// LoadServiceConfig reads a JSON config file of at most 1MB and validates it.
func LoadServiceConfig(path string) (*ServiceConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &ServiceConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *ServiceConfig) Validate() error {
	if c.TileRateLimit != nil && *c.TileRateLimit < 0 {
		return fmt.Errorf("tile_rate_limit must be non-negative, got %v", *c.TileRateLimit)
	}
	if err := validateDuration("tile_timeout", c.TileTimeout); err != nil {
		return err
	}
	if err := validateDuration("download_ttl", c.DownloadTTL); err != nil {
		return err
	}
	if c.MaxRequestBytes != nil && *c.MaxRequestBytes <= 0 {
		return fmt.Errorf("max_request_bytes must be positive, got %d", *c.MaxRequestBytes)
	}
	return nil
}

func validateDuration(name string, v *string) error {
	if v == nil || *v == "" {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, *v, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got %s", name, d)
	}
	return nil
}

func parseDuration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func (c *ServiceConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return DefaultListen
	}
	return *c.Listen
}

// GetGRPCListen returns the gRPC address, or "" when gRPC is off.
func (c *ServiceConfig) GetGRPCListen() string {
	if c.GRPCListen == nil {
		return ""
	}
	return *c.GRPCListen
}

func (c *ServiceConfig) GetTileURL() string {
	if c.TileURL == nil || *c.TileURL == "" {
		return DefaultTileURL
	}
	return *c.TileURL
}

// GetTileRateLimit returns requests per second; 0 means unlimited.
func (c *ServiceConfig) GetTileRateLimit() float64 {
	if c.TileRateLimit == nil {
		return 0
	}
	return *c.TileRateLimit
}

func (c *ServiceConfig) GetTileTimeout() time.Duration {
	return parseDuration(c.TileTimeout, DefaultTileTimeout)
}

// GetDownloadTTL is how long a published export waits to be fetched.
func (c *ServiceConfig) GetDownloadTTL() time.Duration {
	return parseDuration(c.DownloadTTL, DefaultDownloadTTL)
}

func (c *ServiceConfig) GetExportDir() string {
	if c.ExportDir == nil || *c.ExportDir == "" {
		return DefaultExportDir
	}
	return *c.ExportDir
}

func (c *ServiceConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetLogFile returns the rotating log path, or "" to log to stderr only.
func (c *ServiceConfig) GetLogFile() string {
	if c.LogFile == nil {
		return ""
	}
	return *c.LogFile
}

func (c *ServiceConfig) GetMaxRequestBytes() int64 {
	if c.MaxRequestBytes == nil {
		return DefaultMaxRequestBytes
	}
	return *c.MaxRequestBytes
}
