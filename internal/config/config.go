package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	jfserrors "github.com/jsonfs/jsonfs/pkg/errors"
	"github.com/jsonfs/jsonfs/pkg/utils"
)

// Content engine modes.
const (
	ModeFill      = "fill"
	ModeSynthetic = "synthetic"
)

// Config represents the complete application configuration
type Config struct {
	Content    ContentConfig    `yaml:"content"`
	Limits     LimitsConfig     `yaml:"limits"`
	Attributes AttributesConfig `yaml:"attributes"`
	Paths      PathsConfig      `yaml:"paths"`
	Platform   PlatformConfig   `yaml:"platform"`
	Stats      StatsConfig      `yaml:"stats"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Mount      MountConfig      `yaml:"mount"`
	Logging    LoggingConfig    `yaml:"logging"`
	Layout     LayoutConfig     `yaml:"layout"`
}

// ContentConfig selects and parameterizes the content engine
type ContentConfig struct {
	Mode       string `yaml:"mode"`
	FillChar   string `yaml:"fill_char"`
	BlockSize  string `yaml:"block_size"`
	PoolBlocks int    `yaml:"pool_blocks"`
	Seed       int64  `yaml:"seed"`
}

// LimitsConfig configures the throughput governor
type LimitsConfig struct {
	MinOpDelay   time.Duration `yaml:"min_op_delay"`
	MaxOpsPerSec int           `yaml:"max_ops_per_sec"`
}

// AttributesConfig supplies the static ownership and mode bits reported
// for every entry
type AttributesConfig struct {
	UID      int    `yaml:"uid"`
	GID      int    `yaml:"gid"`
	FileMode uint32 `yaml:"file_mode"`
	DirMode  uint32 `yaml:"dir_mode"`
}

// PathsConfig controls path canonicalization
type PathsConfig struct {
	UnicodeNormalization  string `yaml:"unicode_normalization"`
	IgnorePattern         string `yaml:"ignore_pattern"`
	NormalizeCacheEntries int    `yaml:"normalize_cache_entries"`
}

// PlatformConfig holds host-platform accommodations
type PlatformConfig struct {
	MacOSNoIndexMarkers bool `yaml:"macos_no_index_markers"`
}

// StatsConfig controls the per-interval throughput report
type StatsConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// MountConfig holds FUSE mount options
type MountConfig struct {
	FSName       string        `yaml:"fs_name"`
	AllowOther   bool          `yaml:"allow_other"`
	Debug        bool          `yaml:"debug"`
	AttrTimeout  time.Duration `yaml:"attr_timeout"`
	EntryTimeout time.Duration `yaml:"entry_timeout"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// LayoutConfig names the layout document and the credentials used to
// fetch it when the source is an s3:// URL. Source comes from argv.
type LayoutConfig struct {
	Source       string `yaml:"-"`
	AWSRegion    string `yaml:"aws_region"`
	AWSEndpoint  string `yaml:"aws_endpoint"`
	AWSAccessKey string `yaml:"aws_access_key"`
	AWSSecretKey string `yaml:"aws_secret_key"`
}

// NewDefault returns a configuration with sensible defaults
func NewDefault() *Config {
	return &Config{
		Content: ContentConfig{
			Mode:       ModeFill,
			FillChar:   "\x00",
			BlockSize:  "1M",
			PoolBlocks: 1000,
			Seed:       0,
		},
		Limits: LimitsConfig{
			MinOpDelay:   0,
			MaxOpsPerSec: 0,
		},
		Attributes: AttributesConfig{
			UID:      -1,
			GID:      -1,
			FileMode: 0444,
			DirMode:  0555,
		},
		Paths: PathsConfig{
			UnicodeNormalization:  "none",
			IgnorePattern:         "._",
			NormalizeCacheEntries: 4096,
		},
		Platform: PlatformConfig{
			MacOSNoIndexMarkers: false,
		},
		Stats: StatsConfig{
			Enabled:  false,
			Interval: time.Second,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9090",
		},
		Mount: MountConfig{
			FSName:       "jsonfs",
			AllowOther:   false,
			Debug:        false,
			AttrTimeout:  time.Second,
			EntryTimeout: time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from JSONFS_* environment variables
func (c *Config) LoadFromEnv() error {
	if val := os.Getenv("JSONFS_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("JSONFS_LOG_FILE"); val != "" {
		c.Logging.File = val
	}

	// Content settings
	if val := os.Getenv("JSONFS_CONTENT_MODE"); val != "" {
		c.Content.Mode = val
	}
	if val := os.Getenv("JSONFS_FILL_CHAR"); val != "" {
		c.Content.FillChar = val
	}
	if val := os.Getenv("JSONFS_BLOCK_SIZE"); val != "" {
		c.Content.BlockSize = val
	}
	if val := os.Getenv("JSONFS_POOL_BLOCKS"); val != "" {
		if blocks, err := strconv.Atoi(val); err == nil {
			c.Content.PoolBlocks = blocks
		}
	}
	if val := os.Getenv("JSONFS_SEED"); val != "" {
		if seed, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.Content.Seed = seed
		}
	}

	// Governor settings
	if val := os.Getenv("JSONFS_MIN_OP_DELAY"); val != "" {
		if delay, err := time.ParseDuration(val); err == nil {
			c.Limits.MinOpDelay = delay
		}
	}
	if val := os.Getenv("JSONFS_MAX_OPS_PER_SEC"); val != "" {
		if ops, err := strconv.Atoi(val); err == nil {
			c.Limits.MaxOpsPerSec = ops
		}
	}

	// Attribute settings
	if val := os.Getenv("JSONFS_UID"); val != "" {
		if uid, err := strconv.Atoi(val); err == nil {
			c.Attributes.UID = uid
		}
	}
	if val := os.Getenv("JSONFS_GID"); val != "" {
		if gid, err := strconv.Atoi(val); err == nil {
			c.Attributes.GID = gid
		}
	}

	// Path settings
	if val := os.Getenv("JSONFS_NORMALIZATION"); val != "" {
		c.Paths.UnicodeNormalization = val
	}
	if val := os.Getenv("JSONFS_IGNORE_PATTERN"); val != "" {
		c.Paths.IgnorePattern = val
	}

	// Platform settings
	if val := os.Getenv("JSONFS_MACOS_MARKERS"); val != "" {
		c.Platform.MacOSNoIndexMarkers = strings.ToLower(val) == "true"
	}

	// Stats settings
	if val := os.Getenv("JSONFS_STATS"); val != "" {
		c.Stats.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("JSONFS_STATS_INTERVAL"); val != "" {
		if interval, err := time.ParseDuration(val); err == nil {
			c.Stats.Interval = interval
		}
	}

	// Metrics settings
	if val := os.Getenv("JSONFS_METRICS_ENABLED"); val != "" {
		c.Metrics.Enabled = strings.ToLower(val) == "true"
	}
	if val := os.Getenv("JSONFS_METRICS_ADDR"); val != "" {
		c.Metrics.ListenAddr = val
	}

	// Mount settings
	if val := os.Getenv("JSONFS_FS_NAME"); val != "" {
		c.Mount.FSName = val
	}
	if val := os.Getenv("JSONFS_ALLOW_OTHER"); val != "" {
		c.Mount.AllowOther = strings.ToLower(val) == "true"
	}

	// AWS settings for s3:// layout sources
	if val := os.Getenv("JSONFS_AWS_REGION"); val != "" {
		c.Layout.AWSRegion = val
	}
	if val := os.Getenv("JSONFS_AWS_ENDPOINT"); val != "" {
		c.Layout.AWSEndpoint = val
	}
	if val := os.Getenv("JSONFS_AWS_ACCESS_KEY"); val != "" {
		c.Layout.AWSAccessKey = val
	}
	if val := os.Getenv("JSONFS_AWS_SECRET_KEY"); val != "" {
		c.Layout.AWSSecretKey = val
	}

	return nil
}

// SaveToFile saves the configuration to a YAML file
func (c *Config) SaveToFile(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks every section; violations are CONFIGURATION_INVALID.
func (c *Config) Validate() error {
	switch c.Content.Mode {
	case ModeFill:
		if len(c.Content.FillChar) != 1 {
			return jfserrors.NewInvalidConfigf("fill character must be exactly one byte, got %d", len(c.Content.FillChar))
		}
	case ModeSynthetic:
		blockSize, err := c.BlockSizeBytes()
		if err != nil || blockSize <= 0 {
			return jfserrors.NewInvalidConfigf("block size must be a positive size, got %q", c.Content.BlockSize)
		}
		if c.Content.PoolBlocks <= 0 {
			return jfserrors.NewInvalidConfigf("pool size must be a positive integer, got %d", c.Content.PoolBlocks)
		}
	default:
		return jfserrors.NewInvalidConfigf("content mode must be %q or %q, got %q", ModeFill, ModeSynthetic, c.Content.Mode)
	}

	if c.Limits.MinOpDelay < 0 {
		return jfserrors.NewInvalidConfigf("min_op_delay must not be negative, got %v", c.Limits.MinOpDelay)
	}
	if c.Limits.MaxOpsPerSec < 0 {
		return jfserrors.NewInvalidConfigf("max_ops_per_sec must not be negative, got %d", c.Limits.MaxOpsPerSec)
	}

	if c.Attributes.UID < -1 {
		return jfserrors.NewInvalidConfigf("uid must be -1 or a valid user id, got %d", c.Attributes.UID)
	}
	if c.Attributes.GID < -1 {
		return jfserrors.NewInvalidConfigf("gid must be -1 or a valid group id, got %d", c.Attributes.GID)
	}

	if _, err := utils.ParseNormalizationForm(c.Paths.UnicodeNormalization); err != nil {
		return jfserrors.NewInvalidConfigf("unicode_normalization: %v", err)
	}
	if c.Paths.NormalizeCacheEntries <= 0 {
		return jfserrors.NewInvalidConfigf("normalize_cache_entries must be positive, got %d", c.Paths.NormalizeCacheEntries)
	}

	if c.Stats.Enabled && c.Stats.Interval <= 0 {
		return jfserrors.NewInvalidConfigf("stats interval must be positive, got %v", c.Stats.Interval)
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return jfserrors.NewInvalidConfig("metrics listen address must be set when metrics are enabled")
	}

	if c.Mount.AttrTimeout < 0 || c.Mount.EntryTimeout < 0 {
		return jfserrors.NewInvalidConfig("mount timeouts must not be negative")
	}

	if _, err := utils.ParseLogLevel(c.Logging.Level); err != nil {
		return jfserrors.NewInvalidConfigf("logging level: %v", err)
	}

	if c.Layout.Source == "" {
		return jfserrors.NewInvalidConfig("layout source must be provided")
	}

	return nil
}

// FillByte returns the fill character as a single byte. Call after
// Validate.
func (c *Config) FillByte() byte {
	return c.Content.FillChar[0]
}

// BlockSizeBytes parses the block size string, honoring size suffixes.
func (c *Config) BlockSizeBytes() (int64, error) {
	return utils.ParseBytes(c.Content.BlockSize)
}

// NormalizationForm parses the configured Unicode normalization form.
func (c *Config) NormalizationForm() (utils.NormalizationForm, error) {
	return utils.ParseNormalizationForm(c.Paths.UnicodeNormalization)
}

// ResolveSeed returns the configured seed, substituting a time-derived
// one when unset.
func (c *Config) ResolveSeed() int64 {
	if c.Content.Seed != 0 {
		return c.Content.Seed
	}
	return time.Now().UnixNano()
}

// ResolveUID returns the configured uid, defaulting to the current
// process.
func (c *Config) ResolveUID() uint32 {
	if c.Attributes.UID >= 0 {
		return uint32(c.Attributes.UID)
	}
	return uint32(os.Getuid())
}

// ResolveGID returns the configured gid, defaulting to the current
// process.
func (c *Config) ResolveGID() uint32 {
	if c.Attributes.GID >= 0 {
		return uint32(c.Attributes.GID)
	}
	return uint32(os.Getgid())
}
