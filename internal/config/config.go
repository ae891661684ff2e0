// Package config loads the optional repoharvest.toml configuration file
// and the .env file carrying service credentials.
//
// Every setting has a working default, so both files are optional: the
// toolkit runs with bare defaults, the TOML file adjusts pipeline
// behavior, and the .env file supplies Supabase and GitHub credentials
// without putting them in shell history.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/repoharvest/repoharvest/pkg/crawl"
	"github.com/repoharvest/repoharvest/pkg/errors"
	"github.com/repoharvest/repoharvest/pkg/gitutil"
	"github.com/repoharvest/repoharvest/pkg/table"
)

// FileName is the configuration file looked up at the working root.
const FileName = "repoharvest.toml"

// Config is the full configuration tree.
type Config struct {
	Prepare PrepareConfig `toml:"prepare"`
	Crawl   CrawlConfig   `toml:"crawl"`
	Cache   CacheConfig   `toml:"cache"`
	Export  ExportConfig  `toml:"export"`
}

// PrepareConfig controls cleaning and partitioning.
type PrepareConfig struct {
	// DomainThreshold is the minimum row count for a per-domain CSV.
	DomainThreshold int `toml:"domain_threshold"`
}

// CrawlConfig controls both crawler variants.
type CrawlConfig struct {
	CloneDir   string   `toml:"clone_dir"`
	KeepClones bool     `toml:"keep_clones"`
	Excludes   []string `toml:"excludes"`

	// MaxConsecutiveFailures is the API row failure streak that triggers
	// a warning about the token or network.
	MaxConsecutiveFailures int `toml:"max_consecutive_failures"`
}

// CacheConfig selects the API response cache backend.
type CacheConfig struct {
	// Backend is "file", "redis" or "none".
	Backend string `toml:"backend"`
	// Dir overrides the file cache directory.
	Dir string `toml:"dir"`
	// TTL is how long cached responses stay valid.
	TTL duration `toml:"ttl"`

	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ExportConfig selects the language guess store backend.
type ExportConfig struct {
	// Backend is "supabase" or "mongo".
	Backend   string `toml:"backend"`
	MongoURI  string `toml:"mongo_uri"`
	BatchSize int    `toml:"batch_size"`
}

// duration wraps time.Duration for TOML strings like "24h".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Prepare: PrepareConfig{DomainThreshold: table.DefaultDomainThreshold},
		Crawl: CrawlConfig{
			CloneDir: filepath.Join("data", "cloned_repos"),
			Excludes: crawl.DefaultExcludes,
		},
		Cache: CacheConfig{
			Backend: "file",
			TTL:     duration{24 * time.Hour},
		},
		Export: ExportConfig{Backend: "supabase"},
	}
}

// Load reads path over the defaults. A missing file is not an error; a
// malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "read %s", path)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfig, err, "parse %s", path)
	}
	return cfg, nil
}

// LoadDefault loads FileName from the working root.
func LoadDefault() (*Config, error) {
	return Load(filepath.Join(gitutil.WorkingRoot(), FileName))
}

// LoadEnv loads a .env file from the working root into the process
// environment. Variables already set in the environment win. A missing
// .env file is fine.
func LoadEnv() {
	_ = godotenv.Load(filepath.Join(gitutil.WorkingRoot(), ".env"))
}

// CacheTTL returns the configured cache TTL.
func (c *Config) CacheTTL() time.Duration {
	return c.Cache.TTL.Duration
}
