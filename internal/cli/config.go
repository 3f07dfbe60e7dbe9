package cli

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/netgraph/pkg/errors"
)

// Environment variables that override the config file. Secrets belong here
// rather than in config.toml.
const (
	envNeo4jPassword = "NETGRAPH_NEO4J_PASSWORD"
	envRedisURL      = "NETGRAPH_REDIS_URL"
	envMongoURI      = "NETGRAPH_MONGO_URI"
)

// Config is the optional netgraph configuration file. Every value is a
// default that the matching command-line flag overrides.
//
//	[build]
//	canonical = true
//	workers = 8
//
//	[cache]
//	redis_url = "redis://localhost:6379/0"
//
//	[neo4j]
//	uri = "neo4j://localhost:7687"
//	user = "neo4j"
type Config struct {
	Build  BuildConfig  `toml:"build"`
	Cache  CacheConfig  `toml:"cache"`
	Neo4j  Neo4jConfig  `toml:"neo4j"`
	SQLite SQLiteConfig `toml:"sqlite"`
	Mongo  MongoConfig  `toml:"mongo"`
	Serve  ServeConfig  `toml:"serve"`
}

type BuildConfig struct {
	Undirected  bool `toml:"undirected"`
	Canonical   bool `toml:"canonical"`
	SkipInvalid bool `toml:"skip_invalid"`
	Workers     int  `toml:"workers"`
}

type CacheConfig struct {
	Disabled  bool   `toml:"disabled"`
	Dir       string `toml:"dir"`
	RedisURL  string `toml:"redis_url"`
	KeyPrefix string `toml:"key_prefix"` // Redis only
}

type Neo4jConfig struct {
	URI       string `toml:"uri"`
	User      string `toml:"user"`
	Password  string `toml:"password"`
	Database  string `toml:"database"`
	BatchSize int    `toml:"batch_size"`
}

type SQLiteConfig struct {
	Path string `toml:"path"`
}

type MongoConfig struct {
	URI       string `toml:"uri"`
	Database  string `toml:"database"`
	BatchSize int    `toml:"batch_size"`
}

type ServeConfig struct {
	Addr         string `toml:"addr"`
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// defaultConfig returns the built-in defaults.
func defaultConfig() *Config {
	return &Config{
		Neo4j:  Neo4jConfig{URI: "neo4j://localhost:7687", User: "neo4j"},
		SQLite: SQLiteConfig{Path: "netgraph.db"},
		Mongo:  MongoConfig{URI: "mongodb://localhost:27017"},
		Serve:  ServeConfig{Addr: ":8080"},
	}
}

// loadConfig reads the config file at path on top of the defaults, then
// applies environment overrides. A missing file is only an error when the
// path was given explicitly.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		notExist := stderrors.Is(err, fs.ErrNotExist)
		switch {
		case notExist && !explicit:
		case notExist:
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		case err != nil:
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
		default:
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, errors.New(errors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
			}
		}
	}
	cfg.applyEnv()
	if cfg.Build.Workers < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "config: build.workers must not be negative")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envNeo4jPassword); v != "" {
		c.Neo4j.Password = v
	}
	if v := os.Getenv(envRedisURL); v != "" {
		c.Cache.RedisURL = v
	}
	if v := os.Getenv(envMongoURI); v != "" {
		c.Mongo.URI = v
	}
}

// configPath returns the config file location using the XDG standard
// (~/.config/netgraph/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
