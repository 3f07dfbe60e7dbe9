package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/netgraph/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(envNeo4jPassword, "")
	t.Setenv(envRedisURL, "")
	t.Setenv(envMongoURI, "")

	path := writeFile(t, "config.toml", `
[build]
canonical = true
workers = 4

[cache]
redis_url = "redis://cache:6379/1"
key_prefix = "netgraph:ci:"

[neo4j]
uri = "neo4j+s://graphs.example.com"
database = "netlists"

[serve]
addr = "127.0.0.1:9000"
`)

	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if !cfg.Build.Canonical || cfg.Build.Workers != 4 {
		t.Errorf("build = %+v", cfg.Build)
	}
	if cfg.Cache.RedisURL != "redis://cache:6379/1" || cfg.Cache.KeyPrefix != "netgraph:ci:" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Neo4j.URI != "neo4j+s://graphs.example.com" || cfg.Neo4j.Database != "netlists" {
		t.Errorf("neo4j = %+v", cfg.Neo4j)
	}
	if cfg.Neo4j.User != "neo4j" {
		t.Errorf("neo4j user = %q, want the default to survive", cfg.Neo4j.User)
	}
	if cfg.Serve.Addr != "127.0.0.1:9000" {
		t.Errorf("serve addr = %q", cfg.Serve.Addr)
	}
	if cfg.SQLite.Path != "netgraph.db" {
		t.Errorf("sqlite path = %q, want default", cfg.SQLite.Path)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv(envNeo4jPassword, "s3cret")
	t.Setenv(envRedisURL, "redis://env:6379/0")
	t.Setenv(envMongoURI, "mongodb://env:27017")

	path := writeFile(t, "config.toml", "[neo4j]\npassword = \"from-file\"\n")
	cfg, err := loadConfig(path, true)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Neo4j.Password != "s3cret" {
		t.Errorf("password = %q, want the environment to win", cfg.Neo4j.Password)
	}
	if cfg.Cache.RedisURL != "redis://env:6379/0" || cfg.Mongo.URI != "mongodb://env:27017" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.toml")

	tests := []struct {
		name     string
		path     string
		explicit bool
		wantCode errors.Code
	}{
		{"missing default", missing, false, ""},
		{"no path", "", false, ""},
		{"missing explicit", missing, true, errors.ErrCodeFileNotFound},
		{"malformed", writeFile(t, "bad.toml", "[build\n"), true, errors.ErrCodeInvalidInput},
		{"unknown key", writeFile(t, "typo.toml", "[build]\ncanonnical = true\n"), true, errors.ErrCodeInvalidInput},
		{"negative workers", writeFile(t, "neg.toml", "[build]\nworkers = -1\n"), true, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := loadConfig(tt.path, tt.explicit)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("loadConfig: %v", err)
				}
				if cfg.Serve.Addr != ":8080" {
					t.Errorf("defaults not applied: %+v", cfg.Serve)
				}
				return
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("loadConfig error = %v, want %s", err, tt.wantCode)
			}
		})
	}
}
