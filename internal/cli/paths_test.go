package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/custom-cache", appName); dir != want {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, want)
	}
}

func TestConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	path, err := configPath()
	if err != nil {
		t.Fatalf("configPath() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".config", appName, "config.toml"); path != want {
		t.Errorf("configPath() = %q, want %q", path, want)
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")
	path, _ = configPath()
	if want := filepath.Join("/tmp/custom-config", appName, "config.toml"); path != want {
		t.Errorf("configPath() with XDG_CONFIG_HOME = %q, want %q", path, want)
	}
}

func TestCLICacheDirFromConfig(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	c.config.Cache.Dir = "/srv/netgraph-cache"

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/srv/netgraph-cache" {
		t.Errorf("cacheDir() = %q, want the configured directory", dir)
	}
}
