// Package cache stores built graphs and rendered artifacts between runs.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// shared deployments and [NullCache] to disable caching. Keys come from a
// [Keyer], which hashes the netlist content together with every option that
// changes the output, so a key never maps to a stale graph.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key-value store with optional expiry.
type Cache interface {
	// Get returns the value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Default expiries.
const (
	TTLGraph    = 7 * 24 * time.Hour
	TTLArtifact = 30 * 24 * time.Hour
)

// GraphKeyOpts holds the build options that change a graph.
type GraphKeyOpts struct {
	Undirected bool   `json:"undirected"`
	Canonical  bool   `json:"canonical"`
	Policy     string `json:"policy"`
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed"`
}

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey keys a built graph by the hash of the netlist content.
	GraphKey(netlistHash string, opts GraphKeyOpts) string

	// ArtifactKey keys a serialized or rendered graph by the graph hash.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer hashes every key component.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(netlistHash string, opts GraphKeyOpts) string {
	return hashKey("graph", netlistHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}
