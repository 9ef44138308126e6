// Package cache stores evaluation results between CLI invocations.
//
// # Backends
//
//   - [FileCache]: JSON entries under a directory, the CLI default
//   - [RedisCache]: a shared Redis instance for teams running many solves
//   - [NullCache]: disables caching (--no-cache)
//
// # Keys
//
// A [Keyer] turns a problem hash and the evaluation options into a cache
// key. Any option that changes the result (operator policy, representation,
// query and evidence) is part of the key, so a changed option is a miss
// rather than a stale hit. [ScopedKeyer] adds a namespace prefix.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	// A missing or expired key is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// ResultKey identifies the result of evaluating the problem with the
	// given hash under opts.
	ResultKey(problemHash string, opts ResultKeyOpts) string
}

// ResultKeyOpts are the evaluation options that influence a result.
type ResultKeyOpts struct {
	Combine        string         `json:"combine"`
	Summarize      string         `json:"summarize"`
	Normalize      string         `json:"normalize"`
	Representation string         `json:"representation"`
	Query          []string       `json:"query,omitempty"`
	Evidence       map[string]int `json:"evidence,omitempty"`
}

// DefaultKeyer hashes options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ResultKey returns "result:<sha256>" over the problem hash and options.
// Map keys are marshaled in sorted order, so equal evidence always yields
// equal keys.
func (DefaultKeyer) ResultKey(problemHash string, opts ResultKeyOpts) string {
	return hashKey("result", problemHash, opts)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = DefaultKeyer{}

// hashKey returns kind + ":" + the SHA-256 of the JSON encoding of parts.
func hashKey(kind string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data (64 characters).
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
