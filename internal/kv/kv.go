// Package kv provides the string-keyed blob stores used by the local storage driver.
package kv

import (
	"context"
	"fmt"
)

// Store is a string-keyed byte store.
// Get returns nil, nil if the key does not exist and Delete ignores missing keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
	// Type names the underlying store, e.g. "badger".
	Type() string
}

// Sizer is implemented by stores that know their size on disk.
type Sizer interface {
	Size() (lsm, vlog int64)
}

// Kind selects a Store implementation.
type Kind string

const (
	KindBadger Kind = "badger"
	KindMemory Kind = "memory"
	KindRedis  Kind = "redis"
)

// Options configures Open.
type Options struct {
	Kind     Kind
	Path     string
	RedisURL string
}

// Open returns the store described by opts.
func Open(opts Options) (Store, error) {
	switch opts.Kind {
	case KindBadger, "":
		return NewBadger(opts.Path)
	case KindMemory:
		return NewMemory(), nil
	case KindRedis:
		return NewRedis(opts.RedisURL)
	default:
		return nil, fmt.Errorf("unknown key-value store %q", opts.Kind)
	}
}
