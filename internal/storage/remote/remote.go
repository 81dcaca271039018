// Package remote implements the storage backend against the hosted users and entries tables.
//
// Two query clients are supported. http(s) endpoints are spoken to through
// the PostgREST API exposed by Supabase and similar hosts. postgres, mysql and
// sqlite URLs are opened directly with gorm.
package remote

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
)

// Config describes how to reach the remote backend.
type Config struct {
	URL     string
	Key     string
	Timeout time.Duration
}

// Dialect is the query dialect derived from the endpoint URL.
type Dialect string

const (
	DialectREST     Dialect = "rest"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
)

// DetectDialect returns the dialect of rawURL from its scheme.
func DetectDialect(rawURL string) (Dialect, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid remote url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		if u.Host == "" {
			return "", errors.New("invalid remote url: missing host")
		}
		return DialectREST, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "sqlite", "sqlite3", "file":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported remote url scheme %q", u.Scheme)
	}
}

// Open builds a client for cfg without contacting the backend.
func Open(cfg Config) (driver.Backend, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, errors.New("remote url and key are required")
	}
	dialect, err := DetectDialect(cfg.URL)
	if err != nil {
		return nil, err
	}
	if dialect == DialectREST {
		return NewREST(cfg)
	}
	return NewSQL(dialect, cfg)
}

// patchColumns maps the set fields of patch to their column names.
// Timestamps are written in UTC like every other stored createdAt.
func patchColumns(patch models.EntryPatch) map[string]any {
	cols := make(map[string]any, 4)
	if patch.Title != nil {
		cols["title"] = *patch.Title
	}
	if patch.Content != nil {
		cols["content"] = *patch.Content
	}
	if patch.Mood != nil {
		cols["mood"] = *patch.Mood
	}
	if patch.CreatedAt != nil {
		cols["createdAt"] = patch.CreatedAt.UTC()
	}
	return cols
}
