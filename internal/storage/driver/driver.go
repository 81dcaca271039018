// Package driver defines the contract every persistence backend of moodiary implements.
package driver

import (
	"context"
	"errors"

	"github.com/jon4hz/moodiary/internal/models"
)

var (
	// ErrNotFound is returned when an addressed record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a record with the same key already exists.
	ErrDuplicate = errors.New("record already exists")
)

// Backend is a persistence driver for users and diary entries.
type Backend interface {
	// Init prepares the backend for use. It must be idempotent.
	Init(ctx context.Context) error

	ListUsers(ctx context.Context) ([]models.User, error)
	// GetUser returns nil, nil if no user has that exact username.
	GetUser(ctx context.Context, username string) (*models.User, error)
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, user models.User) error
	DeleteNonAdminUsers(ctx context.Context) error

	ListEntries(ctx context.Context) ([]models.DiaryEntry, error)
	AddEntries(ctx context.Context, entries ...models.DiaryEntry) error
	UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) error
	// DeleteEntry does not fail for unknown ids.
	DeleteEntry(ctx context.Context, id string) error
	DeleteAllEntries(ctx context.Context) error

	Close() error
}
