// Package local implements the storage backend on top of a key-value store.
// Each collection is kept as one JSON document that is rewritten on every change.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/moodiary/internal/idgen"
	"github.com/jon4hz/moodiary/internal/kv"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
	"github.com/jon4hz/moodiary/internal/storage/sample"
	"github.com/samber/lo"
)

const (
	UsersKey       = "diary_users"
	EntriesKey     = "diary_entries"
	CurrentUserKey = "diary_current_user"
)

const initialSampleEntries = 50

// Options configures a local Driver.
type Options struct {
	// Seed fills an empty store with the demo roster and entries on Init.
	Seed bool
	IDs  idgen.Generator
	Now  func() time.Time
	Rand *rand.Rand
}

// Driver is a driver.Backend over a kv.Store.
type Driver struct {
	store kv.Store
	opts  Options
	// mu serializes read-modify-write cycles of this process.
	mu sync.Mutex
}

var _ driver.Backend = (*Driver)(nil)

// New returns a driver persisting into store.
func New(store kv.Store, opts Options) *Driver {
	if opts.IDs == nil {
		opts.IDs = idgen.NewRandom()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Driver{store: store, opts: opts}
}

// Store returns the underlying key-value store.
func (d *Driver) Store() kv.Store {
	return d.store
}

func (d *Driver) Init(ctx context.Context) error {
	if !d.opts.Seed {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.readUsers(ctx)
	if err != nil {
		return err
	}
	// only a store that never had users is seeded, a cleared store stays empty
	if len(users) > 0 {
		return nil
	}
	users = append([]models.User{sample.Admin}, sample.Roster...)
	if err := d.write(ctx, UsersKey, users); err != nil {
		return err
	}
	log.Info("Seeded local user roster", "users", len(users))

	entries, err := d.readEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return nil
	}

	now := d.opts.Now()
	entries = sample.Welcome(d.opts.IDs, now)
	gen := sample.Generator{IDs: d.opts.IDs, Rand: d.opts.Rand, Now: now, MaxAgeDays: 60}
	entries = append(entries, gen.Entries(initialSampleEntries, sample.RosterNames())...)
	slices.SortStableFunc(entries, func(a, b models.DiaryEntry) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if err := d.write(ctx, EntriesKey, entries); err != nil {
		return err
	}
	log.Info("Seeded local diary entries", "entries", len(entries))
	return nil
}

func (d *Driver) ListUsers(ctx context.Context) ([]models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readUsers(ctx)
}

func (d *Driver) GetUser(ctx context.Context, username string) (*models.User, error) {
	users, err := d.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	user, ok := lo.Find(users, func(u models.User) bool { return u.Username == username })
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (d *Driver) CountUsers(ctx context.Context) (int64, error) {
	users, err := d.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(users)), nil
}

func (d *Driver) CreateUser(ctx context.Context, user models.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.readUsers(ctx)
	if err != nil {
		return err
	}
	if lo.ContainsBy(users, func(u models.User) bool { return u.Username == user.Username }) {
		return fmt.Errorf("user %s: %w", user.Username, driver.ErrDuplicate)
	}
	return d.write(ctx, UsersKey, append(users, user))
}

func (d *Driver) DeleteNonAdminUsers(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.readUsers(ctx)
	if err != nil {
		return err
	}
	admins := lo.Filter(users, func(u models.User, _ int) bool { return u.IsAdmin })
	return d.write(ctx, UsersKey, admins)
}

func (d *Driver) ListEntries(ctx context.Context) ([]models.DiaryEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readEntries(ctx)
}

// AddEntries prepends the given entries so the newest writes come first.
func (d *Driver) AddEntries(ctx context.Context, entries ...models.DiaryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	existing, err := d.readEntries(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if lo.ContainsBy(existing, func(x models.DiaryEntry) bool { return x.ID == e.ID }) {
			return fmt.Errorf("entry %s: %w", e.ID, driver.ErrDuplicate)
		}
	}
	return d.write(ctx, EntriesKey, append(slices.Clone(entries), existing...))
}

func (d *Driver) UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.readEntries(ctx)
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(entries, func(e models.DiaryEntry) bool { return e.ID == id })
	if idx < 0 {
		return fmt.Errorf("entry %s: %w", id, driver.ErrNotFound)
	}
	patch.Apply(&entries[idx])
	return d.write(ctx, EntriesKey, entries)
}

func (d *Driver) DeleteEntry(ctx context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	entries, err := d.readEntries(ctx)
	if err != nil {
		return err
	}
	kept := lo.Reject(entries, func(e models.DiaryEntry, _ int) bool { return e.ID == id })
	if len(kept) == len(entries) {
		return nil
	}
	return d.write(ctx, EntriesKey, kept)
}

func (d *Driver) DeleteAllEntries(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(ctx, EntriesKey, []models.DiaryEntry{})
}

func (d *Driver) Close() error {
	return d.store.Close()
}

func (d *Driver) readUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := d.read(ctx, UsersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (d *Driver) readEntries(ctx context.Context) ([]models.DiaryEntry, error) {
	var entries []models.DiaryEntry
	if err := d.read(ctx, EntriesKey, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (d *Driver) read(ctx context.Context, key string, v any) error {
	data, err := d.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (d *Driver) write(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return d.store.Set(ctx, key, data)
}
