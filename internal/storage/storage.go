// Package storage is the single entry point to persisted users and diary entries.
// A Storage holds exactly one backend, chosen once when it is built.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/idgen"
	"github.com/jon4hz/moodiary/internal/kv"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
	"github.com/jon4hz/moodiary/internal/storage/sample"
	"github.com/samber/lo"
)

// Storage is the facade the rest of the application talks to.
type Storage struct {
	backend  driver.Backend
	connType models.ConnectionType

	ids        idgen.Generator
	tr         *i18n.Translator
	now        func() time.Time
	loc        *time.Location
	seedCount  int
	seedMaxAge int

	randMu sync.Mutex
	rand   *rand.Rand
}

// Option configures a Storage.
type Option func(*Storage)

func WithIDGenerator(ids idgen.Generator) Option {
	return func(s *Storage) { s.ids = ids }
}

func WithTranslator(tr *i18n.Translator) Option {
	return func(s *Storage) { s.tr = tr }
}

func WithClock(now func() time.Time) Option {
	return func(s *Storage) { s.now = now }
}

// WithLocation sets the timezone default titles are rendered in.
func WithLocation(loc *time.Location) Option {
	return func(s *Storage) { s.loc = loc }
}

func WithRand(r *rand.Rand) Option {
	return func(s *Storage) { s.rand = r }
}

// WithSeed sets how many entries SeedData creates and how far back they are dated.
func WithSeed(entries, maxAgeDays int) Option {
	return func(s *Storage) {
		s.seedCount = entries
		s.seedMaxAge = maxAgeDays
	}
}

// New returns a facade over backend.
func New(backend driver.Backend, connType models.ConnectionType, opts ...Option) *Storage {
	s := &Storage{
		backend:    backend,
		connType:   connType,
		ids:        idgen.NewRandom(),
		tr:         i18n.New(i18n.DefaultLocale),
		now:        time.Now,
		loc:        time.Local,
		seedCount:  20,
		seedMaxAge: 60,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ConnectionType reports which backend serves this process.
func (s *Storage) ConnectionType() models.ConnectionType {
	return s.connType
}

// Translator returns the message catalog used for results and errors.
func (s *Storage) Translator() *i18n.Translator {
	return s.tr
}

// Location returns the timezone used for calendar days.
func (s *Storage) Location() *time.Location {
	return s.loc
}

// Now returns the current time of the storage clock.
func (s *Storage) Now() time.Time {
	return s.now()
}

// LocalStore returns the key-value store of a local backend.
func (s *Storage) LocalStore() (kv.Store, bool) {
	d, ok := s.backend.(interface{ Store() kv.Store })
	if !ok {
		return nil, false
	}
	return d.Store(), true
}

func (s *Storage) Close() error {
	return s.backend.Close()
}

// InitStorage prepares the backend. Calling it again is harmless.
func (s *Storage) InitStorage(ctx context.Context) error {
	if s.connType == models.ConnectionRemote {
		return nil
	}
	if err := s.backend.Init(ctx); err != nil {
		return s.backendError(err)
	}
	return nil
}

// GetUsers returns all users. Backend failures are logged and yield an empty list.
func (s *Storage) GetUsers(ctx context.Context) []models.User {
	users, err := s.backend.ListUsers(ctx)
	if err != nil {
		log.Error("failed to get users", "error", err)
		return []models.User{}
	}
	if users == nil {
		return []models.User{}
	}
	return users
}

// RegisterResult is the outcome of a registration attempt.
type RegisterResult struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

// RegisterUser creates a user. The first user ever registered becomes admin.
func (s *Storage) RegisterUser(ctx context.Context, username string) (RegisterResult, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return s.failed(&Error{Kind: ErrValidationEmpty, Message: s.tr.T(i18n.UsernameEmpty)})
	}

	existing, err := s.backend.GetUser(ctx, username)
	if err != nil {
		return s.failed(s.backendError(err))
	}
	if existing != nil {
		return s.failed(s.duplicateError(username))
	}

	count, err := s.backend.CountUsers(ctx)
	if err != nil {
		return s.failed(s.backendError(err))
	}

	user := models.User{
		Username:    username,
		IsAdmin:     count == 0,
		AvatarColor: s.avatarColor(),
	}
	if err := s.backend.CreateUser(ctx, user); err != nil {
		if errors.Is(err, driver.ErrDuplicate) {
			return s.failed(s.duplicateError(username))
		}
		return s.failed(s.backendError(err))
	}

	msg := s.tr.T(i18n.RegisterSuccess)
	if user.IsAdmin {
		msg = s.tr.T(i18n.RegisterAdmin)
	}
	log.Info("Registered user", "username", user.Username, "admin", user.IsAdmin)
	return RegisterResult{Success: true, Message: msg, User: user}, nil
}

func (s *Storage) failed(err *Error) (RegisterResult, error) {
	return RegisterResult{Success: false, Message: err.Message}, err
}

func (s *Storage) duplicateError(username string) *Error {
	return &Error{
		Kind:    ErrDuplicateUsername,
		Message: s.tr.T(i18n.DuplicateUsername),
		Err:     fmt.Errorf("username %s", username),
	}
}

// GetUser looks up a user by exact name. Misses and failures yield nil.
func (s *Storage) GetUser(ctx context.Context, username string) *models.User {
	user, err := s.backend.GetUser(ctx, username)
	if err != nil {
		log.Error("failed to get user by username", "error", err)
		return nil
	}
	return user
}

// LoginUser stores the user named username in slot and returns it.
// Unknown users return nil and leave the slot as it was.
func (s *Storage) LoginUser(ctx context.Context, slot SessionSlot, username string) (*models.User, error) {
	user := s.GetUser(ctx, username)
	if user == nil {
		return nil, nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := slot.Save(data); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return user, nil
}

// GetEntries returns all entries. Backend failures are logged and yield an empty list.
func (s *Storage) GetEntries(ctx context.Context) []models.DiaryEntry {
	entries, err := s.backend.ListEntries(ctx)
	if err != nil {
		log.Error("failed to get entries", "error", err)
		return []models.DiaryEntry{}
	}
	if entries == nil {
		return []models.DiaryEntry{}
	}
	return entries
}

// FindEntry returns the entry with id, or nil if there is none.
// Unlike GetEntries it reports backend failures.
func (s *Storage) FindEntry(ctx context.Context, id string) (*models.DiaryEntry, error) {
	entries, err := s.backend.ListEntries(ctx)
	if err != nil {
		return nil, s.backendError(err)
	}
	entry, ok := lo.Find(entries, func(e models.DiaryEntry) bool { return e.ID == id })
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// NewEntry builds an entry with a fresh id. A blank title is replaced by the
// localized date title and a zero date by the current time.
func (s *Storage) NewEntry(author, title, content string, mood models.Mood, createdAt time.Time) (models.DiaryEntry, idgen.Strategy) {
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = s.tr.DefaultTitle(createdAt.In(s.loc))
	}
	if mood == "" {
		mood = models.DefaultMood
	}
	id, strategy := s.ids.NewID()
	if strategy == idgen.StrategyFallback {
		log.Warn("Secure id generation failed, using fallback id", "id", id)
	}
	return models.DiaryEntry{
		ID:        id,
		Username:  author,
		Title:     title,
		Content:   content,
		Mood:      mood,
		CreatedAt: createdAt,
	}, strategy
}

// AddEntry stores a fully formed entry.
func (s *Storage) AddEntry(ctx context.Context, entry models.DiaryEntry) error {
	if err := s.backend.AddEntries(ctx, entry); err != nil {
		return s.backendError(err)
	}
	return nil
}

// UpdateEntry changes the set fields of patch on the entry with id.
func (s *Storage) UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) error {
	if err := s.backend.UpdateEntry(ctx, id, patch); err != nil {
		if errors.Is(err, driver.ErrNotFound) {
			return &Error{Kind: ErrNotFound, Message: s.tr.T(i18n.EntryNotFound), Err: err}
		}
		return s.backendError(err)
	}
	return nil
}

// DeleteEntry removes the entry with id. Unknown ids are not an error.
func (s *Storage) DeleteEntry(ctx context.Context, id string) error {
	if err := s.backend.DeleteEntry(ctx, id); err != nil {
		return s.backendError(err)
	}
	return nil
}

// ClearAllData deletes every entry and every non-admin user.
// Admins are always kept, excludeUsername does not change that.
func (s *Storage) ClearAllData(ctx context.Context, excludeUsername string) error {
	if excludeUsername != "" {
		log.Debug("Clearing data, admins are kept regardless of exclusion", "exclude", excludeUsername)
	}
	if err := s.backend.DeleteAllEntries(ctx); err != nil {
		return s.backendError(err)
	}
	if err := s.backend.DeleteNonAdminUsers(ctx); err != nil {
		return s.backendError(err)
	}
	log.Info("Cleared all diary data")
	return nil
}

// SeedResult counts what SeedData created.
type SeedResult struct {
	Users   int `json:"users"`
	Entries int `json:"entries"`
}

// SeedData makes sure the sample roster exists and adds a batch of sample entries.
func (s *Storage) SeedData(ctx context.Context) (SeedResult, error) {
	var result SeedResult
	for _, u := range sample.Roster {
		existing, err := s.backend.GetUser(ctx, u.Username)
		if err != nil {
			return result, s.backendError(err)
		}
		if existing != nil {
			continue
		}
		user := models.User{Username: u.Username, AvatarColor: s.avatarColor()}
		if err := s.backend.CreateUser(ctx, user); err != nil {
			if errors.Is(err, driver.ErrDuplicate) {
				continue
			}
			return result, s.backendError(err)
		}
		result.Users++
	}

	s.randMu.Lock()
	entries := sample.Generator{
		IDs:        s.ids,
		Rand:       s.rand,
		Now:        s.now(),
		MaxAgeDays: s.seedMaxAge,
		Prefix:     s.tr.T(i18n.SamplePrefix),
	}.Entries(s.seedCount, sample.RosterNames())
	s.randMu.Unlock()

	if err := s.backend.AddEntries(ctx, entries...); err != nil {
		return result, s.backendError(err)
	}
	result.Entries = len(entries)
	log.Info("Seeded sample data", "users", result.Users, "entries", result.Entries)
	return result, nil
}

// Stats summarizes the stored data.
type Stats struct {
	Users   int                 `json:"users"`
	Admins  int                 `json:"admins"`
	Entries int                 `json:"entries"`
	ByMood  map[models.Mood]int `json:"byMood"`
	// StoreSize is the size on disk of the local store in bytes, nil if unknown.
	StoreSize *int64 `json:"storeSize,omitempty"`
}

// Stats counts users and entries. Like all reads it degrades to zero values.
func (s *Storage) Stats(ctx context.Context) Stats {
	users := s.GetUsers(ctx)
	entries := s.GetEntries(ctx)
	stats := Stats{
		Users:   len(users),
		Admins:  lo.CountBy(users, func(u models.User) bool { return u.IsAdmin }),
		Entries: len(entries),
		ByMood:  lo.CountValuesBy(entries, func(e models.DiaryEntry) models.Mood { return e.Mood }),
	}
	if store, ok := s.LocalStore(); ok {
		if sizer, ok := store.(kv.Sizer); ok {
			lsm, vlog := sizer.Size()
			stats.StoreSize = lo.ToPtr(lsm + vlog)
		}
	}
	return stats
}

// HumanStoreSize formats StoreSize for display, empty if it is unknown.
func (st Stats) HumanStoreSize() string {
	if st.StoreSize == nil {
		return ""
	}
	size, err := safecast.Convert[uint64](*st.StoreSize)
	if err != nil {
		return ""
	}
	return humanize.Bytes(size)
}

func (s *Storage) avatarColor() string {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return models.RandomAvatarColor(s.rand)
}

func (s *Storage) backendError(err error) *Error {
	return &Error{Kind: ErrBackend, Message: s.tr.ServerError(err), Err: err}
}
