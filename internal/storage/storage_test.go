package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/idgen"
	"github.com/jon4hz/moodiary/internal/kv"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
	"github.com/jon4hz/moodiary/internal/storage/local"
	"github.com/jon4hz/moodiary/internal/storage/mock"
	"github.com/jon4hz/moodiary/internal/storage/remote"
	"github.com/jon4hz/moodiary/internal/storage/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type StorageTestSuite struct {
	suite.Suite
	newBackend func(t *testing.T) (driver.Backend, models.ConnectionType)
	storage    *Storage
	slot       *MemorySlot
	ctx        context.Context
}

func (s *StorageTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.slot = &MemorySlot{}
	backend, connType := s.newBackend(s.T())
	s.storage = New(backend, connType,
		WithIDGenerator(&idgen.Sequence{Prefix: "e-"}),
		WithClock(func() time.Time { return testNow }),
		WithLocation(time.UTC),
		WithRand(rand.New(rand.NewPCG(1, 2))),
		WithSeed(10, 30),
	)
}

func (s *StorageTestSuite) TearDownTest() {
	s.NoError(s.storage.Close())
}

// sameEntry compares entries by instant, SQL backends hand times back in another location.
func (s *StorageTestSuite) sameEntry(want, got models.DiaryEntry) {
	s.T().Helper()
	s.True(want.CreatedAt.Equal(got.CreatedAt), "createdAt %s != %s", want.CreatedAt, got.CreatedAt)
	want.CreatedAt, got.CreatedAt = time.Time{}, time.Time{}
	s.Equal(want, got)
}

func (s *StorageTestSuite) register(name string) models.User {
	res, err := s.storage.RegisterUser(s.ctx, name)
	s.Require().NoError(err)
	s.Require().True(res.Success)
	return res.User
}

func (s *StorageTestSuite) TestFirstRegistrationIsAdmin() {
	alice, err := s.storage.RegisterUser(s.ctx, "Alice")
	s.Require().NoError(err)
	s.True(alice.Success)
	s.True(alice.User.IsAdmin)
	s.Contains(models.Palette, alice.User.AvatarColor)
	s.Equal(s.storage.Translator().T(i18n.RegisterAdmin), alice.Message)

	bob, err := s.storage.RegisterUser(s.ctx, "Bob")
	s.Require().NoError(err)
	s.False(bob.User.IsAdmin)
	s.Equal(s.storage.Translator().T(i18n.RegisterSuccess), bob.Message)

	carol := s.register("Carol")
	s.False(carol.IsAdmin)
}

func (s *StorageTestSuite) TestDuplicateRegistration() {
	original := s.register("Alice")

	res, err := s.storage.RegisterUser(s.ctx, "Alice")
	s.ErrorIs(err, ErrDuplicateUsername)
	s.False(res.Success)
	s.Equal("Tên này đã có người dùng rồi!", res.Message)

	users := s.storage.GetUsers(s.ctx)
	s.Equal([]models.User{original}, users)
}

func (s *StorageTestSuite) TestRegisterTrimsAndRejectsEmpty() {
	u := s.register("  Alice ")
	s.Equal("Alice", u.Username)

	_, err := s.storage.RegisterUser(s.ctx, "   ")
	s.ErrorIs(err, ErrValidationEmpty)
}

func (s *StorageTestSuite) TestLogin() {
	s.register("Alice")

	user, err := s.storage.LoginUser(s.ctx, s.slot, "Alice")
	s.Require().NoError(err)
	s.Require().NotNil(user)
	s.Equal("Alice", user.Username)

	current := s.storage.CurrentUser(s.slot)
	s.Require().NotNil(current)
	s.Equal(*user, *current)
}

func (s *StorageTestSuite) TestLoginMissingKeepsSlot() {
	s.register("Alice")
	_, err := s.storage.LoginUser(s.ctx, s.slot, "Alice")
	s.Require().NoError(err)
	before, _ := s.slot.Load()

	user, err := s.storage.LoginUser(s.ctx, s.slot, "nonexistent")
	s.NoError(err)
	s.Nil(user)

	after, _ := s.slot.Load()
	s.Equal(before, after)
	s.Equal("Alice", s.storage.CurrentUser(s.slot).Username)
}

func (s *StorageTestSuite) TestLogout() {
	s.register("Alice")
	_, err := s.storage.LoginUser(s.ctx, s.slot, "Alice")
	s.Require().NoError(err)

	s.Require().NoError(s.storage.LogoutUser(s.slot))
	s.Nil(s.storage.CurrentUser(s.slot))
	s.Len(s.storage.GetUsers(s.ctx), 1)
}

func (s *StorageTestSuite) TestCurrentUserCorruptSlot() {
	s.Nil(s.storage.CurrentUser(s.slot))
	s.Require().NoError(s.slot.Save([]byte("{broken")))
	s.Nil(s.storage.CurrentUser(s.slot))
	s.Require().NoError(s.slot.Save([]byte(`{"isAdmin":true}`)))
	s.Nil(s.storage.CurrentUser(s.slot))
}

func (s *StorageTestSuite) TestAddEntryRoundTrip() {
	s.register("Bob")
	e, strategy := s.storage.NewEntry("Bob", "", "hi", models.MoodSunny, time.Time{})
	s.Equal(idgen.StrategyUUID, strategy)
	s.Equal("e-1", e.ID)
	s.Equal("Ngày 01/06/2024", e.Title)
	s.Equal(testNow, e.CreatedAt)

	s.Require().NoError(s.storage.AddEntry(s.ctx, e))

	entries := s.storage.GetEntries(s.ctx)
	s.Require().Len(entries, 1)
	s.sameEntry(e, entries[0])
}

func (s *StorageTestSuite) TestFindEntry() {
	s.register("Bob")
	e, _ := s.storage.NewEntry("Bob", "", "content", models.MoodRainy, testNow)
	s.Require().NoError(s.storage.AddEntry(s.ctx, e))

	got, err := s.storage.FindEntry(s.ctx, e.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.sameEntry(e, *got)

	got, err = s.storage.FindEntry(s.ctx, "missing")
	s.NoError(err)
	s.Nil(got)
}

func (s *StorageTestSuite) TestNewEntryDefaults() {
	created := time.Date(2023, 12, 31, 23, 30, 0, 0, time.UTC)
	e, _ := s.storage.NewEntry("Bob", "  Title  ", "text", "", created)
	s.Equal("Title", e.Title)
	s.Equal(models.DefaultMood, e.Mood)
	s.Equal(created, e.CreatedAt)

	tz := time.FixedZone("ICT", 7*60*60)
	st := New(nil, models.ConnectionLocal, WithLocation(tz), WithTranslator(i18n.New(i18n.English)))
	e, _ = st.NewEntry("Bob", "", "text", models.MoodLeaf, created)
	s.Equal("Day 01/01/2024", e.Title)
}

func (s *StorageTestSuite) TestUpdateEntryChangesOnlyPatchedFields() {
	s.register("Bob")
	e, _ := s.storage.NewEntry("Bob", "Old", "content", models.MoodRainy, testNow)
	s.Require().NoError(s.storage.AddEntry(s.ctx, e))

	title := "New"
	s.Require().NoError(s.storage.UpdateEntry(s.ctx, e.ID, models.EntryPatch{Title: &title}))

	got := s.storage.GetEntries(s.ctx)[0]
	s.Equal("New", got.Title)
	s.Equal(e.Content, got.Content)
	s.Equal(e.Mood, got.Mood)
	s.Equal(e.Username, got.Username)
	s.Equal(e.ID, got.ID)
	s.True(e.CreatedAt.Equal(got.CreatedAt))

	err := s.storage.UpdateEntry(s.ctx, "missing", models.EntryPatch{Title: &title})
	s.ErrorIs(err, ErrNotFound)
	var storageErr *Error
	s.Require().ErrorAs(err, &storageErr)
	s.Equal("Không tìm thấy trang nhật ký này!", storageErr.Message)
}

func (s *StorageTestSuite) TestDeleteEntryIdempotent() {
	s.register("Bob")
	e, _ := s.storage.NewEntry("Bob", "", "content", models.MoodRainy, testNow)
	s.Require().NoError(s.storage.AddEntry(s.ctx, e))

	s.Require().NoError(s.storage.DeleteEntry(s.ctx, e.ID))
	for _, got := range s.storage.GetEntries(s.ctx) {
		s.NotEqual(e.ID, got.ID)
	}
	s.NoError(s.storage.DeleteEntry(s.ctx, e.ID))
}

func (s *StorageTestSuite) TestClearScenario() {
	alice := s.register("Alice")
	s.True(alice.IsAdmin)
	bob := s.register("Bob")
	s.False(bob.IsAdmin)

	e, _ := s.storage.NewEntry(bob.Username, "", "hi", models.MoodSunny, time.Time{})
	s.Require().NoError(s.storage.AddEntry(s.ctx, e))

	s.Require().NoError(s.storage.ClearAllData(s.ctx, "Bob"))

	s.Equal([]models.User{alice}, s.storage.GetUsers(s.ctx))
	s.Empty(s.storage.GetEntries(s.ctx))
}

func (s *StorageTestSuite) TestSeedData() {
	s.register("Alice")
	s.register(sample.Roster[0].Username)

	res, err := s.storage.SeedData(s.ctx)
	s.Require().NoError(err)
	s.Equal(len(sample.Roster)-1, res.Users)
	s.Equal(10, res.Entries)

	users := s.storage.GetUsers(s.ctx)
	s.Len(users, len(sample.Roster)+1)
	for _, u := range users {
		if u.Username != "Alice" {
			s.False(u.IsAdmin, u.Username)
		}
	}

	entries := s.storage.GetEntries(s.ctx)
	s.Len(entries, 10)
	for _, e := range entries {
		s.True(strings.HasPrefix(e.Content, "[Mẫu] "), e.Content)
		s.True(e.CreatedAt.After(testNow.AddDate(0, 0, -31)))
	}

	// a second run only adds entries
	res, err = s.storage.SeedData(s.ctx)
	s.Require().NoError(err)
	s.Zero(res.Users)
	s.Len(s.storage.GetEntries(s.ctx), 20)
}

func (s *StorageTestSuite) TestStats() {
	s.register("Alice")
	s.register("Bob")
	e, _ := s.storage.NewEntry("Bob", "", "hi", models.MoodSunny, time.Time{})
	s.Require().NoError(s.storage.AddEntry(s.ctx, e))

	stats := s.storage.Stats(s.ctx)
	s.Equal(2, stats.Users)
	s.Equal(1, stats.Admins)
	s.Equal(1, stats.Entries)
	s.Equal(map[models.Mood]int{models.MoodSunny: 1}, stats.ByMood)
}

func TestStorageTestSuite(t *testing.T) {
	suite.Run(t, &StorageTestSuite{newBackend: func(*testing.T) (driver.Backend, models.ConnectionType) {
		return local.New(kv.NewMemory(), local.Options{IDs: &idgen.Sequence{Prefix: "l-"}}), models.ConnectionLocal
	}})
}

func TestStorageBadgerTestSuite(t *testing.T) {
	suite.Run(t, &StorageTestSuite{newBackend: func(t *testing.T) (driver.Backend, models.ConnectionType) {
		store, err := kv.NewBadger(t.TempDir())
		require.NoError(t, err)
		return local.New(store, local.Options{}), models.ConnectionLocal
	}})
}

func TestStorageRedisTestSuite(t *testing.T) {
	suite.Run(t, &StorageTestSuite{newBackend: func(t *testing.T) (driver.Backend, models.ConnectionType) {
		store, err := kv.NewRedis(miniredis.RunT(t).Addr())
		require.NoError(t, err)
		return local.New(store, local.Options{}), models.ConnectionLocal
	}})
}

func TestStorageSQLiteTestSuite(t *testing.T) {
	suite.Run(t, &StorageTestSuite{newBackend: func(t *testing.T) (driver.Backend, models.ConnectionType) {
		path := filepath.Join(t.TempDir(), "moodiary.db")
		d, err := remote.NewSQL(remote.DialectSQLite, remote.Config{URL: "sqlite://" + path})
		require.NoError(t, err)
		require.NoError(t, d.Migrate(context.Background()))
		return d, models.ConnectionRemote
	}})
}

func TestStatsStoreSize(t *testing.T) {
	ctx := context.Background()

	st := New(local.New(sizedStore{Store: kv.NewMemory()}, local.Options{}), models.ConnectionLocal)
	store, ok := st.LocalStore()
	require.True(t, ok)
	assert.Equal(t, "memory", store.Type())
	stats := st.Stats(ctx)
	require.NotNil(t, stats.StoreSize)
	assert.EqualValues(t, 3*1000*1000, *stats.StoreSize)
	assert.Equal(t, "3.0 MB", stats.HumanStoreSize())

	st = New(local.New(kv.NewMemory(), local.Options{}), models.ConnectionLocal)
	assert.Nil(t, st.Stats(ctx).StoreSize)
	assert.Empty(t, st.Stats(ctx).HumanStoreSize())

	st = New(mock.NewMockBackend(), models.ConnectionRemote)
	_, ok = st.LocalStore()
	assert.False(t, ok)
	assert.Nil(t, st.Stats(ctx).StoreSize)
}

type sizedStore struct {
	kv.Store
}

func (sizedStore) Size() (lsm, vlog int64) {
	return 1000 * 1000, 2 * 1000 * 1000
}

func TestInitStorageIdempotent(t *testing.T) {
	ctx := context.Background()
	backend := local.New(kv.NewMemory(), local.Options{Seed: true})
	st := New(backend, models.ConnectionLocal)

	require.NoError(t, st.InitStorage(ctx))
	first := len(st.GetUsers(ctx))
	assert.Positive(t, first)

	require.NoError(t, st.InitStorage(ctx))
	assert.Len(t, st.GetUsers(ctx), first)
}

func TestInitStorageRemoteIsNoop(t *testing.T) {
	backend := mock.NewMockBackend()
	st := New(backend, models.ConnectionRemote)
	require.NoError(t, st.InitStorage(context.Background()))
	assert.Zero(t, backend.InitCalls)

	st = New(backend, models.ConnectionLocal)
	backend.InitError = errors.New("no space left")
	assert.ErrorIs(t, st.InitStorage(context.Background()), ErrBackend)
	assert.Equal(t, 1, backend.InitCalls)
}

func TestReadsDegradeToEmpty(t *testing.T) {
	ctx := context.Background()
	backend := mock.NewMockBackend()
	backend.ListUsersError = errors.New("connection refused")
	backend.ListEntriesError = errors.New("connection refused")
	backend.GetUserError = errors.New("connection refused")
	st := New(backend, models.ConnectionRemote)

	users := st.GetUsers(ctx)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	entries := st.GetEntries(ctx)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	slot := &MemorySlot{}
	user, err := st.LoginUser(ctx, slot, "Alice")
	assert.NoError(t, err)
	assert.Nil(t, user)
	_, ok := slot.Load()
	assert.False(t, ok)
}

func TestFindEntryReportsBackendError(t *testing.T) {
	backend := mock.NewMockBackend()
	backend.ListEntriesError = errors.New("connection refused")
	st := New(backend, models.ConnectionRemote)

	entry, err := st.FindEntry(context.Background(), "1")
	assert.Nil(t, entry)
	assert.ErrorIs(t, err, ErrBackend)
}

func TestWritesSurfaceMessage(t *testing.T) {
	ctx := context.Background()
	backend := mock.NewMockBackend()
	st := New(backend, models.ConnectionRemote)

	backend.CreateUserError = errors.New("timeout")
	res, err := st.RegisterUser(ctx, "Alice")
	assert.ErrorIs(t, err, ErrBackend)
	assert.False(t, res.Success)
	assert.Equal(t, "Lỗi kết nối server: timeout", res.Message)
	assert.Equal(t, res.Message, err.Error())

	backend.AddEntriesError = errors.New("timeout")
	err = st.AddEntry(ctx, models.DiaryEntry{ID: "1"})
	assert.ErrorIs(t, err, ErrBackend)

	backend.DeleteAllEntriesError = errors.New("timeout")
	assert.ErrorIs(t, st.ClearAllData(ctx, ""), ErrBackend)

	backend.Reset()
	backend.UpdateEntryError = errors.New("timeout")
	assert.ErrorIs(t, st.UpdateEntry(ctx, "1", models.EntryPatch{}), ErrBackend)
}

func TestRegisterRaceMapsDuplicate(t *testing.T) {
	backend := mock.NewMockBackend()
	st := New(backend, models.ConnectionRemote)

	// the lookup misses but another client inserted the name in between
	backend.CreateUserError = fmt.Errorf("insert: %w", driver.ErrDuplicate)
	res, err := st.RegisterUser(context.Background(), "Alice")
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.False(t, res.Success)
}

func TestFallbackIDIsReported(t *testing.T) {
	st := New(nil, models.ConnectionLocal, WithIDGenerator(fixedGenerator{id: "f-1", strategy: idgen.StrategyFallback}))
	e, strategy := st.NewEntry("Bob", "x", "y", models.MoodSunny, testNow)
	assert.Equal(t, idgen.StrategyFallback, strategy)
	assert.Equal(t, "f-1", e.ID)
}

type fixedGenerator struct {
	id       string
	strategy idgen.Strategy
}

func (g fixedGenerator) NewID() (string, idgen.Strategy) {
	return g.id, g.strategy
}

func TestFailedReadsAreLoggedOnce(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rest, err := remote.NewREST(remote.Config{URL: srv.URL, Key: "anon-key"})
	require.NoError(t, err)
	sql, err := remote.NewSQL(remote.DialectSQLite, remote.Config{URL: "sqlite://" + filepath.Join(t.TempDir(), "closed.db")})
	require.NoError(t, err)
	require.NoError(t, sql.Close())

	backends := map[string]driver.Backend{"rest": rest, "sql": sql}
	for name, backend := range backends {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			st := New(backend, models.ConnectionRemote)
			assert.Empty(t, st.GetUsers(ctx))
			assert.Nil(t, st.GetUser(ctx, "alice"))
			assert.Empty(t, st.GetEntries(ctx))

			out := buf.String()
			assert.Equal(t, 1, strings.Count(out, "failed to get users"), out)
			assert.Equal(t, 1, strings.Count(out, "failed to get user by username"), out)
			assert.Equal(t, 1, strings.Count(out, "failed to get entries"), out)
		})
	}
}
