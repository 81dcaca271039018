package remote

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
	"github.com/stretchr/testify/suite"
)

type SQLDriverTestSuite struct {
	suite.Suite
	driver *SQLDriver
	ctx    context.Context
}

func (s *SQLDriverTestSuite) SetupTest() {
	s.ctx = context.Background()
	path := filepath.Join(s.T().TempDir(), "moodiary.db")
	d, err := NewSQL(DialectSQLite, Config{URL: "sqlite://" + path, Key: "unused"})
	s.Require().NoError(err)
	s.Require().NoError(d.Migrate(s.ctx))
	s.driver = d
}

func (s *SQLDriverTestSuite) TearDownTest() {
	s.NoError(s.driver.Close())
}

func (s *SQLDriverTestSuite) entry(id, user string, created time.Time) models.DiaryEntry {
	return models.DiaryEntry{
		ID:        id,
		Username:  user,
		Title:     "title " + id,
		Content:   "content " + id,
		Mood:      models.MoodSunny,
		CreatedAt: created,
	}
}

func (s *SQLDriverTestSuite) TestMigrateIsRepeatable() {
	s.NoError(s.driver.Migrate(s.ctx))
	version, err := s.driver.MigrationVersion(s.ctx)
	s.NoError(err)
	s.EqualValues(1, version)
}

func (s *SQLDriverTestSuite) TestUsers() {
	count, err := s.driver.CountUsers(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	s.Require().NoError(s.driver.CreateUser(s.ctx, models.User{Username: "alice", IsAdmin: true, AvatarColor: "bg-red-100"}))
	s.Require().NoError(s.driver.CreateUser(s.ctx, models.User{Username: "bob", AvatarColor: "bg-sky-100"}))

	err = s.driver.CreateUser(s.ctx, models.User{Username: "bob"})
	s.ErrorIs(err, driver.ErrDuplicate)

	u, err := s.driver.GetUser(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NotNil(u)
	s.True(u.IsAdmin)
	s.Equal("bg-red-100", u.AvatarColor)

	u, err = s.driver.GetUser(s.ctx, "carol")
	s.NoError(err)
	s.Nil(u)

	count, err = s.driver.CountUsers(s.ctx)
	s.NoError(err)
	s.EqualValues(2, count)

	s.Require().NoError(s.driver.DeleteNonAdminUsers(s.ctx))
	users, err := s.driver.ListUsers(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(users, 1)
	s.Equal("alice", users[0].Username)
}

func (s *SQLDriverTestSuite) TestEntries() {
	s.Require().NoError(s.driver.CreateUser(s.ctx, models.User{Username: "bob"}))
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.driver.AddEntries(s.ctx,
		s.entry("a", "bob", base.Add(-2*time.Hour)),
		s.entry("b", "bob", base),
	))
	s.Require().NoError(s.driver.AddEntries(s.ctx, s.entry("c", "bob", base.Add(-time.Hour))))

	entries, err := s.driver.ListEntries(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal([]string{"b", "c", "a"}, []string{entries[0].ID, entries[1].ID, entries[2].ID})
	s.True(entries[0].CreatedAt.Equal(base))

	title := "New"
	s.Require().NoError(s.driver.UpdateEntry(s.ctx, "a", models.EntryPatch{Title: &title}))
	s.ErrorIs(s.driver.UpdateEntry(s.ctx, "zzz", models.EntryPatch{Title: &title}), driver.ErrNotFound)
	s.NoError(s.driver.UpdateEntry(s.ctx, "a", models.EntryPatch{}))

	entries, err = s.driver.ListEntries(s.ctx)
	s.Require().NoError(err)
	updated := entries[2]
	s.Equal("a", updated.ID)
	s.Equal("New", updated.Title)
	s.Equal("content a", updated.Content)
	s.Equal(models.MoodSunny, updated.Mood)
	s.Equal("bob", updated.Username)

	s.Require().NoError(s.driver.DeleteEntry(s.ctx, "a"))
	s.Require().NoError(s.driver.DeleteEntry(s.ctx, "a"))

	s.Require().NoError(s.driver.DeleteAllEntries(s.ctx))
	entries, err = s.driver.ListEntries(s.ctx)
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *SQLDriverTestSuite) TestEntriesOrderedAcrossOffsets() {
	s.Require().NoError(s.driver.CreateUser(s.ctx, models.User{Username: "bob"}))
	bangkok := time.FixedZone("ICT", 7*60*60)

	// 10:00 in Bangkok is 03:00 UTC, two hours before b
	a := s.entry("a", "bob", time.Date(2024, 6, 1, 10, 0, 0, 0, bangkok))
	b := s.entry("b", "bob", time.Date(2024, 6, 1, 5, 0, 0, 0, time.UTC))
	s.Require().NoError(s.driver.AddEntries(s.ctx, a, b))

	entries, err := s.driver.ListEntries(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal([]string{"b", "a"}, []string{entries[0].ID, entries[1].ID})
	s.True(entries[1].CreatedAt.Equal(a.CreatedAt))

	// moving b back to 11:00 Bangkok time puts it at 04:00 UTC, still after a
	moved := time.Date(2024, 6, 1, 11, 0, 0, 0, bangkok)
	s.Require().NoError(s.driver.UpdateEntry(s.ctx, "b", models.EntryPatch{CreatedAt: &moved}))
	entries, err = s.driver.ListEntries(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"b", "a"}, []string{entries[0].ID, entries[1].ID})

	early := time.Date(2024, 6, 1, 2, 0, 0, 0, time.UTC)
	s.Require().NoError(s.driver.UpdateEntry(s.ctx, "b", models.EntryPatch{CreatedAt: &early}))
	entries, err = s.driver.ListEntries(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{"a", "b"}, []string{entries[0].ID, entries[1].ID})
}

func (s *SQLDriverTestSuite) TestDeletingUsersCascadesToEntries() {
	s.Require().NoError(s.driver.CreateUser(s.ctx, models.User{Username: "alice", IsAdmin: true}))
	s.Require().NoError(s.driver.CreateUser(s.ctx, models.User{Username: "bob"}))
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s.Require().NoError(s.driver.AddEntries(s.ctx,
		s.entry("a", "alice", base),
		s.entry("b", "bob", base.Add(time.Hour)),
	))

	s.Require().NoError(s.driver.DeleteNonAdminUsers(s.ctx))

	entries, err := s.driver.ListEntries(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("a", entries[0].ID)
}

func (s *SQLDriverTestSuite) TestEntryNeedsExistingAuthor() {
	err := s.driver.AddEntries(s.ctx, s.entry("a", "ghost", time.Now()))
	s.Error(err)
}

func TestSQLDriverTestSuite(t *testing.T) {
	suite.Run(t, new(SQLDriverTestSuite))
}
