package kv

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type StoreTestSuite struct {
	suite.Suite
	newStore func(t *testing.T) Store
	store    Store
	ctx      context.Context
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore(s.T())
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.store.Close())
}

func (s *StoreTestSuite) TestMissingKey() {
	data, err := s.store.Get(s.ctx, "missing")
	s.NoError(err)
	s.Nil(data)
}

func (s *StoreTestSuite) TestSetGetOverwrite() {
	s.Require().NoError(s.store.Set(s.ctx, "diary_users", []byte(`[]`)))
	data, err := s.store.Get(s.ctx, "diary_users")
	s.Require().NoError(err)
	s.Equal([]byte(`[]`), data)

	s.Require().NoError(s.store.Set(s.ctx, "diary_users", []byte(`[{"username":"a"}]`)))
	data, err = s.store.Get(s.ctx, "diary_users")
	s.Require().NoError(err)
	s.Equal([]byte(`[{"username":"a"}]`), data)
}

func (s *StoreTestSuite) TestDelete() {
	s.Require().NoError(s.store.Set(s.ctx, "k", []byte("v")))
	s.Require().NoError(s.store.Delete(s.ctx, "k"))

	data, err := s.store.Get(s.ctx, "k")
	s.NoError(err)
	s.Nil(data)

	s.NoError(s.store.Delete(s.ctx, "k"))
}

func TestMemoryStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(*testing.T) Store { return NewMemory() }})
}

func TestBadgerStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) Store {
		s, err := NewBadger(t.TempDir())
		require.NoError(t, err)
		return s
	}})
}

func TestRedisStore(t *testing.T) {
	suite.Run(t, &StoreTestSuite{newStore: func(t *testing.T) Store {
		s, err := NewRedis(miniredis.RunT(t).Addr())
		require.NoError(t, err)
		return s
	}})
}

func TestRedisStoresRawBytes(t *testing.T) {
	srv := miniredis.RunT(t)
	ctx := context.Background()

	s, err := NewRedis(srv.Addr())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, "diary_users", []byte(`[{"username":"Alice"}]`)))

	raw, err := srv.Get("diary_users")
	require.NoError(t, err)
	assert.Equal(t, `[{"username":"Alice"}]`, raw)

	data, err := s.Get(ctx, "diary_users")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"username":"Alice"}]`), data)
}

func TestBadgerPersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewBadger(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "diary_entries", []byte("[1]")))
	require.NoError(t, s.Close())

	s, err = NewBadger(dir)
	require.NoError(t, err)
	defer s.Close()

	data, err := s.Get(ctx, "diary_entries")
	require.NoError(t, err)
	assert.Equal(t, []byte("[1]"), data)
}

func TestOpen(t *testing.T) {
	s, err := Open(Options{Kind: KindMemory})
	require.NoError(t, err)
	assert.NotEmpty(t, s.Type())
	require.NoError(t, s.Close())

	s, err = Open(Options{Kind: KindBadger})
	require.NoError(t, err)
	assert.Equal(t, "badger", s.Type())
	require.NoError(t, s.Close())

	_, err = Open(Options{Kind: KindRedis})
	assert.Error(t, err)

	_, err = Open(Options{Kind: "etcd"})
	assert.Error(t, err)
}
