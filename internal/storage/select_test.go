package storage

import (
	"testing"
	"time"

	"github.com/jon4hz/moodiary/internal/config"
	"github.com/jon4hz/moodiary/internal/kv"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/local"
	"github.com/jon4hz/moodiary/internal/storage/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url, key string) *config.Config {
	return &config.Config{
		Locale:   "en",
		Timezone: "UTC",
		Remote:   &config.RemoteConfig{URL: url, Key: key, Timeout: time.Second},
		Local:    &config.LocalConfig{Store: kv.KindMemory},
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		url  string
		key  string
		want models.ConnectionType
	}{
		{"nothing configured", "", "", models.ConnectionLocal},
		{"url without key", "https://abc.supabase.co", "", models.ConnectionLocal},
		{"key without url", "", "anon", models.ConnectionLocal},
		{"invalid url", "::not a url", "anon", models.ConnectionLocal},
		{"unsupported scheme", "gopher://abc", "anon", models.ConnectionLocal},
		{"rest endpoint", "https://abc.supabase.co", "anon", models.ConnectionRemote},
		{"sql endpoint", "postgres://diary@127.0.0.1:1/diary", "secret", models.ConnectionRemote},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, connType, err := Select(testConfig(tt.url, tt.key))
			require.NoError(t, err)
			defer backend.Close()
			assert.Equal(t, tt.want, connType)

			switch connType {
			case models.ConnectionLocal:
				assert.IsType(t, &local.Driver{}, backend)
			case models.ConnectionRemote:
				assert.NotNil(t, backend)
			}
		})
	}
}

func TestSelectRESTDriver(t *testing.T) {
	backend, _, err := Select(testConfig("https://abc.supabase.co", "anon"))
	require.NoError(t, err)
	assert.IsType(t, &remote.RESTDriver{}, backend)
}

func TestSelectLocalStoreFailure(t *testing.T) {
	cfg := testConfig("", "")
	cfg.Local.Store = kv.KindRedis
	_, _, err := Select(cfg)
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	cfg := testConfig("", "")
	st, err := Open(cfg)
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, models.ConnectionLocal, st.ConnectionType())
	assert.Equal(t, "UTC", st.Location().String())

	e, _ := st.NewEntry("Bob", "", "hi", models.MoodSunny, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC))
	assert.Equal(t, "Day 03/02/2024", e.Title)
}
