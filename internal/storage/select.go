package storage

import (
	"github.com/charmbracelet/log"
	"github.com/jon4hz/moodiary/internal/config"
	"github.com/jon4hz/moodiary/internal/i18n"
	"github.com/jon4hz/moodiary/internal/kv"
	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
	"github.com/jon4hz/moodiary/internal/storage/local"
	"github.com/jon4hz/moodiary/internal/storage/remote"
)

// Select picks the backend for this process. The remote backend is used when
// url and key are configured and a client can be built. Otherwise the local
// key-value store is opened. Remote failures are logged, never returned.
func Select(cfg *config.Config) (driver.Backend, models.ConnectionType, error) {
	if cfg.Remote.Enabled() {
		backend, err := remote.Open(remote.Config{
			URL:     cfg.Remote.URL,
			Key:     cfg.Remote.Key,
			Timeout: cfg.Remote.Timeout,
		})
		if err == nil {
			log.Info("Using remote storage", "url", cfg.Remote.URL)
			return backend, models.ConnectionRemote, nil
		}
		log.Error("failed to create remote client, falling back to local storage", "error", err)
	} else {
		log.Info("Remote storage not configured, using local storage")
	}

	store, err := kv.Open(kv.Options{
		Kind:     cfg.Local.Store,
		Path:     cfg.Local.Path,
		RedisURL: cfg.Local.RedisURL,
	})
	if err != nil {
		return nil, "", err
	}
	log.Info("Using local storage", "store", store.Type(), "path", cfg.Local.Path)
	return local.New(store, local.Options{Seed: cfg.Local.SeedOnInit}), models.ConnectionLocal, nil
}

// Open selects a backend for cfg and wraps it in a Storage.
func Open(cfg *config.Config, opts ...Option) (*Storage, error) {
	backend, connType, err := Select(cfg)
	if err != nil {
		return nil, err
	}
	base := []Option{
		WithTranslator(i18n.New(cfg.GetLocale())),
		WithLocation(cfg.GetLocation()),
		WithSeed(cfg.GetSeedEntries(), cfg.GetSeedMaxAgeDays()),
	}
	return New(backend, connType, append(base, opts...)...), nil
}
