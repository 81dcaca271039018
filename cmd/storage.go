package cmd

import (
	"context"
	"fmt"

	"github.com/jon4hz/moodiary/internal/config"
	"github.com/jon4hz/moodiary/internal/storage"
)

// openStorage loads the config and returns an initialized storage facade.
func openStorage(ctx context.Context) (*config.Config, *storage.Storage, error) {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := storage.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := st.InitStorage(ctx); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return cfg, st, nil
}
