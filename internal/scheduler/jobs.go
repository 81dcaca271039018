package scheduler

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/moodiary/internal/storage"
)

// DemoResetJobID identifies the demo reset job.
const DemoResetJobID = "demo_reset"

// Resetter is the part of the storage facade the demo reset needs.
type Resetter interface {
	ClearAllData(ctx context.Context, excludeUsername string) error
	SeedData(ctx context.Context) (storage.SeedResult, error)
}

// DemoReset wipes all non-admin data and seeds a fresh sample set.
func DemoReset(store Resetter) JobFunc {
	return func(ctx context.Context) error {
		if err := store.ClearAllData(ctx, ""); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
		res, err := store.SeedData(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
		log.Info("Demo data reset", "users", res.Users, "entries", res.Entries)
		return nil
	}
}

// RegisterDemoReset adds the demo reset job if schedule is not empty.
func (s *Scheduler) RegisterDemoReset(store Resetter, schedule string) error {
	if schedule == "" {
		log.Debug("Demo reset disabled")
		return nil
	}
	return s.AddCronJob(
		DemoResetJobID,
		"Demo reset",
		"Clears all entries and non-admin users, then seeds sample data",
		schedule,
		DemoReset(store),
		true,
	)
}
