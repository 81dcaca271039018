package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/moodiary/internal/api"
	"github.com/jon4hz/moodiary/internal/scheduler"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the moodiary server",
	Long:  `Start the moodiary API server. The storage backend is selected once at startup.`,
	Example: `moodiary serve --config config.yml
moodiary serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, st, err := openStorage(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if cfg.SessionKey == "" {
		return errors.New("session_key is required to serve, set it in the config or MOODIARY_SESSION_KEY")
	}

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	if err := sched.RegisterDemoReset(st, cfg.GetResetSchedule()); err != nil {
		return err
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			log.Error("failed to stop scheduler", "error", err)
		}
	}()

	debug := log.GetLevel() == log.DebugLevel
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	server, err := api.New(cfg, st, sched, debug)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run(ctx)
	}()

	// Wait for interrupt signal to gracefully shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	log.Info("moodiary started successfully", "connection", st.ConnectionType())
	select {
	case <-c:
		log.Info("shutting down gracefully...")
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}
