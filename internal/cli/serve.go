package cli

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-analyzer/internal/api/http"
	"github.com/i474232898/weather-analyzer/internal/config"
	"github.com/i474232898/weather-analyzer/internal/scheduler"
	"github.com/i474232898/weather-analyzer/internal/weather"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Migrate bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline on a schedule and serve the HTTP API",
		Long: `Start the scheduler (every SCHEDULE_INTERVAL, or daily at SCHEDULE_AT UTC)
and the HTTP API on PORT until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply the schema before starting")

	return cmd
}

// NewApp builds the Fiber app with the API routes.
func NewApp(reader weather.Reader, trigger httpapi.RunTrigger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-analyzer",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, reader, trigger)
	return app
}

// newScheduler bounds each run by RUN_TIMEOUT, independent of the trigger mode.
func newScheduler(cfg *config.AppConfig, runner *scheduler.Runner, log *slog.Logger) *scheduler.Scheduler {
	return scheduler.New(runner, cfg.ScheduleInterval, cfg.ScheduleAt, cfg.RunTimeout, log)
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := loadConfig(opts.RootOptions, false)
	if err != nil {
		return err
	}
	log := newLogger(cfg, opts.RootOptions, cmd.ErrOrStderr())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newSQLStore(cfg, log)
	if err != nil {
		return err
	}
	if err := migrate(ctx, st, opts.Migrate, log); err != nil {
		return err
	}

	cities, stopWatch, err := citySource(cfg, log)
	if err != nil {
		return err
	}
	defer stopWatch()

	runner := scheduler.NewRunner(newPipeline(cfg, log, st, ""), cities)

	sched := newScheduler(cfg, runner, log)
	if err := sched.Start(); err != nil {
		return WrapExitError(ExitCommandError, "failed to start scheduler", err)
	}
	defer sched.Stop()

	app := NewApp(st, runner)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "port", cfg.Port)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitCommandError, "http server stopped", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "err", err)
	}
	log.Info("server stopped")
	return nil
}
