package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/collectible-ledger/internal/config"
	"github.com/gaze-network/collectible-ledger/modules/collectible"
	"github.com/gaze-network/collectible-ledger/pkg/automaxprocs"
	"github.com/gaze-network/collectible-ledger/pkg/errorhandler"
	"github.com/gaze-network/collectible-ledger/pkg/eventbus"
	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gaze-network/collectible-ledger/pkg/logger/slogx"
	"github.com/gaze-network/collectible-ledger/pkg/metrics"
	"github.com/gaze-network/collectible-ledger/pkg/middleware/requestcontext"
	"github.com/gaze-network/collectible-ledger/pkg/middleware/requestlogger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Register Modules
var Modules = do.Package(
	do.Lazy(collectible.New),
)

func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start the collectible ledger service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := automaxprocs.Init(); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			return runHandler(cmd, args)
		},
	}

	flags := runCmd.Flags()
	flags.Int("port", 8080, "HTTP server port")
	flags.Bool("events", false, "Publish committed ledger events to the in-process event bus")

	config.BindPFlag("http_server.port", flags.Lookup("port"))
	config.BindPFlag("events.enabled", flags.Lookup("events"))

	return runCmd
}

const (
	shutdownTimeout = 60 * time.Second
)

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()

	// Initialize application process context
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := do.New(Modules)
	do.ProvideValue(injector, conf)
	do.ProvideValue(injector, ctx)

	// Initialize event bus
	do.Provide(injector, func(i do.Injector) (*eventbus.Bus, error) {
		conf := do.MustInvoke[config.Config](i)
		bus := eventbus.New(conf.Events)
		if conf.Events.LogSubscriber {
			if err := bus.Subscribe(ctx, conf.Events.Topic, eventbus.LogHandler); err != nil {
				return nil, errors.Wrap(err, "can't subscribe event logger")
			}
		}
		return bus, nil
	})

	// Initialize HTTP server
	do.Provide(injector, func(i do.Injector) (*fiber.App, error) {
		conf := do.MustInvoke[config.Config](i)

		app := fiber.New(fiber.Config{
			AppName:      "Collectible Ledger",
			ErrorHandler: errorhandler.NewHTTPErrorHandler(),
		})
		app.
			Use(favicon.New()).
			Use(cors.New()).
			Use(requestid.New()).
			Use(requestcontext.New(
				requestcontext.WithRequestId(),
				requestcontext.WithCaller(conf.HTTPServer.CallerHeader),
			)).
			Use(requestlogger.New(conf.HTTPServer.Logger)).
			Use(fiberrecover.New(fiberrecover.Config{
				EnableStackTrace: true,
				StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
					buf := make([]byte, 1024) // bufLen = 1024
					buf = buf[:runtime.Stack(buf, false)]
					logger.ErrorContext(c.UserContext(), "Something went wrong, panic in http handler", errors.Newf("panic: %v", e), slog.String("stacktrace", string(buf)))
				},
			})).
			Use(compress.New(compress.Config{
				Level: compress.LevelDefault,
			}))

		if conf.Metrics.Enabled {
			app.Use(metrics.New())
			metrics.Mount(app, conf.Metrics.Path)
		}

		// Health check
		app.Get("/", func(c *fiber.Ctx) error {
			return errors.WithStack(c.SendStatus(http.StatusOK))
		})

		return app, nil
	})

	// Initialize modules
	if _, err := do.Invoke[*collectible.Module](injector); err != nil {
		return errors.Wrap(err, "can't init collectible module")
	}

	var bus *eventbus.Bus
	if conf.Events.Enabled {
		bus = do.MustInvoke[*eventbus.Bus](injector)
	}

	httpServer := do.MustInvoke[*fiber.App](injector)
	group, gctx := errgroup.WithContext(ctx)

	// Run API server
	group.Go(func() error {
		logger.InfoContext(ctx, "Started HTTP server", slog.Int("port", conf.HTTPServer.Port))
		if err := httpServer.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)); err != nil {
			return errors.Wrap(err, "HTTP server stopped")
		}
		return nil
	})

	// Wait for interrupt signal or a failed server to gracefully stop the application
	group.Go(func() error {
		<-gctx.Done()
		logger.InfoContext(ctx, "Shutting down collectible ledger...")

		// Force shutdown if timeout exceeded or got signal again
		go func() {
			defer os.Exit(1)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			select {
			case <-ctx.Done():
				logger.FatalContext(ctx, "Received exit signal again. Force shutdown...")
			case <-time.After(shutdownTimeout + 15*time.Second):
				logger.FatalContext(ctx, "Shutdown timeout exceeded. Force shutdown...")
			}
		}()

		if err := injector.Shutdown(); err != nil {
			return errors.Wrap(err, "failed while gracefully shutting down")
		}
		if bus != nil {
			if err := bus.Close(); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})

	logger.InfoContext(ctx, "Collectible ledger started", slogx.String("version", collectible.Version))
	return errors.WithStack(group.Wait())
}
