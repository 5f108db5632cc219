package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/config"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/content"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/db"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/handlers"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/logging"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/services"
	"github.com/gadjet-1/Nkhotakota-College-of-education-Secondary-school/web"
)

var (
	cfg    config.AppConfig
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ncoe-site",
	Short: "Nkhotakota College of Education Secondary School website",
	Long: `Serves the school website: home, admissions, alumni, staff directory,
subjects, e-learning links, contact forms and the mock results portal.

Run without arguments to start the web server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.Logging)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, seedStaffCmd, importStaffCmd, searchStaffCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// connectRedis opens the Redis client when it is enabled, otherwise returns nil.
func connectRedis(ctx context.Context) (*redis.Client, error) {
	if !cfg.NeedsRedis() {
		return nil, nil
	}
	return db.InitializeRedisClient(ctx, cfg.Redis, logger)
}

func runServe(ctx context.Context) error {
	gin.SetMode(cfg.HTTP.GinMode)

	bundle, err := content.Load()
	if err != nil {
		return err
	}
	renderer, err := web.NewRenderer(bundle)
	if err != nil {
		return err
	}

	redisClient, err := connectRedis(ctx)
	if err != nil {
		return err
	}
	var store *db.RedisService
	if redisClient != nil {
		defer redisClient.Close()
		store = db.NewRedisService(redisClient, logger.Named("redis"))
	}

	var staff services.StaffDirectory = services.NewStaticDirectory(bundle.Staff())
	if cfg.StaffSource == config.StaffSourceRedis {
		checkAndSeedStaff(ctx, store, bundle)
		staff = store
	}

	var mailer services.Mailer = services.LogMailer{Logger: logger.Named("mail")}
	if cfg.MailBackend == config.MailBackendRedis {
		mailer = store
	}

	results := services.NewMockResults(cfg.Mock.ResultsDelay, logger.Named("results"))
	contact := services.NewContactService(mailer, cfg.Mock.MailDelay, logger.Named("contact"))

	pages := handlers.NewPageHandler(bundle, staff, results, contact, logger)
	api := handlers.NewAPIHandler(staff, results, contact, logger)
	if store != nil {
		api.Redis = store
		if cfg.StaffSource == config.StaffSourceRedis {
			api.Importer = store
		}
	}

	router := handlers.NewRouter(pages, api, renderer, logger, handlers.RouterOptions{AdminToken: cfg.HTTP.AdminToken})
	srv := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("staff_source", cfg.StaffSource),
			zap.String("mail_backend", cfg.MailBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to run server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// checkAndSeedStaff fills an empty Redis directory from the embedded dataset
func checkAndSeedStaff(ctx context.Context, store *db.RedisService, bundle *content.Bundle) {
	count, err := store.StaffCount(ctx)
	if err != nil {
		logger.Warn("could not check staff directory, skipping seed", zap.Error(err))
		return
	}
	if count > 0 {
		logger.Info("found existing staff directory", zap.Int64("count", count))
		return
	}

	logger.Info("staff directory empty, seeding from embedded dataset")
	if _, err := store.SeedStaff(ctx, bundle.Staff(), false); err != nil {
		logger.Error("seeding staff directory failed", zap.Error(err))
	}
}
