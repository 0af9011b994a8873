package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/talent-scheduler/internal/application"
	"github.com/example/talent-scheduler/internal/calendar"
	"github.com/example/talent-scheduler/internal/config"
	"github.com/example/talent-scheduler/internal/crypto"
	httptransport "github.com/example/talent-scheduler/internal/http"
	"github.com/example/talent-scheduler/internal/message"
	"github.com/example/talent-scheduler/internal/persistence/sqlite"
	"github.com/example/talent-scheduler/internal/ranking"
)

func newServeCmd(configPath *string) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduling HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			pool, err := sqlite.Open(cfg.SQLiteDSN)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			defer func() {
				if cerr := pool.Close(); cerr != nil {
					logger.Error("failed to close storage", "error", cerr)
				}
			}()

			if !skipMigrate {
				if err := pool.Migrate(ctx); err != nil {
					return fmt.Errorf("apply migrations: %w", err)
				}
			}

			aead, err := crypto.New(cfg.CredentialKey)
			if err != nil {
				return fmt.Errorf("build credential cipher: %w", err)
			}

			scheduleRepo := sqlite.NewScheduleRepository(pool)
			interviewerRepo := sqlite.NewInterviewerRepository(pool, aead)
			timelineRepo := sqlite.NewTimelineRepository(pool)

			backend := calendar.NewClient(cfg.CalendarBaseURL, cfg.CalendarTimeout)
			availability := calendar.NewProvider(backend, logger,
				calendar.WithFetchTimeout(cfg.CalendarTimeout),
				calendar.WithRefreshAttempts(cfg.RefreshAttempts),
			)

			completions := ranking.NewHTTPCompletionClient(cfg.RankingBaseURL, cfg.RankingAPIKey, cfg.RankingTimeout)
			ranker := ranking.NewRanker(completions, cfg.RankingTimeout, logger)
			composer := message.NewComposer(cfg.Location())

			coordinator := application.NewScheduleCoordinator(
				scheduleRepo,
				interviewerRepo,
				availability,
				ranker,
				composer,
				timelineRepo,
				logger,
				uuid.NewString,
				time.Now,
			)

			router := httptransport.NewRouter(httptransport.RouterConfig{
				Schedules: httptransport.NewScheduleHandler(coordinator, logger),
				Middleware: []func(http.Handler) http.Handler{
					httptransport.RequestLogger(logger),
					httptransport.RequirePrincipal(logger),
				},
			})

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("failed to shutdown server", "error", err)
				}
			}()

			logger.Info("scheduling API listening", "addr", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply database migrations on startup")
	return cmd
}
