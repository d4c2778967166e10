package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-buzzer-service/internal/app"
	"quiz-buzzer-service/internal/config"
	"quiz-buzzer-service/internal/infra/memory"
	pgstore "quiz-buzzer-service/internal/infra/postgres"
	redisinfra "quiz-buzzer-service/internal/infra/redis"
	transport "quiz-buzzer-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the buzzer server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.Duration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	var arbiter app.LockArbiter = memory.NewLockArbiter()
	if redisClient != nil {
		arbiter = redisinfra.NewLockArbiter(redisClient)
	}

	var rounds app.RoundStore = memory.NewRoundStore()
	if pool != nil {
		cacheTTL := config.Duration(cfg.Game.LeaderboardCacheTTL, 30*time.Second)
		rounds = memory.NewStatsCache(pgstore.NewRoundStore(pool), cacheTTL)
	}

	rules := app.Rules{
		TeamSlots:    cfg.Game.TeamSlots,
		MaxQuestions: cfg.Game.MaxQuestions,
		WinnerWindow: config.Duration(cfg.Game.WinnerDisplay, 10*time.Second),
	}

	var opts []app.Option
	if redisClient != nil {
		opts = append(opts, app.WithSnapshotStore(redisinfra.NewStateStore(redisClient, redisTTL)))
	}
	service := app.NewGameService(arbiter, rounds, rules, logger, opts...)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go service.WatchCompletion(watchCtx, config.Duration(cfg.Game.CompletionPollInterval, 2*time.Second))

	teamHandler := transport.NewTeamHandler(service, logger)
	hostHandler := transport.NewHostHandler(service, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws/team", teamHandler.ServeWS)
	mux.HandleFunc("/ws/host", hostHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("starting buzzer service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
