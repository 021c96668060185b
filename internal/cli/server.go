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

	"quiz-link-service/internal/app"
	"quiz-link-service/internal/config"
	"quiz-link-service/internal/infra/jsonfile"
	"quiz-link-service/internal/infra/memory"
	pginfra "quiz-link-service/internal/infra/postgres"
	"quiz-link-service/internal/infra/quizfile"
	redisinfra "quiz-link-service/internal/infra/redis"
	"quiz-link-service/internal/logger"
	transport "quiz-link-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
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

	log := logger.New(cfg.Log.Level, cfg.Log.File)
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	keys := buildKeySource(cfg, pool, redisClient)
	sink, err := buildResultSink(cfg, pool, log)
	if err != nil {
		return err
	}

	var links app.LinkRegistry
	if redisClient != nil {
		links = redisinfra.NewLinkStore(redisClient, redisTTL)
	} else {
		links = memory.NewLinkStore()
	}

	service := app.NewQuizService(links, keys, sink, log)
	plans, defaultPlan := cfg.PlanLimits()
	handler := transport.NewHandler(service, log, cfg.Server.BaseURL, plans, defaultPlan)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Routes(cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz link service", zap.String("port", finalPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("failed to start server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildKeySource assembles the prioritized answer-key chain: Postgres first
// when configured, then the quiz-file directories in configured order, all
// behind a TTL cache (Redis-backed when Redis is available).
func buildKeySource(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client) app.AnswerKeySource {
	dirs := cfg.Quiz.Dirs
	if len(dirs) == 0 {
		dirs = []string{"quiz_data"}
	}

	sources := make([]quizfile.Source, 0, len(dirs)+1)
	if pool != nil {
		sources = append(sources, pginfra.NewKeyLoader(pool))
	}
	for _, dir := range dirs {
		sources = append(sources, quizfile.NewDirLoader(dir))
	}
	chain := quizfile.NewChain(sources...)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		return redisinfra.NewKeyRepository(redisClient, chain, quizTTL)
	}
	return memory.NewKeyRepository(chain, quizTTL)
}

// buildResultSink prefers Postgres, then the JSON results file, then plain
// memory for throwaway runs.
func buildResultSink(cfg config.Config, pool *pgxpool.Pool, log *zap.Logger) (app.ResultSink, error) {
	if pool != nil {
		return pginfra.NewResultSink(pool), nil
	}
	if cfg.Results.File != "" {
		return jsonfile.NewResultSink(cfg.Results.File)
	}
	log.Warn("no durable result sink configured, submissions are kept in memory only")
	return memory.NewResultSink(), nil
}
