package queue

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"

	"github.com/inftyart/inftyart/internal/chain"
	"github.com/inftyart/inftyart/internal/config"
	"github.com/inftyart/inftyart/internal/database"
	"github.com/inftyart/inftyart/internal/queue/handlers"
	"github.com/inftyart/inftyart/internal/usecase"
)

// Server wraps asynq.Server for processing tasks
type Server struct {
	asynqServer *asynq.Server
	mux         *asynq.ServeMux
	repo        usecase.Repository
}

// Worker represents a worker application with all its dependencies
type Worker struct {
	server *Server
	logger *slog.Logger
}

// NewWorker creates a fully configured worker with all dependencies
func NewWorker(logger *slog.Logger) (*Worker, error) {
	logger.Info("initializing worker dependencies")

	repo := database.New(logger)

	cp, err := chain.NewSolanaProvider(
		os.Getenv(config.ENV_KEY_SOLANA_RPC_URL),
		os.Getenv(config.ENV_KEY_SOLANA_FEE_PAYER_KEY),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain provider: %w", err)
	}

	// Workers never upload files, send mail or enqueue further tasks.
	uc := usecase.New(repo, cp, nil, nil, nil)

	redisAddr := fmt.Sprintf("%s:%s",
		os.Getenv(config.ENV_KEY_REDIS_HOST),
		os.Getenv(config.ENV_KEY_REDIS_PORT),
	)
	redisPassword := os.Getenv(config.ENV_KEY_REDIS_PASSWORD)

	workerConcurrency := 10
	if wc := os.Getenv(config.ENV_KEY_WORKER_CONCURRENCY); wc != "" {
		var n int
		if _, err := fmt.Sscanf(wc, "%d", &n); err == nil && n > 0 {
			workerConcurrency = n
		}
	}

	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     redisAddr,
			Password: redisPassword,
		},
		asynq.Config{
			Concurrency: workerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	mux := asynq.NewServeMux()

	h := handlers.NewHandlers(uc)

	// Register task handlers - one line per job type
	mux.HandleFunc(TaskSettlementPayout, h.HandleSettlementPayout)

	logger.Info("worker registered handlers", slog.String("task", TaskSettlementPayout))

	server := &Server{
		asynqServer: asynqServer,
		mux:         mux,
		repo:        repo,
	}

	return &Worker{
		server: server,
		logger: logger,
	}, nil
}

// Start starts the worker server
func (w *Worker) Start() error {
	w.logger.Info("worker started successfully")
	return w.server.asynqServer.Start(w.server.mux)
}

// Stop stops the worker server gracefully
func (w *Worker) Stop() {
	w.logger.Info("stopping worker")
	w.server.asynqServer.Shutdown()

	if err := w.server.repo.Close(); err != nil {
		w.logger.Error("error closing database", slog.String("err", err.Error()))
	}
}
