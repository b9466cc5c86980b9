package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gluteintel/progress-tracker/internal/bootstrap"
	"github.com/gluteintel/progress-tracker/internal/config"
	"github.com/gluteintel/progress-tracker/internal/observability/logging"
	"github.com/gluteintel/progress-tracker/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.New("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	go serveMetrics(cfg.WorkerMetricsPort, workerMetrics)

	log.Printf("worker subscribed to %s", cfg.NATSSubject)
	err = app.Queue.SubscribeChainRequested(ctx, func(handlerCtx context.Context, sessionID string) error {
		start := time.Now()
		workerMetrics.StartChain()

		chainCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		result, chainErr := app.ChainUC.AutoChain(chainCtx, sessionID)
		workerMetrics.FinishChain("worker", time.Since(start), chainErr)

		if chainErr != nil {
			return chainErr
		}
		slog.Info("chain_completed",
			"session_id", sessionID,
			"tags", len(result.Tags),
			"plan_status", string(result.PlanStatus),
			"degraded", result.Degraded,
		)
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func serveMetrics(port string, workerMetrics *metrics.WorkerMetrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("worker metrics server error: %v", err)
	}
}
