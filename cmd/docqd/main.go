// Docqd is a document question-answering daemon.
//
// It ingests PDF, docx and plain-text documents into a per-session vector
// index and answers questions against them with retrieval-augmented,
// memory-aware, cached model calls. Answers are mirrored to Telegram.
//
// Usage:
//
//	# Start with defaults
//	docqd
//
//	# Start with a config file, override via environment
//	docqd -config /etc/docqd/config.yaml
//	SERVER_PORT=9092 docqd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docqd/internal/config"
	"github.com/fyrsmithlabs/docqd/internal/embeddings"
	"github.com/fyrsmithlabs/docqd/internal/filter"
	"github.com/fyrsmithlabs/docqd/internal/httpapi"
	"github.com/fyrsmithlabs/docqd/internal/llm"
	"github.com/fyrsmithlabs/docqd/internal/logging"
	"github.com/fyrsmithlabs/docqd/internal/metrics"
	"github.com/fyrsmithlabs/docqd/internal/notify"
	"github.com/fyrsmithlabs/docqd/internal/pipeline"
	"github.com/fyrsmithlabs/docqd/internal/session"
	"github.com/fyrsmithlabs/docqd/internal/vectorstore"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  docqd           Start the docqd daemon\n")
			fmt.Fprintf(os.Stderr, "  docqd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("docqd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the docqd server and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logging.Sync(logger)

	logger.Info("starting docqd",
		zap.String("version", version),
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("vectorstore", cfg.VectorStore.Provider))

	store, err := vectorstore.NewStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	defer store.Close()

	embedder, err := embeddings.NewService(embeddings.Config{
		BaseURL: cfg.Embeddings.BaseURL,
		Model:   cfg.Embeddings.Model,
		APIKey:  cfg.Embeddings.APIKey.Value(),
	})
	if err != nil {
		return fmt.Errorf("creating embedding service: %w", err)
	}

	generator, err := llm.NewGenerator(cfg.LLM)
	if err != nil {
		return fmt.Errorf("creating llm generator: %w", err)
	}

	classifier, err := filter.New(cfg.Filter, generator)
	if err != nil {
		return fmt.Errorf("creating content filter: %w", err)
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.BotToken.IsSet() {
		telegram, err := notify.NewTelegram(cfg.Notify.BotToken.Value(), logger)
		if err != nil {
			return fmt.Errorf("creating telegram notifier: %w", err)
		}
		// Telegram allows about one message per second per chat.
		notifier = notify.NewThrottle(telegram, 1, 3)
		logger.Info("telegram notifications enabled",
			zap.String("channel", cfg.Notify.Channel))
	}

	svc, err := pipeline.NewService(pipeline.Options{
		Config:     cfg,
		Embedder:   embedder,
		Store:      store,
		Generator:  generator,
		Classifier: classifier,
		Notifier:   notifier,
		Sessions:   session.NewManager(),
		Metrics:    metrics.New(prometheus.DefaultRegisterer),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("creating pipeline: %w", err)
	}

	srv, err := httpapi.NewServer(svc, prometheus.DefaultGatherer, logger, cfg.Server)
	if err != nil {
		return fmt.Errorf("creating http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-errCh
}
