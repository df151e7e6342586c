package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/peterbourgon/ff/v4"

	"github.com/zombor/billed/internal/bill"
	"github.com/zombor/billed/internal/scanning"
)

func newServeCommand(root *rootConfig) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(root.flags)
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		dbPath      = fs.StringLong("db", "billed.db", "Database file path")
		storagePath = fs.StringLong("storage", "./receipts", "Receipt storage directory path")
		publicURL   = fs.StringLong("public-url", "", "Base URL receipt links are built on (default http://localhost:<port>)")
		scannerType = fs.StringLong("scanner", "none", "Receipt scanner: 'none', 'gemini' or 'ollama'")
		geminiKey   = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL   = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
	)

	return &ff.Command{
		Name:      "serve",
		Usage:     "billed serve [FLAGS]",
		ShortHelp: "run the bills API",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			baseURL := *publicURL
			if baseURL == "" {
				baseURL = fmt.Sprintf("http://localhost:%d", *port)
			}
			return serve(ctx, serveConfig{
				addr:        fmt.Sprintf(":%d", *port),
				dbPath:      *dbPath,
				storagePath: *storagePath,
				publicURL:   baseURL,
				scannerType: *scannerType,
				geminiKey:   *geminiKey,
				geminiModel: *geminiModel,
				ollamaURL:   *ollamaURL,
				ollamaModel: *ollamaModel,
				basicAuth:   bill.BasicAuth{Username: *root.authUser, Password: *root.authPass},
			})
		},
	}
}

type serveConfig struct {
	addr        string
	dbPath      string
	storagePath string
	publicURL   string
	scannerType string
	geminiKey   string
	geminiModel string
	ollamaURL   string
	ollamaModel string
	basicAuth   bill.BasicAuth
}

func serve(ctx context.Context, cfg serveConfig) error {
	slog.Info("Initializing database...")
	db, err := bill.NewBoltDB(cfg.dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	scanner, err := newScanner(ctx, cfg)
	if err != nil {
		return err
	}
	if scanner != nil {
		defer scanner.Close()
	}

	slog.Info("Initializing storage...")
	storage, err := bill.NewLocalStorage(cfg.storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	service := bill.NewService(db, scanner, storage, cfg.publicURL)
	server := bill.NewServer(service, cfg.basicAuth)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.addr)
	}()

	slog.Info("Server started", "address", cfg.addr, "public_url", cfg.publicURL)
	if cfg.basicAuth.Username != "" || cfg.basicAuth.Password != "" {
		slog.Info("Basic auth enabled", "user", cfg.basicAuth.Username)
	}

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newScanner returns nil when scanning is turned off
func newScanner(ctx context.Context, cfg serveConfig) (scanning.Scanner, error) {
	switch cfg.scannerType {
	case "", "none":
		slog.Info("Receipt scanning disabled")
		return nil, nil
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini scanner...", "model", cfg.geminiModel)
		scanner, err := scanning.NewGemini(ctx, apiKey, cfg.geminiModel)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini: %w", err)
		}
		return scanner, nil
	case "ollama":
		slog.Info("Initializing Ollama scanner...", "url", cfg.ollamaURL, "model", cfg.ollamaModel)
		scanner, err := scanning.NewOllama(cfg.ollamaURL, cfg.ollamaModel)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama: %w", err)
		}
		return scanner, nil
	default:
		return nil, fmt.Errorf("invalid scanner type %q: want none, gemini or ollama", cfg.scannerType)
	}
}
