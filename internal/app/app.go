package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"relay-chat/internal/api"
	"relay-chat/internal/config"
	"relay-chat/internal/database"
	"relay-chat/internal/debug"
	"relay-chat/internal/llm"
	"relay-chat/internal/locale"
	"relay-chat/internal/repository"
	"relay-chat/internal/service"
)

// App holds the wired components of the relay.
type App struct {
	Config  *config.Config
	Catalog *locale.Catalog
	Service *service.ChatService
	Buffer  *debug.Buffer
	Server  *http.Server
	// DB is the troubleshooting log; nil unless DEBUG_DB_PATH is set.
	DB *sql.DB
}

func Run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return 1
	}

	SetupLogger(cfg.LogLevel, os.Stdout)
	logConfigSource(cfg)

	app, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		return 1
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", app.Server.Addr, "endpoint", app.Service.Settings().Endpoint)
		errCh <- app.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			return 1
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.Server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
			return 1
		}
	}

	return 0
}

// NewApp wires the chat service and the HTTP server from a validated
// configuration. It does not start listening.
func NewApp(cfg *config.Config) (*App, error) {
	catalog := locale.Lookup(cfg.Locale)
	buffer := debug.NewBuffer(cfg.DebugBufferSize)
	sinks := debug.Multi{debug.NewLogSink(slog.Default()), buffer}

	var (
		db       *sql.DB
		debugLog repository.DebugRepository
	)
	if cfg.DebugDBPath != "" {
		var err error
		db, err = database.InitDB(cfg.DebugDBPath)
		if err != nil {
			return nil, fmt.Errorf("could not open debug log: %w", err)
		}
		slog.Info("Troubleshooting log enabled", "path", cfg.DebugDBPath)
		debugLog = repository.NewSQLiteDebugRepository(db)
		sinks = append(sinks, repository.NewDebugSink(debugLog))
	}

	client := llm.NewWorkspaceClient(
		llm.Connection{BaseURL: cfg.APIBaseURL, APIKey: cfg.APIKey, WorkspaceID: cfg.WorkspaceID},
		llm.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		llm.WithCatalog(catalog),
		llm.WithDebugSink(sinks),
	)

	chatService := service.NewChatService(repository.NewMemoryStore(), client, catalog, service.Settings{
		BaseURL:     cfg.APIBaseURL,
		WorkspaceID: cfg.WorkspaceID,
		Endpoint:    client.Endpoint(),
		APIKey:      cfg.MaskedAPIKey(),
		Locale:      catalog.Tag.String(),
	}).WithDebugHistory(buffer, debugLog)

	router := api.NewRouter(api.NewChatHandler(chatService), api.NewWebSocketHandler(chatService, cfg.CORSAllowedOrigins), cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for streaming endpoints
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		Config:  cfg,
		Catalog: catalog,
		Service: chatService,
		Buffer:  buffer,
		Server:  server,
		DB:      db,
	}, nil
}

// Close releases the troubleshooting log.
func (a *App) Close() {
	if a.DB == nil {
		return
	}
	if err := a.DB.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}
}

func logConfigSource(cfg *config.Config) {
	if file := cfg.ConfigFileUsed(); file != "" {
		slog.Info("Successfully loaded configuration from file.", "file", file)
	} else {
		slog.Info("Configuration file not found. Using environment variables and defaults.")
	}
	slog.Info("Remote workspace", "base_url", cfg.APIBaseURL, "workspace_id", cfg.WorkspaceID, "api_key", cfg.MaskedAPIKey())
}

// ParseLevel maps LOG_LEVEL to a slog level, defaulting to INFO.
func ParseLevel(logLevel string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(logLevel)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetupLogger installs a JSON slog handler writing to w as the default logger.
func SetupLogger(logLevel string, w io.Writer) {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(logLevel),
	}))
	slog.SetDefault(logger)
}
