package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"relay-chat/internal/app"
	"relay-chat/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Configuration error: %v", err))
		return 1
	}

	// INFO lines would interleave with the conversation.
	level := app.ParseLevel(cfg.LogLevel)
	if level == slog.LevelInfo {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	a, err := app.NewApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Startup error: %v", err))
		return 1
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boldGreen := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Println(boldGreen("Relay Chat"))
	fmt.Printf("Workspace: %s (%s)\n", cfg.WorkspaceID, a.Service.Settings().Endpoint)
	fmt.Println("Type your message and press Enter. Commands: /new, /debug, exit.")
	fmt.Println()

	return newREPL(a.Service, a.Catalog, os.Stdin, os.Stdout).run(ctx)
}
