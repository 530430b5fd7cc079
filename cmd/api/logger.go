package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/mandalnilabja/chatgate/internal/config"
)

func setupLogger() *slog.Logger {
	// Use sensible defaults: info level, text format
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}

func printStartupBanner(cfg *config.Config) {
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintln(os.Stderr, "Chatgate - Chat Backend & Provider Proxy")
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "API:        http://localhost%s\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Proxy:      http://localhost%s/providers/{id}/...\n", cfg.ServerPort)
	fmt.Fprintf(os.Stderr, "Data:       %s\n", config.DataDir())
	for _, p := range cfg.Providers {
		fmt.Fprintf(os.Stderr, "Provider:   %s → %s\n", p.ID, p.BaseURL)
	}
	fmt.Fprintln(os.Stderr, "════════════════════════════════════════════════")
	fmt.Fprintf(os.Stderr, "\n")
}
