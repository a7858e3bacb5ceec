// Command fumo-init bootstraps the spreadsheet schema: it writes the header
// row on an empty sheet and fails if an existing header does not match.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	gsheet "fumo/internal/sheets/google"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	if err := cli.EnsureHeader(ctx); err != nil {
		logger.Error("Header check failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Sheet header verified")
}
