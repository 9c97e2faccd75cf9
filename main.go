// go_jobmato is the JobMato career assistant: intent routing, job search with
// automatic broadening, and LLM-backed career agents.
//
// `serve` exposes the assistant as MCP tools (chat_message, load_more_jobs,
// classify_query, clear_chat_history) and optionally as a REST API;
// `ask` answers one message from the command line.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "go_jobmato",
	Short:         "JobMato career assistant",
	Long:          "Classifies career questions, searches JobMato jobs with automatic broadening and answers resume, career and project questions.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	_ = godotenv.Load()
	initLogger(os.Getenv("LOG_LEVEL"))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
