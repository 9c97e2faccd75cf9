package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_jobmato/internal/engine"
	"github.com/anatolykoptev/go_jobmato/internal/httpapi"
	"github.com/anatolykoptev/go_jobmato/internal/jobserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server and, when HTTP_PORT is set, the REST API",
	RunE:  runServe,
}

var (
	mcpPort  string
	httpPort string
)

func init() {
	serveCmd.Flags().StringVar(&mcpPort, "mcp-port", "", "MCP server port (default $MCP_PORT or 8891)")
	serveCmd.Flags().StringVar(&httpPort, "http-port", "", "REST API port (default $HTTP_PORT; empty disables it)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	if mcpPort == "" {
		mcpPort = env.Str("MCP_PORT", "8891")
	}
	if httpPort == "" {
		httpPort = env.Str("HTTP_PORT", "")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	slog.Info("starting go_jobmato",
		slog.String("version", version),
		slog.String("mcp_port", mcpPort),
		slog.String("http_port", httpPort))

	if httpPort != "" {
		api := httpapi.NewServer(a.router, httpapi.Config{
			Addr:          ":" + httpPort,
			RatePerMinute: env.Int("HTTP_RATE_LIMIT", 30),
			RateBurst:     env.Int("HTTP_RATE_BURST", 5),
			Metrics:       engine.FormatMetrics,
		})
		go func() {
			if err := api.Start(); err != nil {
				slog.Error("http api failed", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := api.Stop(shutdownCtx); err != nil {
				slog.Warn("http api shutdown failed", slog.Any("error", err))
			}
		}()
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_jobmato",
		Version: version,
	}, nil)
	jobserver.RegisterTools(server, a.router)
	slog.Info("tools registered", slog.Int("count", jobserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_jobmato",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 120 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
