package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_jobmato/internal/engine/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Answer one message and print the reply as JSON",
	Long:  "Classify and answer a single message, printing the assistant reply (or, with --classify-only, the routing record) as JSON.",
	Args:  cobra.ArbitraryArgs,
	RunE:  runAsk,
}

var (
	askToken        string
	askSession      string
	askClassifyOnly bool
	askLoadMore     bool
)

func init() {
	askCmd.Flags().StringVar(&askToken, "token", "", "JobMato bearer token (default $JOBMATO_TOKEN)")
	askCmd.Flags().StringVar(&askSession, "session", chat.DefaultSessionID, "Session id")
	askCmd.Flags().BoolVar(&askClassifyOnly, "classify-only", false, "Print the routing record instead of answering")
	askCmd.Flags().BoolVar(&askLoadMore, "load-more", false, "Ignore the message and fetch the next page of the session's last search")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !askLoadMore {
		return errors.New("a message is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(ctx, loadConfig())
	if err != nil {
		return err
	}
	defer a.Close()

	if askToken == "" {
		askToken = os.Getenv("JOBMATO_TOKEN")
	}
	req := chat.Request{
		Query:     strings.Join(args, " "),
		Token:     askToken,
		SessionID: askSession,
	}

	var out any
	switch {
	case askClassifyOnly:
		out = a.router.ClassifyAndRoute(ctx, req)
	case askLoadMore:
		out = a.router.LoadMore(ctx, req, 0)
	default:
		out = a.router.Handle(ctx, req)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	return nil
}
