package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/brojonat/solsplash/client"
	"github.com/urfave/cli/v2"
)

// newClient builds an API client for the --server-url flag.
func newClient(c *cli.Context) (*client.Client, error) {
	serverURL := c.String("server-url")
	if serverURL == "" {
		return nil, fmt.Errorf("server-url is required (set SERVER_URL env var or use --server-url)")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only errors to stderr
	}))
	return client.NewClient(serverURL, nil, logger), nil
}

// printJSON writes v as indented JSON to the app writer.
func printJSON(c *cli.Context, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}

func printSession(c *cli.Context, s *client.Session) error {
	if c.Bool("json") {
		return printJSON(c, s)
	}

	w := c.App.Writer
	if !s.Connected {
		fmt.Fprintf(w, "Wallet:  %s (not connected)\n", s.Wallet)
		fmt.Fprintf(w, "Network: %s\n", s.Network)
		return nil
	}
	fmt.Fprintf(w, "Wallet:  %s\n", s.Wallet)
	fmt.Fprintf(w, "Account: %s\n", s.PublicKey)
	fmt.Fprintf(w, "Network: %s\n", s.Network)
	if s.HasBalance {
		fmt.Fprintf(w, "Balance: %s SOL\n", s.Balance.StringFixed(4))
	}
	return nil
}
