package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/solsplash/client"
	"github.com/urfave/cli/v2"
)

func airdropCommand() *cli.Command {
	return &cli.Command{
		Name:      "airdrop",
		Usage:     "Request test SOL for the connected account",
		ArgsUsage: "AMOUNT",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("amount is required")
			}

			cl, err := newClient(c)
			if err != nil {
				return err
			}

			res, err := cl.Airdrop(c.Context, c.Args().Get(0))
			if err != nil {
				return fmt.Errorf("airdrop failed: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, res)
			}
			fmt.Fprintf(c.App.Writer, "✓ %s\n", res.Message)
			fmt.Fprintf(c.App.Writer, "  Signature: %s\n", res.Signature)
			return nil
		},
	}
}

func transferCommand() *cli.Command {
	return &cli.Command{
		Name:      "transfer",
		Aliases:   []string{"send"},
		Usage:     "Send SOL from the connected account",
		ArgsUsage: "RECIPIENT AMOUNT",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("recipient and amount are required")
			}

			cl, err := newClient(c)
			if err != nil {
				return err
			}

			res, err := cl.Transfer(c.Context, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return fmt.Errorf("transfer failed: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, res)
			}
			fmt.Fprintf(c.App.Writer, "✓ %s\n", res.Message)
			fmt.Fprintf(c.App.Writer, "  Signature: %s\n", res.Signature)
			fmt.Fprintf(c.App.Writer, "  Explorer:  %s\n", res.ExplorerURL)
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:    "history",
		Aliases: []string{"txns"},
		Usage:   "List recent transactions of the connected account",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "refresh",
				Aliases: []string{"r"},
				Usage:   "Fetch from the cluster instead of showing the last fetched list",
			},
			&cli.StringSliceFlag{
				Name:    "must-jq",
				Usage:   "jq filter expression that must evaluate to true (can be specified multiple times, all must match)",
				Aliases: []string{"jq"},
			},
		},
		Action: func(c *cli.Context) error {
			filters, err := compileJQFilters(c.StringSlice("must-jq"))
			if err != nil {
				return err
			}

			cl, err := newClient(c)
			if err != nil {
				return err
			}

			var txns []*client.Transaction
			if c.Bool("refresh") {
				txns, err = cl.RefreshTransactions(c.Context)
			} else {
				txns, err = cl.Transactions(c.Context)
			}
			if err != nil {
				return fmt.Errorf("failed to get transactions: %w", err)
			}

			matched := make([]*client.Transaction, 0, len(txns))
			for _, txn := range txns {
				ok, err := filters.match(txn)
				if err != nil {
					return err
				}
				if ok {
					matched = append(matched, txn)
				}
			}

			if c.Bool("json") {
				return printJSON(c, matched)
			}

			w := c.App.Writer
			if len(matched) == 0 {
				fmt.Fprintln(w, "No transactions found")
				return nil
			}
			for _, txn := range matched {
				fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
				fmt.Fprintf(w, "Signature: %s\n", txn.Signature)
				fmt.Fprintf(w, "From:      %s\n", txn.From)
				fmt.Fprintf(w, "To:        %s\n", txn.To)
				fmt.Fprintf(w, "Amount:    %s SOL\n", txn.Amount)
				fmt.Fprintf(w, "Status:    %s\n", txn.Status)
				fmt.Fprintf(w, "Time:      %s\n", txn.Time().Format(time.RFC3339))
			}
			fmt.Fprintln(w, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			return nil
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:      "sign",
		Usage:     "Sign a message with the connected wallet",
		ArgsUsage: "MESSAGE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "encoding",
				Aliases: []string{"e"},
				Usage:   "Signature encoding: base58 or hex",
				Value:   "base58",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return fmt.Errorf("message is required")
			}

			cl, err := newClient(c)
			if err != nil {
				return err
			}

			res, err := cl.Sign(c.Context, c.Args().Get(0), c.String("encoding"))
			if err != nil {
				return fmt.Errorf("failed to sign message: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, res)
			}
			fmt.Fprintf(c.App.Writer, "Signature (%s): %s\n", res.Encoding, res.Signature)
			fmt.Fprintf(c.App.Writer, "Signed by:   %s\n", res.PublicKey)
			return nil
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verify a message signature",
		ArgsUsage: "MESSAGE SIGNATURE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "public-key",
				Aliases: []string{"p"},
				Usage:   "Signer public key (defaults to the connected account)",
			},
			&cli.StringFlag{
				Name:    "encoding",
				Aliases: []string{"e"},
				Usage:   "Signature encoding: base58 or hex",
				Value:   "base58",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("message and signature are required")
			}

			cl, err := newClient(c)
			if err != nil {
				return err
			}

			valid, err := cl.Verify(c.Context, c.Args().Get(0), c.Args().Get(1), c.String("public-key"), c.String("encoding"))
			if err != nil {
				return fmt.Errorf("failed to verify signature: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, map[string]bool{"valid": valid})
			}
			if !valid {
				return fmt.Errorf("signature is not valid")
			}
			fmt.Fprintln(c.App.Writer, "✓ Signature is valid")
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Stream notifications until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "account",
				Usage: "Only show notifications for this account",
			},
		},
		Action: func(c *cli.Context) error {
			cl, err := newClient(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !c.Bool("json") {
				fmt.Fprintf(os.Stderr, "Streaming notifications from %s (Ctrl+C to stop)...\n", c.String("server-url"))
			}

			err = cl.StreamNotifications(ctx, c.String("account"), func(n *client.Notification) error {
				if c.Bool("json") {
					return printJSON(c, n)
				}
				fmt.Fprintf(c.App.Writer, "[%s] %-7s %s\n", n.CreatedAt.Format(time.TimeOnly), n.Kind, n.Message)
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
