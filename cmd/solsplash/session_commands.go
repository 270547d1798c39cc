package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func sessionCommand() *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Show the server wallet session",
		Action: func(c *cli.Context) error {
			cl, err := newClient(c)
			if err != nil {
				return err
			}

			s, err := cl.Session(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get session: %w", err)
			}
			return printSession(c, s)
		},
	}
}

func connectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Connect the server wallet",
		Action: func(c *cli.Context) error {
			cl, err := newClient(c)
			if err != nil {
				return err
			}

			s, err := cl.Connect(c.Context)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			return printSession(c, s)
		},
	}
}

func disconnectCommand() *cli.Command {
	return &cli.Command{
		Name:  "disconnect",
		Usage: "Disconnect the server wallet",
		Action: func(c *cli.Context) error {
			cl, err := newClient(c)
			if err != nil {
				return err
			}

			s, err := cl.Disconnect(c.Context)
			if err != nil {
				return fmt.Errorf("failed to disconnect: %w", err)
			}
			return printSession(c, s)
		},
	}
}

func balanceCommand() *cli.Command {
	return &cli.Command{
		Name:  "balance",
		Usage: "Fetch the balance of the connected account",
		Action: func(c *cli.Context) error {
			cl, err := newClient(c)
			if err != nil {
				return err
			}

			b, err := cl.Balance(c.Context)
			if err != nil {
				return fmt.Errorf("failed to get balance: %w", err)
			}

			if c.Bool("json") {
				return printJSON(c, b)
			}
			fmt.Fprintf(c.App.Writer, "%s SOL\n", b.Balance.StringFixed(4))
			return nil
		},
	}
}
