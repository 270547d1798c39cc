package main

import (
	"fmt"
	"os"

	"github.com/brojonat/solsplash/service/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

func keygenCommand() *cli.Command {
	return &cli.Command{
		Name:  "keygen",
		Usage: "Generate a keypair file for WALLET_KIND=keyfile",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "out",
				Aliases:  []string{"o"},
				Usage:    "Path of the keypair file to write",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing file",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.String("out")
			if !c.Bool("force") {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			key, err := solana.NewRandomPrivateKey()
			if err != nil {
				return fmt.Errorf("failed to generate keypair: %w", err)
			}
			if err := wallet.WriteKeygenFile(path, key); err != nil {
				return err
			}

			if c.Bool("json") {
				return printJSON(c, map[string]string{
					"path":       path,
					"public_key": key.PublicKey().String(),
				})
			}
			fmt.Fprintf(c.App.Writer, "✓ Wrote keypair to %s\n", path)
			fmt.Fprintf(c.App.Writer, "  Public key: %s\n", key.PublicKey())
			return nil
		},
	}
}
