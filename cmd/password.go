package cmd

import (
	"errors"
	"fmt"

	"adboard/auth"
	"adboard/config"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"
	"github.com/urfave/cli/v2"
)

func setPasswordCmd() *cli.Command {
	return &cli.Command{
		Name:  "set-password",
		Usage: "Set the shared admin password",
		Description: `Prompts for a new admin password and stores its bcrypt hash.

The dashboard uses a single shared password for the whole admin
surface. The hash is written to the configured store, replacing any
previously set password.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.toml",
				Usage:   "Path to the configuration file",
				EnvVars: []string{"ADBOARD_CONFIG"},
			},
		},
		Action: func(ctx *cli.Context) error {
			password, err := prompt.New().Ask("New password:").Input("", input.WithEchoMode(input.EchoNone))
			if err != nil {
				return err
			}

			confirm, err := prompt.New().Ask("Repeat password:").Input("", input.WithEchoMode(input.EchoNone))
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			cfg, err := config.LoadConfigOrDefault(ctx.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			st, err := openStore(cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			gate := auth.NewGate(st, cfg.Auth.PasswordHash, cfg.Auth.JwtSecret, cfg.Auth.TokenTTL.Duration)
			if err := gate.SetPassword(password); err != nil {
				return fmt.Errorf("failed to store password: %w", err)
			}

			fmt.Println("Password updated")
			return nil
		},
	}
}
