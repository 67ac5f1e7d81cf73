package cmd

import (
	"fmt"

	"adboard/store"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Description: `Runs database migrations on the configured sqlite database. Will create
the database if it does not exist.

With --from-dir the contents of a file-store data directory are copied
into the database afterwards, for switching a deployment from file to
sqlite storage.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "SQLite database file",
				EnvVars: []string{"ADBOARD_DATABASE"},
				Value:   "adboard.db",
			},
			&cli.StringFlag{
				Name:    "from-dir",
				Usage:   "File-store data directory to copy into the database",
				EnvVars: []string{"ADBOARD_DATA_DIR"},
			},
		},
		Action: func(ctx *cli.Context) error {
			fmt.Printf("Database configured: %s\n", ctx.String("database"))
			if err := store.Migrate(ctx.String("database")); err != nil {
				return err
			}
			if dir := ctx.String("from-dir"); dir != "" {
				return copyFileStore(dir, ctx.String("database"))
			}
			return nil
		},
	}
}

// copyFileStore moves every key of a file-store directory into the sqlite
// database. Existing keys are overwritten.
func copyFileStore(dir, database string) error {
	src, err := store.NewFileStore(dir)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := store.NewSQLiteStore(database)
	if err != nil {
		return err
	}
	defer dst.Close()

	keys, err := src.Keys("")
	if err != nil {
		return err
	}

	for _, key := range keys {
		value, found, err := src.Get(key)
		if err != nil {
			return fmt.Errorf("read %s: %w", key, err)
		}
		if !found {
			continue
		}
		if err := dst.Set(key, value); err != nil {
			return fmt.Errorf("copy %s: %w", key, err)
		}
	}

	log.WithFields(log.Fields{"keys": len(keys), "dir": dir}).Info("Copied file store into database")
	return nil
}

func rollbackCmd() *cli.Command {
	return &cli.Command{
		Name:        "rollback",
		Usage:       "Rollback database migration",
		Description: `Rolls back the last database migration`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Aliases: []string{"d"},
				Usage:   "SQLite database file",
				EnvVars: []string{"ADBOARD_DATABASE"},
				Value:   "adboard.db",
			},
		},
		Action: func(ctx *cli.Context) error {
			fmt.Printf("Database configured: %s\n", ctx.String("database"))
			return store.Rollback(ctx.String("database"))
		},
	}
}
