package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/safing/rpsldb/api"
	"github.com/safing/rpsldb/config"
	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/info"
)

func runReindex(c *cli.Context) error {
	m := getMetadata(c)

	return withDatabase(c, func(db *database.Database) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := db.Reindex(ctx); err != nil {
			return err
		}
		fmt.Fprintln(m.w, "reindex complete")
		return nil
	})
}

func runServe(c *cli.Context) error {
	m := getMetadata(c)
	listen := c.String("listen")
	if listen == "" {
		listen = m.config.GetString(config.KeyListen, config.DefaultListen)
	}

	return withDatabase(c, func(db *database.Database) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return api.NewServer(db).ListenAndServe(ctx, listen)
	})
}

func runConfigGet(c *cli.Context) error {
	m := getMetadata(c)
	key, err := singleArg(c, "KEY")
	if err != nil {
		return err
	}

	value := m.config.Value(key)
	if value == "" {
		return fmt.Errorf("no such configuration key: %s", key)
	}
	fmt.Fprintln(m.w, value)
	return nil
}

func runConfigSet(c *cli.Context) error {
	m := getMetadata(c)
	if c.NArg() != 2 {
		return fmt.Errorf("expected KEY and VALUE")
	}

	err := m.config.SetString(c.Args().Get(0), c.Args().Get(1))
	if err != nil {
		return err
	}
	m.save = true
	return nil
}

func runVersion(c *cli.Context) error {
	fmt.Fprintln(c.App.Writer, info.FullVersion())
	return nil
}
