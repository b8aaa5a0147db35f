package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/safing/rpsldb/config"
	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/info"
	"github.com/safing/rpsldb/log"
)

type metadata struct {
	config *config.Config
	save   bool
	e      io.Writer
	w      io.Writer
}

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "dev build"

func main() {
	info.Set("rpsldb", version, "GPLv3")

	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func newApp(w, e io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "rpsldb"
	app.Usage = "indexed RPSL object store"
	app.Version = version
	app.HideVersion = true

	app.Writer = w
	app.ErrWriter = e

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Value: "",
			Usage: " configuration `FILE` (json or yaml)",
		},
		cli.StringFlag{
			Name:  "data, d",
			Value: "",
			Usage: " storage `DIR`, overrides the configured location",
		},
		cli.StringFlag{
			Name:  "storage, s",
			Value: "",
			Usage: " storage `TYPE` [bbolt|badger|leveldb|hashmap]",
		},
		cli.StringFlag{
			Name:  "name, n",
			Value: "",
			Usage: " registry `NAME`",
		},
		cli.StringFlag{
			Name:  "log, l",
			Value: "",
			Usage: " log `LEVEL` [trace|debug|info|warning|error|critical]",
		},
	}
	app.Commands = commands()

	// read the configuration
	app.Before = func(c *cli.Context) error {
		cfg := config.New()
		if file := c.GlobalString("config"); file != "" {
			if err := cfg.Load(file); err != nil {
				return err
			}
		}

		log.SetOutput(c.App.ErrWriter)
		level := cfg.LogLevel()
		if name := c.GlobalString("log"); name != "" {
			level = log.ParseLevel(name)
			if level == 0 {
				return fmt.Errorf("unknown log level: %q", name)
			}
		}
		log.SetLogLevel(level)
		if err := log.Start(); err != nil {
			return err
		}

		c.App.Metadata["config"] = &metadata{
			config: cfg,
			e:      c.App.ErrWriter,
			w:      c.App.Writer,
		}
		return nil
	}

	// update the configuration if required
	app.After = func(c *cli.Context) error {
		defer log.Shutdown()

		m, ok := c.App.Metadata["config"].(*metadata)
		if !ok || !m.save {
			return nil
		}
		if m.config.Path() == "" {
			return fmt.Errorf("no configuration file given, use --config")
		}
		log.Debugf("updating config file: %s", m.config.Path())
		return m.config.Save()
	}

	return app
}

func getMetadata(c *cli.Context) *metadata {
	return c.App.Metadata["config"].(*metadata) //nolint:forcetypeassert
}

// databaseConfig applies the global flags to the configured database settings.
func databaseConfig(c *cli.Context) (database.Config, error) {
	m := getMetadata(c)
	for flag, key := range map[string]string{
		"data":    config.KeyLocation,
		"storage": config.KeyStorage,
		"name":    config.KeyName,
	} {
		if value := c.GlobalString(flag); value != "" {
			if err := m.config.Set(key, value); err != nil {
				return database.Config{}, err
			}
		}
	}
	return m.config.Database()
}

func openDatabase(c *cli.Context) (*database.Database, error) {
	cfg, err := databaseConfig(c)
	if err != nil {
		return nil, err
	}
	return database.Open(cfg)
}

// withDatabase opens the database, runs fn and closes it.
func withDatabase(c *cli.Context, fn func(db *database.Database) error) (err error) {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close()
		if err == nil {
			err = closeErr
		}
	}()

	return fn(db)
}
