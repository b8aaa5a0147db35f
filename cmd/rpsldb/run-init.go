package main

import (
	"context"

	"github.com/urfave/cli"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/rpsl"
)

func runInit(c *cli.Context) error {
	m := getMetadata(c)

	err := withDatabase(c, func(db *database.Database) error {
		manifest, err := db.Manifest(context.Background())
		if err != nil {
			return err
		}
		_, err = m.w.Write([]byte(rpsl.Format(manifest)))
		return err
	})
	if err != nil {
		return err
	}

	// Remember the storage settings given on the command line.
	m.save = m.config.Path() != ""
	return nil
}
