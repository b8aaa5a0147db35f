package main

import (
	"context"

	"github.com/urfave/cli"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/rpsl"
)

func runExport(c *cli.Context) error {
	m := getMetadata(c)

	return withDatabase(c, func(db *database.Database) error {
		objs, err := db.Find(context.Background(), nil, c.StringSlice("class"), database.AnyKey)
		if err != nil {
			return err
		}

		w := rpsl.NewWriter(m.w)
		for _, obj := range objs {
			if err := w.Write(obj); err != nil {
				return err
			}
		}
		return w.Flush()
	})
}
