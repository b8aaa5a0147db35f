package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/object"
	"github.com/safing/rpsldb/rpsl"
)

func classAndKey(c *cli.Context) (class, key string, err error) {
	if c.NArg() != 2 {
		return "", "", errors.New("expected CLASS and KEY")
	}
	return c.Args().Get(0), c.Args().Get(1), nil
}

func runGet(c *cli.Context) error {
	m := getMetadata(c)
	class, key, err := classAndKey(c)
	if err != nil {
		return err
	}

	return withDatabase(c, func(db *database.Database) error {
		obj, err := db.Fetch(context.Background(), class, key)
		if err != nil {
			return err
		}
		if c.Bool("json") {
			return printJSON(m.w, obj)
		}
		_, err = fmt.Fprint(m.w, rpsl.Format(obj))
		return err
	})
}

func runDelete(c *cli.Context) error {
	m := getMetadata(c)
	class, key, err := classAndKey(c)
	if err != nil {
		return err
	}

	return withDatabase(c, func(db *database.Database) error {
		err := db.Delete(context.Background(), object.New(class, key))
		if err != nil {
			return err
		}
		fmt.Fprintf(m.w, "deleted %s: %s\n", class, key)
		return nil
	})
}
