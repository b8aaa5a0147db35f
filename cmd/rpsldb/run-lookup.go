package main

import (
	"context"
	"errors"

	"github.com/urfave/cli"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/object"
	"github.com/safing/rpsldb/rpsl"
)

func singleArg(c *cli.Context, name string) (string, error) {
	if c.NArg() != 1 {
		return "", errors.New("expected " + name)
	}
	return c.Args().Get(0), nil
}

func runRoute(c *cli.Context) error {
	address, err := singleArg(c, "ADDRESS")
	if err != nil {
		return err
	}

	return withDatabase(c, func(db *database.Database) error {
		specs, err := db.LookupRoute(context.Background(), address, c.Int("limit"))
		if err != nil {
			return err
		}
		printSpecs(getMetadata(c).w, specs)
		return nil
	})
}

func runInetnum(c *cli.Context) error {
	address, err := singleArg(c, "ADDRESS")
	if err != nil {
		return err
	}
	relation, err := database.ParseRelation(c.String("relation"))
	if err != nil {
		return err
	}
	order, err := database.ParseOrder(c.String("order"))
	if err != nil {
		return err
	}

	return withDatabase(c, func(db *database.Database) error {
		specs, err := db.LookupInetnum(context.Background(), address, relation, order, c.Int("limit"))
		if err != nil {
			return err
		}
		printSpecs(getMetadata(c).w, specs)
		return nil
	})
}

func runASBlock(c *cli.Context) error {
	value, err := singleArg(c, "ASN")
	if err != nil {
		return err
	}
	asn, err := object.ParseASN(value)
	if err != nil {
		return err
	}

	return withDatabase(c, func(db *database.Database) error {
		specs, err := db.LookupASBlock(context.Background(), asn)
		if err != nil {
			return err
		}
		printSpecs(getMetadata(c).w, specs)
		return nil
	})
}

func runDomain(c *cli.Context) error {
	name, err := singleArg(c, "NAME")
	if err != nil {
		return err
	}

	return withDatabase(c, func(db *database.Database) error {
		specs, err := db.LookupDomain(context.Background(), name)
		if err != nil {
			return err
		}
		printSpecs(getMetadata(c).w, specs)
		return nil
	})
}

func runInverse(c *cli.Context) error {
	m := getMetadata(c)
	if c.NArg() != 2 {
		return errors.New("expected KEY and VALUE")
	}
	key, value := c.Args().Get(0), c.Args().Get(1)

	return withDatabase(c, func(db *database.Database) error {
		objs, err := db.SearchInverse(context.Background(), []string{key}, []string{value}, c.StringSlice("class"))
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
