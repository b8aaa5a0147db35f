package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/urfave/cli"

	"github.com/safing/rpsldb/database"
	"github.com/safing/rpsldb/log"
	"github.com/safing/rpsldb/rpsl"
)

func runImport(c *cli.Context) error {
	m := getMetadata(c)
	if c.NArg() == 0 {
		return errors.New("no files given")
	}
	batch := c.Int("batch")
	if batch <= 0 {
		return fmt.Errorf("invalid batch size: %d", batch)
	}

	return withDatabase(c, func(db *database.Database) error {
		var result *multierror.Error
		for _, file := range c.Args() {
			saved, err := importFile(db, file, batch)
			if err != nil {
				result = multierror.Append(result, err)
			}
			fmt.Fprintf(m.w, "%s: imported %d objects\n", file, saved)
		}
		return result.ErrorOrNil()
	})
}

// importFile saves all objects of file, committing every batch objects.
// Invalid objects are skipped and reported.
func importFile(db *database.Database, file string, batch int) (saved int, err error) {
	f, err := os.Open(file)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = f.Close()
	}()

	s, err := db.Session(context.Background())
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = s.Close()
	}()

	var result *multierror.Error
	reader := rpsl.NewReader(f)
	pending := 0
	for {
		obj, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return saved, multierror.Append(result, fmt.Errorf("%s: %w", file, err))
		}

		_, err = s.Save(obj)
		switch {
		case err == nil:
			pending++
		case database.IsValidation(err):
			log.Warningf("import: skipping %s: %s: %s", obj.Class(), obj.Key(), err)
			result = multierror.Append(result, fmt.Errorf("%s: %s: %s: %w", file, obj.Class(), obj.Key(), err))
			continue
		default:
			return saved, multierror.Append(result, fmt.Errorf("%s: %w", file, err))
		}

		if pending >= batch {
			if err := s.Commit(); err != nil {
				return saved, multierror.Append(result, err)
			}
			saved += pending
			pending = 0
		}
	}

	if err := s.Commit(); err != nil {
		return saved, multierror.Append(result, err)
	}
	saved += pending
	return saved, result.ErrorOrNil()
}
