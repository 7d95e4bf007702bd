package main

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core/catalog"
)

func (cli *commandLine) migrate() error {
	return errors.Wrap(cli.db.EnsureIndexes(context.Background()), "creating indexes")
}

// seed adds the built-in catalog, or the one in file, to empty collections.
func (cli *commandLine) seed(file string) error {
	var (
		cat catalog.Catalog
		err error
	)
	if file == "" {
		cat, err = catalog.Default()
	} else {
		var data []byte
		if data, err = os.ReadFile(file); err != nil {
			return errors.Wrap(err, "reading catalog")
		}
		cat, err = catalog.Parse(data)
	}
	if err != nil {
		return err
	}
	return catalog.Seed(context.Background(), cat, cli.courses, cli.hostels, cli.logger)
}
