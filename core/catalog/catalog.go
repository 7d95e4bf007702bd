package catalog

import (
	"context"
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/course"
	"github.com/trezcool/campusflow/core/hostel"
)

//go:embed seed.yaml
var seedYAML []byte

// Catalog holds the courses & hostels a fresh installation starts with.
type Catalog struct {
	Courses []course.NewCourse `yaml:"courses"`
	Hostels []hostel.NewHostel `yaml:"hostels"`
}

// Default parses the embedded seed catalog.
func Default() (Catalog, error) {
	return Parse(seedYAML)
}

func Parse(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, errors.Wrap(err, "parsing catalog")
	}
	return c, nil
}

type (
	CourseSeeder interface {
		Seed(ctx context.Context, catalog []course.NewCourse) (int, error)
	}

	HostelSeeder interface {
		Seed(ctx context.Context, catalog []hostel.NewHostel) (int, error)
	}
)

// Seed adds the catalog's courses and hostels to empty collections.
func Seed(ctx context.Context, c Catalog, courses CourseSeeder, hostels HostelSeeder, logger core.Logger) error {
	n, err := courses.Seed(ctx, c.Courses)
	if err != nil {
		return errors.Wrap(err, "seeding courses")
	}
	if n > 0 {
		logger.Info("seeded courses", map[string]interface{}{"count": n})
	}

	n, err = hostels.Seed(ctx, c.Hostels)
	if err != nil {
		return errors.Wrap(err, "seeding hostels")
	}
	if n > 0 {
		logger.Info("seeded hostels", map[string]interface{}{"count": n})
	}
	return nil
}
