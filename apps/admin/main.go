package main

import (
	"log"
	"os"

	dig_container "github.com/trezcool/campusflow/apps/api/di/dig"
	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/course"
	"github.com/trezcool/campusflow/core/hostel"
	"github.com/trezcool/campusflow/core/user"
	"github.com/trezcool/campusflow/storage/database/mongodb"
)

func main() {
	c := dig_container.New()

	var code int
	err := c.Invoke(func(
		logger core.Logger,
		db *mongodb.DB,
		usrSvc *user.Service,
		courses *course.Service,
		hostels *hostel.Service,
	) {
		cli := commandLine{
			db:      db,
			usrSvc:  usrSvc,
			courses: courses,
			hostels: hostels,
			logger:  logger,
		}
		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				logger.Error("admin command failed: "+err.Error(), err)
			}
			code = 1
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(code)
}
