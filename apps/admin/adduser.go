package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/campusflow/core"
	"github.com/trezcool/campusflow/core/user"
)

// addUser updates or creates a user.User. New students get their documents & fee provisioned.
func (cli *commandLine) addUser(email, name, pwd string, isAdmin bool) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	role := user.RoleStudent
	if isAdmin {
		role = user.RoleAdmin
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			return err
		}
		_, err = cli.usrSvc.Register(ctx, user.NewUser{
			Email:    email,
			Password: pwd,
			FullName: core.CleanString(name),
			Role:     role,
		})
		return err
	}

	if isAdmin {
		usr.Role = user.RoleAdmin
	}
	if name = core.CleanString(name); name != "" {
		usr.FullName = name
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}
