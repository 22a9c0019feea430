package main

import (
	"context"
)

// addAdmin creates or updates the admin account keyed by username.
func (cli *commandLine) addAdmin(username, name, email, pwd string, isSuper bool) error {
	_, err := cli.adminSvc.Add(context.Background(), username, name, email, pwd, isSuper)
	return err
}
