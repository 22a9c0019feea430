package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/hagwon/portal/core/student"
)

func (cli *commandLine) printRoster(class, search string) error {
	students, err := cli.studentSvc.Filter(context.Background(), student.QueryFilter{
		Search: search,
		Class:  class,
	})
	if err != nil {
		return err
	}

	color.Yellow("\nStudent Roster (%d students)", len(students))
	table := tablewriter.NewWriter(cli.out)
	table.SetHeader([]string{"Student ID", "Name", "Class", "Login ID", "Parent ID", "Email"})

	for _, st := range students {
		table.Append([]string{
			st.StudentID,
			st.Name,
			st.Class,
			st.LoginID,
			st.ParentID,
			st.Email.String,
		})
	}

	table.Render()
	return nil
}

func (cli *commandLine) exportRoster(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := cli.studentSvc.WriteRoster(context.Background(), f); err != nil {
		return err
	}
	color.Green("roster written to %s", path)
	return nil
}

func (cli *commandLine) importRoster(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	result, err := cli.studentSvc.ImportRoster(context.Background(), f)
	if err != nil {
		return err
	}

	color.Green("imported %d students, rejected %d", result.Imported, result.Rejected)
	for _, msg := range result.Errors {
		color.Red("  %s", msg)
	}
	if result.Rejected > 0 {
		return fmt.Errorf("%d rows rejected", result.Rejected)
	}
	return nil
}
