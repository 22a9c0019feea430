package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/admin"
	"github.com/hagwon/portal/core/notice"
	"github.com/hagwon/portal/core/score"
	"github.com/hagwon/portal/core/student"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf       *core.Config
	db         *sql.DB
	out        io.Writer
	studentSvc *student.Service
	scoreSvc   *score.Service
	noticeSvc  *notice.Service
	adminSvc   *admin.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  addadmin -username USERNAME -name NAME -email EMAIL [-super] - add or update an admin account; the password is prompted")
	fmt.Println("  roster [-class CLASS] [-search TERM] [-export FILE] [-import FILE] - list, export or import the student roster")
	fmt.Println("  seeddemo - seed demo accounts, sample scores and a notice (non-PROD only)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ExitOnError)
	addAdminUname := addAdminCmd.String("username", "", "The admin's username. The password will be prompted next.")
	addAdminName := addAdminCmd.String("name", "", "The admin's display name.")
	addAdminEmail := addAdminCmd.String("email", "", "The admin's email address.")
	addAdminSuper := addAdminCmd.Bool("super", false, "Grant super admin privileges.")

	rosterCmd := flag.NewFlagSet("roster", flag.ExitOnError)
	rosterClass := rosterCmd.String("class", "", "Only list students of this class.")
	rosterSearch := rosterCmd.String("search", "", "Only list students matching this name or student number.")
	rosterExport := rosterCmd.String("export", "", "Write the roster CSV to this file instead of listing.")
	rosterImport := rosterCmd.String("import", "", "Import a roster CSV from this file instead of listing.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminUname == "" || *addAdminName == "" || *addAdminEmail == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addAdminCmd.Usage()
			return errHelp
		}
		return cli.addAdmin(*addAdminUname, *addAdminName, *addAdminEmail, string(pwd), *addAdminSuper)
	case "roster":
		if err := rosterCmd.Parse(args[2:]); err != nil {
			return err
		}
		switch {
		case *rosterExport != "":
			return cli.exportRoster(*rosterExport)
		case *rosterImport != "":
			return cli.importRoster(*rosterImport)
		default:
			return cli.printRoster(*rosterClass, *rosterSearch)
		}
	case "seeddemo":
		return cli.seedDemo()
	default:
		cli.printUsage()
		return errHelp
	}
}
