package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/admin"
	"github.com/hagwon/portal/core/notice"
	"github.com/hagwon/portal/core/score"
	"github.com/hagwon/portal/core/student"
	emailsvc "github.com/hagwon/portal/services/email"
	logsvc "github.com/hagwon/portal/services/logger"
	"github.com/hagwon/portal/storage/database"
	sqlxrepos "github.com/hagwon/portal/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	errAndDie(conf.Check())

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)
	defer func() { _ = db.Close() }()
	sdb := sqlx.NewDb(db, conf.Database.Engine)

	// start CLI
	coreLogger := logsvc.NewRollbarLogger(logger, conf)
	studentRepo := sqlxrepos.NewStudentRepository(sdb)
	cli := commandLine{
		conf:       conf,
		db:         db,
		out:        os.Stdout,
		studentSvc: student.NewService(studentRepo),
		scoreSvc:   score.NewService(sqlxrepos.NewScoreRepository(sdb)),
		noticeSvc: notice.NewService(
			sqlxrepos.NewNoticeRepository(sdb), studentRepo, emailsvc.NewConsoleService(conf), conf, coreLogger),
		adminSvc: admin.NewService(sqlxrepos.NewAdminRepository(sdb)),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
