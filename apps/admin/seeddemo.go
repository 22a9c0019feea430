package main

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/hagwon/portal/core/notice"
	"github.com/hagwon/portal/core/score"
	"github.com/hagwon/portal/core/student"
)

var errSeedForbidden = errors.New("demo seeding is disabled: set ALLOW_DEMO_SEED=true (never in PROD)")

// seedDemo loads a demo admin, two students and one scored sitting so a
// fresh environment has something to look at. Refused in PROD.
func (cli *commandLine) seedDemo() error {
	if !cli.conf.AllowDemoSeed || cli.conf.Env == "PROD" {
		return errSeedForbidden
	}
	ctx := context.Background()

	if _, err := cli.adminSvc.Add(ctx, "demo-admin", "Demo Admin", "demo-admin@localhost", "demo-pass", false); err != nil {
		return errors.Wrap(err, "seeding demo admin")
	}

	students := []student.NewStudent{
		{
			StudentID:      "DEMO001",
			Name:           "Demo Student One",
			Class:          "A",
			LoginID:        "demo1",
			LoginPassword:  "demo1-pass",
			ParentID:       "demo1p",
			ParentPassword: "demo1p-pass",
			Email:          "demo1@localhost",
		},
		{
			StudentID:      "DEMO002",
			Name:           "Demo Student Two",
			Class:          "A",
			LoginID:        "demo2",
			LoginPassword:  "demo2-pass",
			ParentID:       "demo2p",
			ParentPassword: "demo2p-pass",
			Email:          "demo2@localhost",
		},
	}
	for _, ns := range students {
		if _, err := cli.studentSvc.Create(ctx, ns); err != nil {
			return errors.Wrapf(err, "seeding student %s", ns.StudentID)
		}
	}

	testDate := time.Now().UTC().Truncate(24 * time.Hour)
	records := []score.TestScoreRecord{
		{
			StudentID:    "DEMO001",
			TestName:     "demo mock exam",
			TestDate:     testDate,
			Anatomy:      null.Float64From(15),
			Physiology:   null.Float64From(14),
			BasicNursing: null.Float64From(40),
			AdultNursing: null.Float64From(48),
		},
		{
			StudentID:    "DEMO002",
			TestName:     "demo mock exam",
			TestDate:     testDate,
			Anatomy:      null.Float64From(12),
			Physiology:   null.Float64From(11),
			BasicNursing: null.Float64From(35),
			AdultNursing: null.Float64From(40),
		},
	}
	for _, rec := range records {
		if _, err := cli.scoreSvc.SaveScore(ctx, rec); err != nil {
			return errors.Wrapf(err, "seeding score for %s", rec.StudentID)
		}
	}

	if _, err := cli.noticeSvc.Create(ctx, notice.NewNotice{
		Title:      "Welcome to the demo portal",
		Content:    "Demo accounts and a scored mock exam sitting have been loaded.",
		TargetType: notice.TargetAll,
	}); err != nil {
		return errors.Wrap(err, "seeding demo notice")
	}

	color.Green("demo data seeded: 1 admin, %d students, %d score records, 1 notice", len(students), len(records))
	return nil
}
