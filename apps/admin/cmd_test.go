package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagwon/portal/core/admin"
	"github.com/hagwon/portal/core/notice"
	"github.com/hagwon/portal/core/score"
	"github.com/hagwon/portal/core/student"
	emailsvc "github.com/hagwon/portal/services/email"
	dummydb "github.com/hagwon/portal/storage/database/dummy"
	testutil "github.com/hagwon/portal/tests"
)

type cliTest struct {
	cli         *commandLine
	out         *bytes.Buffer
	studentRepo student.Repository
}

func newCLITest(t *testing.T) *cliTest {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	out := new(bytes.Buffer)
	conf := testutil.NewConfig()
	studentRepo := dummydb.NewStudentRepository(db)
	cli := &commandLine{
		conf:       conf,
		out:        out,
		studentSvc: student.NewService(studentRepo),
		scoreSvc:   score.NewService(dummydb.NewScoreRepository(db)),
		noticeSvc: notice.NewService(
			dummydb.NewNoticeRepository(db), studentRepo, emailsvc.NewServiceMock(conf), conf, testutil.NopLogger{}),
		adminSvc: admin.NewService(dummydb.NewAdminRepository(db)),
	}
	return &cliTest{cli: cli, out: out, studentRepo: studentRepo}
}

func Test_commandLine_run_usage(t *testing.T) {
	ct := newCLITest(t)

	assert.Equal(t, errHelp, ct.cli.run([]string{"admin"}))
	assert.Equal(t, errHelp, ct.cli.run([]string{"admin", "bogus"}))
	assert.Equal(t, errHelp, ct.cli.run([]string{"admin", "migrate"}))
}

func Test_commandLine_migrate(t *testing.T) {
	ct := newCLITest(t)

	var gotCommand, gotDir string
	var gotArgs []string
	origGooseRunFunc := gooseRunFunc
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommand = command
		gotDir = dir
		gotArgs = args
		return nil
	}
	defer func() { gooseRunFunc = origGooseRunFunc }()

	require.NoError(t, ct.cli.run([]string{"admin", "migrate", "up-to", "3"}))
	assert.Equal(t, "up-to", gotCommand)
	assert.Equal(t, "migrations", gotDir)
	assert.Equal(t, []string{"3"}, gotArgs)
}

func Test_commandLine_addadmin(t *testing.T) {
	ct := newCLITest(t)

	origReadPasswordFunc := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cret!"), nil }
	defer func() { readPasswordFunc = origReadPasswordFunc }()

	err := ct.cli.run([]string{"admin", "addadmin", "-username", "Boss", "-name", "The Boss", "-email", "boss@test.kr", "-super"})
	require.NoError(t, err)

	adm, err := ct.cli.adminSvc.Authenticate(context.Background(), "boss", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "boss", adm.Username) // cleaned to lowercase
	assert.True(t, adm.IsSuper)
	assert.NotEqual(t, []byte("s3cret!"), adm.PasswordHash) // never stored in clear

	// missing flags print usage instead of prompting
	err = ct.cli.run([]string{"admin", "addadmin", "-username", "boss"})
	assert.Equal(t, errHelp, err)
}

func Test_commandLine_roster(t *testing.T) {
	ct := newCLITest(t)

	testutil.CreateStudent(t, ct.studentRepo, "A001", "Kim Minji", "A", "minji@test.kr")
	testutil.CreateStudent(t, ct.studentRepo, "B001", "Park Soyeon", "B", "")

	t.Run("print", func(t *testing.T) {
		ct.out.Reset()
		require.NoError(t, ct.cli.run([]string{"admin", "roster"}))
		assert.Contains(t, ct.out.String(), "Kim Minji")
		assert.Contains(t, ct.out.String(), "Park Soyeon")
	})

	t.Run("print filtered by class", func(t *testing.T) {
		ct.out.Reset()
		require.NoError(t, ct.cli.run([]string{"admin", "roster", "-class", "A"}))
		assert.Contains(t, ct.out.String(), "Kim Minji")
		assert.NotContains(t, ct.out.String(), "Park Soyeon")
	})

	t.Run("export and import round-trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "roster.csv")
		require.NoError(t, ct.cli.run([]string{"admin", "roster", "-export", path}))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "A001")

		// import into a fresh environment
		ct2 := newCLITest(t)
		require.NoError(t, ct2.cli.run([]string{"admin", "roster", "-import", path}))

		st, err := ct2.cli.studentSvc.GetByStudentID(context.Background(), "A001")
		require.NoError(t, err)
		assert.Equal(t, "Kim Minji", st.Name)
	})

	t.Run("import with bad rows fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.csv")
		require.NoError(t, os.WriteFile(path, []byte(",No ID,l,p,pa,pp,,A\n"), 0o644))

		err := ct.cli.run([]string{"admin", "roster", "-import", path})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rejected")
	})
}

func Test_commandLine_seeddemo(t *testing.T) {
	t.Run("refused unless enabled", func(t *testing.T) {
		ct := newCLITest(t)
		ct.cli.conf.AllowDemoSeed = false
		assert.Equal(t, errSeedForbidden, ct.cli.run([]string{"admin", "seeddemo"}))
	})

	t.Run("refused in PROD", func(t *testing.T) {
		ct := newCLITest(t)
		ct.cli.conf.AllowDemoSeed = true
		ct.cli.conf.Env = "PROD"
		assert.Equal(t, errSeedForbidden, ct.cli.run([]string{"admin", "seeddemo"}))
	})

	t.Run("seeds accounts and scores", func(t *testing.T) {
		ct := newCLITest(t)
		ct.cli.conf.AllowDemoSeed = true
		ct.cli.conf.Env = "DEV"
		require.NoError(t, ct.cli.run([]string{"admin", "seeddemo"}))

		ctx := context.Background()
		_, err := ct.cli.adminSvc.GetByUsername(ctx, "demo-admin")
		assert.NoError(t, err)
		_, err = ct.cli.studentSvc.GetByStudentID(ctx, "DEMO001")
		assert.NoError(t, err)

		recs, err := ct.cli.scoreSvc.StudentScores(ctx, "DEMO002")
		require.NoError(t, err)
		require.Len(t, recs, 1)
		assert.Equal(t, 98.0, recs[0].TotalScore.Float64)

		notices, err := ct.cli.noticeSvc.QueryAll(ctx)
		require.NoError(t, err)
		assert.Len(t, notices, 1)
	})
}
