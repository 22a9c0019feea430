package student_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagwon/portal/core/student"
	dummydb "github.com/hagwon/portal/storage/database/dummy"
	testutil "github.com/hagwon/portal/tests"
)

func setup(t *testing.T) (*student.Service, student.Repository) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)
	repo := dummydb.NewStudentRepository(db)
	return student.NewService(repo), repo
}

func TestRoster_roundTrip(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	testutil.CreateStudent(t, repo, "A001", "Kim Minji", "A", "minji@test.kr")
	testutil.CreateStudent(t, repo, "A002", "Lee Junho", "A", "")
	testutil.CreateStudent(t, repo, "B001", "Park Soyeon", "B", "soyeon@test.kr")

	var first bytes.Buffer
	require.NoError(t, svc.WriteRoster(ctx, &first))

	// header + 3 rows
	lines := strings.Split(strings.TrimSpace(first.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(student.RosterColumns, ","), lines[0])

	// re-import into a fresh service and export again; byte-identical
	svc2, _ := setup(t)
	res, err := svc2.ImportRoster(ctx, bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 0, res.Rejected)

	var second bytes.Buffer
	require.NoError(t, svc2.WriteRoster(ctx, &second))

	if first.String() != second.String() {
		diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(first.String()),
			B:        difflib.SplitLines(second.String()),
			FromFile: "exported",
			ToFile:   "reimported",
			Context:  2,
		})
		t.Errorf("roster did not round-trip:\n%s", diff)
	}
}

func TestImportRoster_upsertsByStudentID(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	existing := testutil.CreateStudent(t, repo, "A001", "Old Name", "A", "")

	csv := "A001,New Name,login1,pwd1,parent1,ppwd1,new@test.kr,B\n"
	res, err := svc.ImportRoster(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)

	st, err := svc.GetByStudentID(ctx, "A001")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, st.ID) // same row, not a duplicate
	assert.Equal(t, "New Name", st.Name)
	assert.Equal(t, "B", st.Class)
	assert.Equal(t, "new@test.kr", st.Email.String)
}

func TestImportRoster_rejectsBadRows(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	csv := strings.Join([]string{
		strings.Join(student.RosterColumns, ","), // header skipped
		"A001,Kim Minji,login1,pwd1,parent1,ppwd1,,A", // valid
		",No ID,login2,pwd2,parent2,ppwd2,,A",         // missing student_id
		"A003,,login3,pwd3,parent3,ppwd3,,A",          // missing name
		"A004,Short Row",                              // too few columns
	}, "\n")

	res, err := svc.ImportRoster(ctx, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Imported)
	assert.Equal(t, 3, res.Rejected)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "row 3")
	assert.Contains(t, res.Errors[0], "student_id")
	assert.Contains(t, res.Errors[2], "columns")

	// the valid row was still applied
	_, err = svc.GetByStudentID(ctx, "A001")
	assert.NoError(t, err)
}

func TestImportRoster_errorListCapped(t *testing.T) {
	svc, _ := setup(t)

	var sb strings.Builder
	for i := 0; i < 8; i++ {
		fmt.Fprintf(&sb, ",Missing ID %d,l%d,p%d,par%d,pp%d,,A\n", i, i, i, i, i)
	}

	res, err := svc.ImportRoster(context.Background(), strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, 8, res.Rejected)
	assert.Len(t, res.Errors, 5) // capped
}
