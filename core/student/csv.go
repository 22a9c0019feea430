package student

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hagwon/portal/core"
)

// RosterColumns is the fixed roster CSV column order.
var RosterColumns = []string{
	"student_id",
	"name",
	"login_id",
	"login_password",
	"parent_id",
	"parent_password",
	"email",
	"class",
}

// maxImportErrors bounds the per-record error list returned to the caller.
const maxImportErrors = 5

// ImportResult reports the outcome of a roster import. Valid rows are
// applied even when other rows fail validation; Errors holds at most the
// first maxImportErrors failures.
type ImportResult struct {
	Imported int      `json:"imported"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// WriteRoster writes the full roster CSV, header first.
func (svc *Service) WriteRoster(ctx context.Context, w io.Writer) error {
	students, err := svc.repo.QueryAllStudents(ctx)
	if err != nil {
		return errors.Wrap(err, "querying roster")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(RosterColumns); err != nil {
		return errors.Wrap(err, "writing roster header")
	}
	for _, st := range students {
		row := []string{
			st.StudentID,
			st.Name,
			st.LoginID,
			st.LoginPassword,
			st.ParentID,
			st.ParentPassword,
			st.Email.String,
			st.Class,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrapf(err, "writing roster row %s", st.StudentID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing roster")
}

// ImportRoster reads a roster CSV and upserts each valid row by student_id.
// Rows missing required fields are rejected individually; the first
// maxImportErrors rejection reasons are returned. A leading header row is
// skipped.
func (svc *Service) ImportRoster(ctx context.Context, r io.Reader) (ImportResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row length validated per record

	var res ImportResult
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return res, errors.Wrap(err, "reading roster")
		}
		line++
		if line == 1 && len(row) > 0 && row[0] == RosterColumns[0] {
			continue // header
		}

		st, err := rosterRow(row)
		if err != nil {
			res.Rejected++
			if len(res.Errors) < maxImportErrors {
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
			}
			continue
		}
		if _, err := svc.repo.UpsertStudentByStudentID(ctx, st); err != nil {
			res.Rejected++
			if len(res.Errors) < maxImportErrors {
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", line, err))
			}
			continue
		}
		res.Imported++
	}
	return res, nil
}

func rosterRow(row []string) (Student, error) {
	if len(row) < len(RosterColumns) {
		return Student{}, errors.Errorf("expected %d columns, got %d", len(RosterColumns), len(row))
	}
	required := map[string]string{
		"student_id":      row[0],
		"name":            row[1],
		"login_id":        row[2],
		"login_password":  row[3],
		"parent_id":       row[4],
		"parent_password": row[5],
	}
	for _, col := range RosterColumns[:6] {
		if core.CleanString(required[col]) == "" {
			return Student{}, errors.Errorf("missing required field %s", col)
		}
	}

	now := time.Now().UTC()
	return Student{
		ID:             uuid.New().String(),
		StudentID:      core.CleanString(row[0]),
		Name:           core.CleanString(row[1]),
		LoginID:        core.CleanString(row[2]),
		LoginPassword:  row[3],
		ParentID:       core.CleanString(row[4]),
		ParentPassword: row[5],
		Email:          core.CleanNullString(row[6], true),
		Class:          core.CleanString(row[7]),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
