package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/student"
)

var parseTemplatesOnce sync.Once

// NewConfig returns a self-contained config for tests, with the embedded
// email templates parsed.
func NewConfig() *core.Config {
	conf := &core.Config{
		Env:              "TEST",
		Debug:            false,
		TestMode:         true,
		Build:            "test",
		AppName:          "Hagwon Portal",
		SecretKey:        "test-secret-key",
		FrontendBaseURL:  "http://localhost:8080",
		DefaultFromEmail: "noreply@localhost",
	}
	conf.Server.JWTExpirationDelta = 4 * time.Hour
	conf.Server.JWTRefreshExpirationDelta = 7 * 24 * time.Hour

	parseTemplatesOnce.Do(func() {
		core.ParseEmailTemplates(conf, NopLogger{})
	})
	return conf
}

// NopLogger drops everything. Tests assert on outcomes, not log lines.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Enable(bool)                        {}
func (NopLogger) Debug(string, ...interface{})       {}
func (NopLogger) Info(string, ...interface{})        {}
func (NopLogger) Warn(string, ...interface{})        {}
func (NopLogger) Error(string, ...interface{})       {}
func (NopLogger) Fatal(msg string, _ ...interface{}) { panic(msg) }

// CreateStudent inserts a roster row with generated credentials.
func CreateStudent(t *testing.T, repo student.Repository, studentID, name, class, email string) student.Student {
	t.Helper()
	now := time.Now().UTC()
	st := student.Student{
		ID:             studentID + "-uuid",
		StudentID:      studentID,
		Name:           name,
		Class:          class,
		LoginID:        studentID + "-login",
		LoginPassword:  studentID + "-pwd",
		ParentID:       studentID + "-parent",
		ParentPassword: studentID + "-parent-pwd",
		Email:          null.NewString(email, email != ""),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	st, err := repo.CreateStudent(context.Background(), st)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return st
}
