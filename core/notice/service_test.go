package notice_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagwon/portal/core/notice"
	"github.com/hagwon/portal/core/student"
	emailsvc "github.com/hagwon/portal/services/email"
	dummydb "github.com/hagwon/portal/storage/database/dummy"
	testutil "github.com/hagwon/portal/tests"
)

func setup(t *testing.T) (*notice.Service, student.Repository, *emailsvc.ServiceMock) {
	t.Helper()
	db, err := dummydb.Open()
	require.NoError(t, err)

	conf := testutil.NewConfig()
	stuRepo := dummydb.NewStudentRepository(db)
	mailSvc := emailsvc.NewServiceMock(conf)
	svc := notice.NewService(dummydb.NewNoticeRepository(db), stuRepo, mailSvc, conf, testutil.NopLogger{})
	return svc, stuRepo, mailSvc
}

func createNotice(t *testing.T, svc *notice.Service, targetType, targetClass string) notice.Notice {
	t.Helper()
	ntc, err := svc.Create(context.Background(), notice.NewNotice{
		Title:       "Exam schedule",
		Content:     "The next mock exam is on Friday.",
		TargetType:  targetType,
		TargetClass: targetClass,
	})
	require.NoError(t, err)
	return ntc
}

func TestNoticeCreate_defaultsClass(t *testing.T) {
	svc, _, _ := setup(t)
	ntc := createNotice(t, svc, notice.TargetAll, "")
	assert.Equal(t, notice.ClassAll, ntc.TargetClass)
}

func TestResolveRecipients(t *testing.T) {
	svc, stuRepo, _ := setup(t)
	ctx := context.Background()

	withMail := testutil.CreateStudent(t, stuRepo, "A001", "Kim Minji", "A", "minji@test.kr")
	testutil.CreateStudent(t, stuRepo, "A002", "Lee Junho", "A", "") // no email
	otherClass := testutil.CreateStudent(t, stuRepo, "B001", "Park Soyeon", "B", "soyeon@test.kr")

	t.Run("all classes", func(t *testing.T) {
		recipients, err := svc.ResolveRecipients(ctx, createNotice(t, svc, notice.TargetAll, ""))
		require.NoError(t, err)
		require.Len(t, recipients, 2)
		assert.Equal(t, withMail.StudentID, recipients[0].StudentID)
		assert.Equal(t, otherClass.StudentID, recipients[1].StudentID)
	})

	t.Run("single class", func(t *testing.T) {
		recipients, err := svc.ResolveRecipients(ctx, createNotice(t, svc, notice.TargetParent, "B"))
		require.NoError(t, err)
		require.Len(t, recipients, 1)
		assert.Equal(t, otherClass.StudentID, recipients[0].StudentID)
	})

	t.Run("student notices are never emailed", func(t *testing.T) {
		recipients, err := svc.ResolveRecipients(ctx, createNotice(t, svc, notice.TargetStudent, ""))
		require.NoError(t, err)
		assert.Empty(t, recipients)
	})
}

func TestBroadcast(t *testing.T) {
	svc, stuRepo, mailSvc := setup(t)
	ctx := context.Background()

	testutil.CreateStudent(t, stuRepo, "A001", "Kim Minji", "A", "minji@test.kr")
	testutil.CreateStudent(t, stuRepo, "A002", "Lee Junho", "A", "") // silently excluded
	testutil.CreateStudent(t, stuRepo, "B001", "Park Soyeon", "B", "soyeon@test.kr")

	ntc := createNotice(t, svc, notice.TargetAll, "")
	res, err := svc.Broadcast(ctx, ntc.ID)
	require.NoError(t, err)

	assert.Equal(t, ntc.ID, res.NoticeID)
	assert.Equal(t, 2, res.Resolved)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 0, res.Failed)
	assert.True(t, mailSvc.SentTo("minji@test.kr"))
	assert.True(t, mailSvc.SentTo("soyeon@test.kr"))

	hist, err := svc.History(ctx, ntc.ID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	for _, h := range hist {
		assert.Equal(t, notice.StatusSent, h.Status)
		assert.Empty(t, h.ErrorMessage)
		assert.True(t, h.SentAt.Valid)
	}
}

func TestBroadcast_partialFailure(t *testing.T) {
	svc, stuRepo, mailSvc := setup(t)
	ctx := context.Background()

	testutil.CreateStudent(t, stuRepo, "A001", "Kim Minji", "A", "minji@test.kr")
	testutil.CreateStudent(t, stuRepo, "A002", "Lee Junho", "A", "junho@test.kr")
	mailSvc.FailAddresses["minji@test.kr"] = true

	ntc := createNotice(t, svc, notice.TargetAll, "A")
	res, err := svc.Broadcast(ctx, ntc.ID)
	require.NoError(t, err)

	// the failure does not block the remaining recipient
	assert.Equal(t, 2, res.Resolved)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, mailSvc.SentTo("junho@test.kr"))

	byEmail := make(map[string]notice.MailSendHistory)
	hist, err := svc.History(ctx, ntc.ID)
	require.NoError(t, err)
	for _, h := range hist {
		byEmail[h.Email] = h
	}
	require.Len(t, byEmail, 2)
	assert.Equal(t, notice.StatusFailed, byEmail["minji@test.kr"].Status)
	assert.NotEmpty(t, byEmail["minji@test.kr"].ErrorMessage)
	assert.Equal(t, notice.StatusSent, byEmail["junho@test.kr"].Status)
}

func TestBroadcast_rebroadcastResends(t *testing.T) {
	svc, stuRepo, mailSvc := setup(t)
	ctx := context.Background()

	testutil.CreateStudent(t, stuRepo, "A001", "Kim Minji", "A", "minji@test.kr")

	ntc := createNotice(t, svc, notice.TargetAll, "")
	_, err := svc.Broadcast(ctx, ntc.ID)
	require.NoError(t, err)
	res, err := svc.Broadcast(ctx, ntc.ID)
	require.NoError(t, err)

	// every broadcast resends; the ledger stays one row per recipient
	assert.Equal(t, 1, res.Sent)
	assert.Len(t, mailSvc.Sent, 2)
	hist, err := svc.History(ctx, ntc.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestBroadcast_studentTargetSendsNothing(t *testing.T) {
	svc, stuRepo, mailSvc := setup(t)
	ctx := context.Background()

	testutil.CreateStudent(t, stuRepo, "A001", "Kim Minji", "A", "minji@test.kr")

	ntc := createNotice(t, svc, notice.TargetStudent, "")
	res, err := svc.Broadcast(ctx, ntc.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, res.Resolved)
	assert.Equal(t, 0, res.Sent)
	assert.Empty(t, mailSvc.Sent)
}

func TestBroadcast_unknownNotice(t *testing.T) {
	svc, _, _ := setup(t)
	_, err := svc.Broadcast(context.Background(), "nope")
	assert.Equal(t, notice.ErrNotFound, err)
}
