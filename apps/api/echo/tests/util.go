package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/hagwon/portal/apps/api/echo"
	"github.com/hagwon/portal/core"
	"github.com/hagwon/portal/core/admin"
	"github.com/hagwon/portal/core/notice"
	"github.com/hagwon/portal/core/score"
	"github.com/hagwon/portal/core/student"
	emailsvc "github.com/hagwon/portal/services/email"
	dummydb "github.com/hagwon/portal/storage/database/dummy"
	testutil "github.com/hagwon/portal/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	conf        *core.Config
	server      Server
	studentRepo student.Repository
	scoreRepo   score.Repository
	noticeRepo  notice.Repository
	adminRepo   admin.Repository
	adminSvc    *admin.Service
	mailSvc     *emailsvc.ServiceMock
}

func setup(t *testing.T) *testApp {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup(): %v", err)
	}

	conf := testutil.NewConfig()
	logger := testutil.NopLogger{}
	mailSvc := emailsvc.NewServiceMock(conf)

	studentRepo := dummydb.NewStudentRepository(db)
	scoreRepo := dummydb.NewScoreRepository(db)
	noticeRepo := dummydb.NewNoticeRepository(db)
	adminRepo := dummydb.NewAdminRepository(db)

	adminSvc := admin.NewService(adminRepo)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	app := &testApp{
		conf:        conf,
		studentRepo: studentRepo,
		scoreRepo:   scoreRepo,
		noticeRepo:  noticeRepo,
		adminRepo:   adminRepo,
		adminSvc:    adminSvc,
		mailSvc:     mailSvc,
	}
	app.server = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		StudentSvc:     student.NewService(studentRepo),
		ScoreSvc:       score.NewService(scoreRepo),
		NoticeSvc:      notice.NewService(noticeRepo, studentRepo, mailSvc, conf, logger),
		AdminSvc:       adminSvc,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})
	return app
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (app *testApp) adminToken(t *testing.T) string {
	t.Helper()
	adm, err := app.adminSvc.Add(context.Background(), "boss", "The Boss", "boss@test.kr", "s3cret!", true)
	if err != nil {
		t.Fatalf("adminToken(): %v", err)
	}
	return app.tokenFor(t, GetAdminClaims(app.conf, adm))
}

func (app *testApp) portalToken(t *testing.T, st student.Student, role string) string {
	t.Helper()
	return app.tokenFor(t, GetPortalClaims(app.conf, st, role))
}

func (app *testApp) tokenFor(t *testing.T, claims *Claims) string {
	t.Helper()
	token, err := GenerateToken(app.conf, claims)
	if err != nil {
		t.Fatalf("tokenFor(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
