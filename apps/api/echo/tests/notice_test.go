package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagwon/portal/core/notice"
	"github.com/hagwon/portal/core/student"
	testutil "github.com/hagwon/portal/tests"
)

func createNoticeAPI(t *testing.T, app *testApp, token string) notice.Notice {
	t.Helper()
	body := []byte(`{"title": "Exam schedule", "content": "The next mock exam is on Friday.", "target_type": "all"}`)
	req, rec := newAuthRequest(http.MethodPost, "/v1/notices", token, body)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var ntc notice.Notice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ntc))
	return ntc
}

func TestNoticeAPI_permissions(t *testing.T) {
	app := setup(t)
	adminTok := app.adminToken(t)
	st := testutil.CreateStudent(t, app.studentRepo, "A001", "Kim Minji", "A", "")
	studentTok := app.portalToken(t, st, student.RoleStudent)

	ntc := createNoticeAPI(t, app, adminTok)

	tests := []httpTest{
		{
			name: "query requires auth", method: http.MethodGet, path: "/v1/notices",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "portal users can read", method: http.MethodGet, path: "/v1/notices", token: studentTok,
			wantCode: http.StatusOK,
		},
		{
			name: "portal users can read details", method: http.MethodGet, path: "/v1/notices/" + ntc.ID, token: studentTok,
			wantCode: http.StatusOK,
		},
		{
			name: "create requires admin", method: http.MethodPost, path: "/v1/notices", token: studentTok,
			body: []byte(`{"title":"x","content":"y","target_type":"all"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "broadcast requires admin", method: http.MethodPost, path: "/v1/notices/" + ntc.ID + "/broadcast", token: studentTok,
			wantCode: http.StatusForbidden,
		},
		{
			name: "history requires admin", method: http.MethodGet, path: "/v1/notices/" + ntc.ID + "/history", token: studentTok,
			wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestNoticeAPI_crud(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	ntc := createNoticeAPI(t, app, token)
	assert.Equal(t, notice.ClassAll, ntc.TargetClass) // defaulted

	// title and content are mandatory
	req, rec := newAuthRequest(http.MethodPost, "/v1/notices", token, []byte(`{"target_type":"all"}`))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// update
	req, rec = newAuthRequest(http.MethodPut, "/v1/notices/"+ntc.ID, token, []byte(`{"title":"Updated schedule"}`))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated notice.Notice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Updated schedule", updated.Title)
	assert.Equal(t, ntc.Content, updated.Content)

	// list
	req, rec = newAuthRequest(http.MethodGet, "/v1/notices", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var notices []notice.Notice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notices))
	assert.Len(t, notices, 1)

	// delete
	req, rec = newAuthRequest(http.MethodDelete, "/v1/notices/"+ntc.ID, token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/notices/"+ntc.ID, token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNoticeAPI_broadcast(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	testutil.CreateStudent(t, app.studentRepo, "A001", "Kim Minji", "A", "minji@test.kr")
	testutil.CreateStudent(t, app.studentRepo, "A002", "Lee Junho", "A", "") // no email
	app.mailSvc.FailAddresses["soyeon@test.kr"] = true
	testutil.CreateStudent(t, app.studentRepo, "B001", "Park Soyeon", "B", "soyeon@test.kr")

	ntc := createNoticeAPI(t, app, token)

	req, rec := newAuthRequest(http.MethodPost, "/v1/notices/"+ntc.ID+"/broadcast", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res notice.BroadcastResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 2, res.Resolved)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.True(t, app.mailSvc.SentTo("minji@test.kr"))

	req, rec = newAuthRequest(http.MethodGet, "/v1/notices/"+ntc.ID+"/history", token)
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist []notice.MailSendHistory
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist, 2)

	byEmail := make(map[string]notice.MailSendHistory, len(hist))
	for _, h := range hist {
		byEmail[h.Email] = h
	}
	assert.Equal(t, notice.StatusSent, byEmail["minji@test.kr"].Status)
	assert.Equal(t, notice.StatusFailed, byEmail["soyeon@test.kr"].Status)
}

func TestNoticeAPI_broadcastUnknownNotice(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	req, rec := newAuthRequest(http.MethodPost, "/v1/notices/nope/broadcast", token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
