package tests

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hagwon/portal/core/student"
	testutil "github.com/hagwon/portal/tests"
)

func TestAuth_adminLogin(t *testing.T) {
	app := setup(t)
	_ = app.adminToken(t) // creates the "boss" account

	tests := []httpTest{
		{
			name: "empty payload", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown username", body: []byte(`{"username":"nobody","password":"s3cret!"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: []byte(`{"username":"boss","password":"nope"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "ok", body: []byte(`{"username":"boss","password":"s3cret!"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/login", tt.body)
			app.server.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func TestAuth_adminLoginSetsLastLogin(t *testing.T) {
	app := setup(t)
	_ = app.adminToken(t)

	req, rec := newRequest(http.MethodPost, "/v1/auth/login", []byte(`{"username":"boss","password":"s3cret!"}`))
	app.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	adm, err := app.adminSvc.GetByUsername(context.Background(), "boss")
	require.NoError(t, err)
	assert.True(t, adm.LastLogin.Valid)
}

func TestAuth_portalLogin(t *testing.T) {
	app := setup(t)
	st := testutil.CreateStudent(t, app.studentRepo, "A001", "Kim Minji", "A", "minji@test.kr")

	login := func(loginID, pwd, role string) []byte {
		return []byte(`{"login_id":"` + loginID + `","password":"` + pwd + `","role":"` + role + `"}`)
	}

	tests := []httpTest{
		{name: "bad role", body: login(st.LoginID, st.LoginPassword, "teacher"), wantCode: http.StatusBadRequest},
		{
			name: "student creds with parent role", body: login(st.LoginID, st.LoginPassword, student.RoleParent),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: login(st.LoginID, "nope", student.RoleStudent),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{name: "student ok", body: login(st.LoginID, st.LoginPassword, student.RoleStudent), wantCode: http.StatusOK},
		{name: "parent ok", body: login(st.ParentID, st.ParentPassword, student.RoleParent), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/auth/portal-login", tt.body)
			app.server.ServeHTTP(rec, req)
			if rec.Code != tt.wantCode {
				t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func TestAuth_tokenRefresh(t *testing.T) {
	app := setup(t)
	token := app.adminToken(t)

	t.Run("requires auth", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/token-refresh")
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns a fresh token", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/auth/token-refresh", token)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "token")
	})
}
