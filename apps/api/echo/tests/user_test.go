package tests

import (
	"net/http"
	"testing"

	"github.com/studyfocus/focus/core/user"
	"github.com/studyfocus/focus/tests"
)

func Test_userApi_me(t *testing.T) {
	app := setup(t)
	usr := testutil.CreateUser(t, app.usrRepo, "Ada", "ada@test.kr", 7)
	ghost := user.User{ID: 4242, Name: "Ghost", Email: "ghost@test.kr"}

	tests := []httpTest{
		{name: "auth required", path: "/v1/users/me", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "me", path: "/v1/users/me", token: getToken(t, app.conf, usr), wantCode: http.StatusOK, wantData: marshalObj(t, usr)},
		{
			name: "deleted user", path: "/v1/users/me", token: getToken(t, app.conf, ghost),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: user.ErrNotFound.Error()}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, app.do(tt))
		})
	}
}

func Test_home(t *testing.T) {
	app := setup(t)

	rec := app.do(httpTest{path: "/"})
	if rec.Code != http.StatusOK || rec.Body.String() != "Welcome to Focus API!" {
		t.Errorf("home: code = %d, body = %q", rec.Code, rec.Body.String())
	}

	rec = app.do(httpTest{path: "/metrics"})
	if rec.Code != http.StatusOK {
		t.Errorf("metrics: code = %d", rec.Code)
	}
}
