package tests

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	. "github.com/eduNEXT/extemporaneous-grading/apps/api/echo"
	"github.com/eduNEXT/extemporaneous-grading/core"
	"github.com/eduNEXT/extemporaneous-grading/core/grading"
	emailsvc "github.com/eduNEXT/extemporaneous-grading/services/email"
	logsvc "github.com/eduNEXT/extemporaneous-grading/services/logger"
	rendersvc "github.com/eduNEXT/extemporaneous-grading/services/render"
	inmemdb "github.com/eduNEXT/extemporaneous-grading/storage/database/inmem"
	"github.com/eduNEXT/extemporaneous-grading/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func setup(t *testing.T) (Server, grading.Repository, *core.Config) {
	t.Helper()

	conf := testutil.NewConfig(t)
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open(): %v", err)
	}
	repo := inmemdb.NewBlockRepository(db)
	mailSvc := emailsvc.NewDummyService(conf)
	svc := grading.NewService(repo, rendersvc.NewMarkdownRenderer(), mailSvc, conf)

	validate, translator := core.NewValidator()
	grading.RegisterValidators(validate, translator)

	logger := logsvc.NewStdLogger(log.New(os.Stderr, "TEST ", log.LstdFlags))
	logger.Enable(false)

	app := NewServer(&Options{
		Conf:       conf,
		Logger:     logger,
		GradingSvc: svc,
		Validate:   validate,
		Translator: translator,
	})
	return app, repo, conf
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

func getToken(t *testing.T, viewer grading.Student, conf *core.Config) string {
	t.Helper()
	claims := GetViewerClaims(viewer, conf)
	token, err := GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
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

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
