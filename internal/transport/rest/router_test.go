package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizfunnel/internal/config"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/repository"
	"quizfunnel/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	cfg     *config.Config
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := config.Default()
	log := logger.Nop()
	store := repository.NewMemoryStore()

	authSvc := service.NewAuthService(cfg)
	quizSvc := service.NewQuizService(store.Quizzes, store.Steps, log)
	sessionSvc := service.NewSessionService(store.Quizzes, store.Steps, store.Sessions, store.Leads, authSvc, log)
	reportSvc := service.NewReportService(quizSvc, store.Sessions, store.Leads)

	return &testAPI{
		t:   t,
		cfg: cfg,
		handler: NewRouter(&Container{
			AuthService:    authSvc,
			QuizService:    quizSvc,
			SessionService: sessionSvc,
			ReportService:  reportSvc,
			CORS:           cfg.CORS,
			Logger:         log,
		}),
	}
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (a *testAPI) login() string {
	rec := a.do("POST", "/v1/auth/login", "", model.LoginRequest{Username: a.cfg.AuthorUsername, Password: a.cfg.AuthorPassword})
	require.Equal(a.t, http.StatusOK, rec.Code)
	var resp model.LoginResponse
	decode(a.t, rec, &resp)
	return resp.Token
}

// publishQuiz builds question -> capture -> result with a rule on the question
func (a *testAPI) publishQuiz(author string) (quiz model.Quiz, question, capture, result model.Step) {
	rec := a.do("POST", "/v1/quizzes", author, map[string]string{"title": "Plan Finder", "slug": "plan-finder"})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	decode(a.t, rec, &quiz)

	addStep := func(body string) model.Step {
		req := httptest.NewRequest("POST", "/v1/quizzes/"+quiz.ID+"/steps", bytes.NewBufferString(body))
		req.Header.Set("Authorization", "Bearer "+author)
		rec := httptest.NewRecorder()
		a.handler.ServeHTTP(rec, req)
		require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
		var st model.Step
		decode(a.t, rec, &st)
		return st
	}

	question = addStep(`{"type":"QUESTION","question":{"text":"Ready?","options":[{"text":"Yes","value":"yes"},{"text":"No","value":"no"}]}}`)
	capture = addStep(`{"type":"CAPTURE","metadata":{"captureFields":{"phone":false}}}`)
	result = addStep(`{"type":"RESULT"}`)

	question.Metadata.Rules = []model.Rule{{
		ID:         "to-result",
		Conditions: []model.Condition{{Type: model.ConditionAnswer, Source: question.ID, Operator: model.OpEq, Value: "yes"}},
		Actions: []model.Action{
			{Type: model.ActionGoto, Target: result.ID},
			{Type: model.ActionScore, Value: 10},
			{Type: model.ActionMessage, Value: "Great pick"},
		},
	}}
	rec = a.do("PUT", "/v1/quizzes/"+quiz.ID+"/steps/"+question.ID, author, question)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do("POST", "/v1/quizzes/"+quiz.ID+"/publish", author, nil)
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	return quiz, question, capture, result
}

func TestRouter_RespondentFlow(t *testing.T) {
	api := newTestAPI(t)
	author := api.login()
	quiz, question, capture, result := api.publishQuiz(author)

	rec := api.do("GET", "/v1/public/quizzes/plan-finder", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var public model.QuizWithSteps
	decode(t, rec, &public)
	require.Len(t, public.Steps, 3)
	assert.Empty(t, public.Steps[0].Metadata.Rules)

	rec = api.do("POST", "/v1/public/quizzes/plan-finder/sessions", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var started model.StartSessionResponse
	decode(t, rec, &started)
	assert.Equal(t, question.ID, started.FirstStepID)
	base := "/v1/sessions/" + started.Session.ID

	rec = api.do("POST", base+"/answers", started.Token, model.SubmitAnswerRequest{StepID: capture.ID, Value: map[string]string{"name": "", "email": "nope"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var invalid struct {
		Violations []struct{ Field string } `json:"violations"`
	}
	decode(t, rec, &invalid)
	require.Len(t, invalid.Violations, 2)
	assert.Equal(t, "name", invalid.Violations[0].Field)
	assert.Equal(t, "email", invalid.Violations[1].Field)

	rec = api.do("POST", base+"/answers", started.Token, model.SubmitAnswerRequest{StepID: question.ID, Value: "yes"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do("POST", base+"/next", started.Token, model.NextStepRequest{CurrentStepID: question.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var next model.NavigationResult
	decode(t, rec, &next)
	assert.Equal(t, result.ID, next.StepID)
	require.NotNil(t, next.Score)
	assert.Equal(t, 10, *next.Score)
	assert.Equal(t, "Great pick", next.Message)

	rec = api.do("POST", base+"/next", started.Token, model.NextStepRequest{CurrentStepID: result.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"done":true}`, rec.Body.String())

	rec = api.do("POST", base+"/complete", started.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var completed model.Session
	decode(t, rec, &completed)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, 10, completed.Score)

	rec = api.do("POST", base+"/answers", started.Token, model.SubmitAnswerRequest{StepID: question.ID, Value: "no"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do("GET", "/v1/quizzes/"+quiz.ID+"/funnel", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var funnel struct {
		Starts      int64 `json:"starts"`
		Completions int64 `json:"completions"`
	}
	decode(t, rec, &funnel)
	assert.Equal(t, int64(1), funnel.Starts)
	assert.Equal(t, int64(1), funnel.Completions)
}

func TestRouter_Auth(t *testing.T) {
	api := newTestAPI(t)
	author := api.login()
	api.publishQuiz(author)

	rec := api.do("GET", "/v1/quizzes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do("POST", "/v1/auth/login", "", model.LoginRequest{Username: "admin", Password: "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do("POST", "/v1/auth/login", "", model.LoginRequest{Username: "  ", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do("GET", "/v1/auth/me", author, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]string
	decode(t, rec, &me)
	assert.Equal(t, service.AuthorID(api.cfg.AuthorUsername), me["authorId"])

	var first, second model.StartSessionResponse
	rec = api.do("POST", "/v1/public/quizzes/plan-finder/sessions", "", nil)
	decode(t, rec, &first)
	rec = api.do("POST", "/v1/public/quizzes/plan-finder/sessions", "", nil)
	decode(t, rec, &second)

	rec = api.do("GET", "/v1/sessions/"+second.Session.ID, first.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do("GET", "/v1/sessions/"+first.Session.ID, author, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do("GET", "/v1/quizzes", first.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do("GET", "/v1/auth/me", first.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	author := api.login()

	rec := api.do("GET", "/v1/public/quizzes/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do("POST", "/v1/quizzes", author, map[string]string{"title": "Draft", "slug": "draft"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do("POST", "/v1/public/quizzes/draft/sessions", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do("POST", "/v1/quizzes", author, map[string]string{"title": "Again", "slug": "draft"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do("POST", "/v1/quizzes", author, map[string]string{"title": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CORSPreflightAndHealth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do("OPTIONS", "/v1/quizzes", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

	rec = api.do("GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
