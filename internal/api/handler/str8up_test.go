package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/queue"
	"github.com/zahlentech/str8up_server/internal/pkg/response"
	"github.com/zahlentech/str8up_server/internal/repository"
	"github.com/zahlentech/str8up_server/internal/service"
	"github.com/zahlentech/str8up_server/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubQueue struct {
	pushed []*queue.JobMessage
	err    error
}

func (q *stubQueue) Push(_ context.Context, msg *queue.JobMessage) error {
	if q.err != nil {
		return q.err
	}
	q.pushed = append(q.pushed, msg)
	return nil
}

// testContext bundles what the handler tests share.
type testContext struct {
	DB          *gorm.DB
	Cfg         *config.Config
	Queue       *stubQueue
	Assessments *service.AssessmentService
	Leads       *service.LeadService
}

func setupTestContext(t *testing.T) *testContext {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{}
	cfg.Queue.StepDelay = time.Second
	cfg.Session.ExpireHours = 24
	cfg.JWT.Secret = "handler-test-secret"
	cfg.JWT.ExpireHours = 1

	q := &stubQueue{}
	assessmentRepo := repository.NewAssessmentRepository(db)
	return &testContext{
		DB:          db,
		Cfg:         cfg,
		Queue:       q,
		Assessments: service.NewAssessmentService(assessmentRepo, repository.NewJobRepository(db), q, cfg, nil),
		Leads:       service.NewLeadService(repository.NewLeadRepository(db), assessmentRepo, nil, nil, nil),
	}
}

func setupStr8upRouter(t *testing.T) (*gin.Engine, *testContext) {
	t.Helper()

	tc := setupTestContext(t)
	h := NewStr8upHandler(tc.Assessments, tc.Leads, nil)

	router := gin.New()
	router.POST("/onboarding/start", h.StartAnalysis)
	router.GET("/processing/:sessionId", h.GetStatus)
	router.GET("/analysis/:sessionId", h.GetAnalysis)
	router.POST("/leads/capture", h.CaptureLead)
	return router, tc
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	return resp
}

func startBody() map[string]interface{} {
	return map[string]interface{}{
		"business_size":  "medium",
		"cloud_provider": "azure",
		"complexity":     60,
		"budget":         "500k-1m",
		"risk_tolerance": "medium",
		"compliance":     "none",
	}
}

func TestStr8upHandler_StartAnalysis_Success(t *testing.T) {
	router, tc := setupStr8upRouter(t)

	w := performRequest(router, "POST", "/onboarding/start", startBody())
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.StartAnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 5, resp.ProcessingEstimate)
	require.Len(t, tc.Queue.pushed, 1)
	assert.Equal(t, resp.SessionID, tc.Queue.pushed[0].SessionID)
}

func TestStr8upHandler_StartAnalysis_ZeroComplexity(t *testing.T) {
	router, _ := setupStr8upRouter(t)

	body := startBody()
	body["complexity"] = 0
	w := performRequest(router, "POST", "/onboarding/start", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStr8upHandler_StartAnalysis_InvalidBody(t *testing.T) {
	router, tc := setupStr8upRouter(t)

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
	}{
		{"unknown provider", func(b map[string]interface{}) { b["cloud_provider"] = "oracle" }},
		{"complexity above range", func(b map[string]interface{}) { b["complexity"] = 101 }},
		{"missing complexity", func(b map[string]interface{}) { delete(b, "complexity") }},
		{"unknown budget", func(b map[string]interface{}) { b["budget"] = "10m" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := startBody()
			tt.mutate(body)
			w := performRequest(router, "POST", "/onboarding/start", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, response.CodeParamError, parseResponse(t, w).Code)
		})
	}
	assert.Empty(t, tc.Queue.pushed)
}

func TestStr8upHandler_StartAnalysis_QueueDown(t *testing.T) {
	router, tc := setupStr8upRouter(t)
	tc.Queue.err = errors.New("redis down")

	w := performRequest(router, "POST", "/onboarding/start", startBody())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, response.CodeServerError, parseResponse(t, w).Code)
}

func TestStr8upHandler_GetStatus(t *testing.T) {
	router, tc := setupStr8upRouter(t)
	a := testutil.TestAssessment(t, tc.DB, testutil.WithStatus("processing", 45))

	w := performRequest(router, "GET", "/processing/"+a.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.ProcessingStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, a.SessionID, resp.SessionID)
	assert.Equal(t, "PROCESSING", resp.Status)
	assert.Equal(t, 45, resp.Progress)
	assert.Equal(t, 3, resp.EstimatedTimeRemaining)
}

func TestStr8upHandler_GetStatus_NotFound(t *testing.T) {
	router, _ := setupStr8upRouter(t)

	w := performRequest(router, "GET", "/processing/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, response.CodeResourceNotFound, parseResponse(t, w).Code)
}

func TestStr8upHandler_GetAnalysis(t *testing.T) {
	router, tc := setupStr8upRouter(t)

	running := testutil.TestAssessment(t, tc.DB, testutil.WithStatus("processing", 70))
	w := performRequest(router, "GET", "/analysis/"+running.SessionID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.CodeNotReady, parseResponse(t, w).Code)

	done := testutil.TestAssessment(t, tc.DB, testutil.WithResult(testutil.SampleAnalysis))
	w = performRequest(router, "GET", "/analysis/"+done.SessionID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.AnalysisResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, done.SessionID, resp.SessionID)
	assert.JSONEq(t, testutil.SampleAnalysis, string(resp.Data))
}

func TestStr8upHandler_CaptureLead(t *testing.T) {
	router, tc := setupStr8upRouter(t)
	a := testutil.TestAssessment(t, tc.DB, testutil.WithResult(testutil.SampleAnalysis))

	w := performRequest(router, "POST", "/leads/capture", dto.CaptureLeadRequest{
		SessionID: a.SessionID,
		Name:      "Dana",
		Email:     "dana@example.com",
		Company:   "Acme",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.CaptureLeadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.LeadID)
	assert.NotEmpty(t, resp.NextSteps)
}

func TestStr8upHandler_CaptureLead_Errors(t *testing.T) {
	router, tc := setupStr8upRouter(t)
	a := testutil.TestAssessment(t, tc.DB)

	w := performRequest(router, "POST", "/leads/capture", dto.CaptureLeadRequest{
		SessionID: "unknown",
		Name:      "Dana",
		Email:     "dana@example.com",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, "POST", "/leads/capture", dto.CaptureLeadRequest{
		SessionID: a.SessionID,
		Name:      "Dana",
		Email:     "not-an-email",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, "POST", "/leads/capture", map[string]string{
		"name":  "Dana",
		"email": "dana@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
