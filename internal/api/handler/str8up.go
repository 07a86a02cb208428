package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/response"
	"github.com/zahlentech/str8up_server/internal/service"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

type Str8upHandler struct {
	assessments *service.AssessmentService
	leads       *service.LeadService
	log         logger.Logger
}

func NewStr8upHandler(assessments *service.AssessmentService, leads *service.LeadService, log logger.Logger) *Str8upHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &Str8upHandler{
		assessments: assessments,
		leads:       leads,
		log:         log,
	}
}

// StartAnalysis starts a session for the onboarding form
// POST /api/v1/str8up/onboarding/start
func (h *Str8upHandler) StartAnalysis(c *gin.Context) {
	var req dto.StartAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.assessments.Start(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetStatus reports the progress of a session
// GET /api/v1/str8up/processing/:sessionId
func (h *Str8upHandler) GetStatus(c *gin.Context) {
	resp, err := h.assessments.Status(c.Param("sessionId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAnalysis returns the raw analysis document once completed
// GET /api/v1/str8up/analysis/:sessionId
func (h *Str8upHandler) GetAnalysis(c *gin.Context) {
	resp, err := h.assessments.Result(c.Param("sessionId"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CaptureLead stores the visitor's contact details for a session
// POST /api/v1/str8up/leads/capture
func (h *Str8upHandler) CaptureLead(c *gin.Context) {
	var req dto.CaptureLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.leads.Capture(c.Request.Context(), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// writeError maps service errors onto the response envelope.
func writeError(c *gin.Context, log logger.Logger, err error) {
	switch {
	case errors.Is(err, str8up.ErrInvalidInput), errors.Is(err, str8up.ErrInvalidLead):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrSessionNotFound):
		response.NotFoundError(c, err.Error())
	case errors.Is(err, service.ErrAnalysisNotReady), errors.Is(err, service.ErrAnalysisFailed):
		response.NotReadyError(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrAdminDisabled):
		response.AuthError(c, err.Error())
	case errors.Is(err, service.ErrEmailDisabled):
		response.ServerError(c, err.Error())
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		response.ServerError(c, "")
	}
}
