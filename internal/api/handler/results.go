package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/response"
	"github.com/zahlentech/str8up_server/internal/service"
)

type ResultsHandler struct {
	results *service.ResultsService
	log     logger.Logger
}

func NewResultsHandler(results *service.ResultsService, log logger.Logger) *ResultsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ResultsHandler{results: results, log: log}
}

// DownloadPDF renders the completed report as a PDF attachment
// GET /api/v1/str8up/results/:sessionId/pdf
func (h *ResultsHandler) DownloadPDF(c *gin.Context) {
	sessionID := c.Param("sessionId")
	doc, err := h.results.PDF(sessionID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="str8up-map-%s.pdf"`, sessionID))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// EmailResults sends the report to the visitor
// POST /api/v1/str8up/results/:sessionId/email
func (h *ResultsHandler) EmailResults(c *gin.Context) {
	var req dto.EmailResultsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.results.Email(c.Param("sessionId"), &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
