package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/zahlentech/str8up_server/internal/api/middleware"
	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/pkg/response"
	"github.com/zahlentech/str8up_server/internal/service"
)

const defaultPageSize = 20

type AdminHandler struct {
	admin *service.AdminService
	leads *service.LeadService
	log   logger.Logger
}

func NewAdminHandler(admin *service.AdminService, leads *service.LeadService, log logger.Logger) *AdminHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &AdminHandler{admin: admin, leads: leads, log: log}
}

// Login exchanges admin credentials for a token
// POST /api/v1/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req dto.AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.admin.Login(&req)
	if err != nil {
		h.log.Warn("admin login rejected", "username", req.Username)
		writeError(c, h.log, err)
		return
	}

	h.log.UserAction("admin_login", "username", req.Username)
	response.Success(c, resp)
}

// ListLeads returns captured leads, newest first
// GET /api/v1/admin/leads
func (h *AdminHandler) ListLeads(c *gin.Context) {
	var q dto.LeadListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ParamError(c, err.Error())
		return
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageSize
	}

	items, total, err := h.leads.List(q.Page, q.PageSize)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	admin, _ := middleware.GetAdmin(c)
	h.log.Debug("leads listed", "admin", admin, "page", q.Page, "total", total)
	response.SuccessPage(c, total, q.Page, q.PageSize, items)
}
