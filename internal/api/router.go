package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/api/handler"
	"github.com/zahlentech/str8up_server/internal/api/middleware"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
)

type Router struct {
	str8upHandler    *handler.Str8upHandler
	resultsHandler   *handler.ResultsHandler
	adminHandler     *handler.AdminHandler
	websocketHandler *handler.WebSocketHandler
	cfg              *config.Config
	log              logger.Logger
}

func NewRouter(
	str8upHandler *handler.Str8upHandler,
	resultsHandler *handler.ResultsHandler,
	adminHandler *handler.AdminHandler,
	websocketHandler *handler.WebSocketHandler,
	cfg *config.Config,
	log logger.Logger,
) *Router {
	if log == nil {
		log = logger.Nop()
	}
	return &Router{
		str8upHandler:    str8upHandler,
		resultsHandler:   resultsHandler,
		adminHandler:     adminHandler,
		websocketHandler: websocketHandler,
		cfg:              cfg,
		log:              log,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api/v1")
	{
		str8up := api.Group("/str8up")
		{
			str8up.POST("/onboarding/start", r.str8upHandler.StartAnalysis)
			str8up.GET("/processing/:sessionId", r.str8upHandler.GetStatus)
			str8up.GET("/analysis/:sessionId", r.str8upHandler.GetAnalysis)
			str8up.POST("/leads/capture", r.str8upHandler.CaptureLead)

			str8up.GET("/results/:sessionId/pdf", r.resultsHandler.DownloadPDF)
			str8up.POST("/results/:sessionId/email", r.resultsHandler.EmailResults)

			str8up.GET("/ws/:sessionId", r.websocketHandler.Handle)
		}

		api.POST("/admin/login", r.adminHandler.Login)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminAuth(r.cfg.JWT.Secret))
		{
			admin.GET("/leads", r.adminHandler.ListLeads)
		}
	}

	return engine
}
