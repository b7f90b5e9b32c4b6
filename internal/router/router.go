package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/docs"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/config"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/middleware"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/handler"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/serializer"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/modules/service"
	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/telemetry"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	Config          *config.Config
	Log             *zap.Logger
	UserService     service.UserService
	AnalysisHandler *handler.AnalysisHandler
	DrawingHandler  *handler.DrawingHandler
	ChatHandler     *handler.ChatHandler
	PersonaHandler  *handler.PersonaHandler
	// Telemetry is nil or has a nil Tracer when tracing is off.
	Telemetry *telemetry.Providers
	// StaticRoot is served at the storage URL prefix when artifacts are local.
	StaticRoot string
}

func NewRouter(d RouterDeps) *gin.Engine {
	// Initialize logger for serializer package
	serializer.SetLogger(d.Log)

	r := gin.New()
	r.Use(gin.Recovery())

	if d.Telemetry != nil && d.Telemetry.Tracer != nil {
		r.Use(telemetry.GinMiddleware(d.Config.App.Name, d.Telemetry.Tracer))
		r.Use(telemetry.TraceIDMiddleware())
	}

	r.Use(middleware.ZapLogger(d.Log))

	// health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "ok"}) })

	// swagger
	r.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	if d.StaticRoot != "" && d.Config.Storage.URLPrefix != "" {
		r.Static(d.Config.Storage.URLPrefix, d.StaticRoot)
	}

	r.GET("/personas", d.PersonaHandler.ListPersonas)

	authed := r.Group("")
	authed.Use(middleware.UserAuth(d.Config, d.UserService))
	{
		authed.GET("/api/v1/ping", func(c *gin.Context) { c.JSON(http.StatusOK, serializer.Response{Msg: "pong"}) })

		authed.POST("/analyze-image", d.AnalysisHandler.AnalyzeImage)
		authed.GET("/analysis-status/:test_id", d.AnalysisHandler.GetStatus)

		drawing := authed.Group("/drawing-tests")
		{
			drawing.GET("", d.DrawingHandler.ListDrawingTests)
			drawing.DELETE("/:test_id", d.DrawingHandler.DeleteDrawingTest)
		}

		sessions := authed.Group("/sessions")
		{
			sessions.POST("", d.ChatHandler.CreateSession)
			sessions.GET("", d.ChatHandler.ListSessions)
			sessions.GET("/:session_id", d.ChatHandler.GetSession)
			sessions.DELETE("/:session_id", d.ChatHandler.DeleteSession)

			sessions.POST("/:session_id/messages", d.ChatHandler.SendMessage)
			sessions.GET("/:session_id/messages", d.ChatHandler.GetMessages)

			sessions.GET("/:session_id/personalized-greeting", d.ChatHandler.GetGreeting)
			sessions.GET("/:session_id/token_counts", d.ChatHandler.GetTokenCounts)
		}
	}
	return r
}
