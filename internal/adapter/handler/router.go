package handler

import (
	stdErrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/errors"
	"github.com/johnquangdev/silent-contributor/pkg/config"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

// Router holds all handlers
type Router struct {
	cfg               *config.Config
	authHandler       *Auth
	meetingHandler    *Meeting
	reportHandler     *Report
	transcriptHandler *Transcript
	webhookHandler    *Webhook
	pagesHandler      *Pages

	// authMW guards the JSON API, sessionMW the HTML pages
	authMW    echo.MiddlewareFunc
	sessionMW echo.MiddlewareFunc
	ownerMW   echo.MiddlewareFunc

	logger *zap.Logger
}

// Handlers groups the handlers passed to NewRouter
type Handlers struct {
	Auth       *Auth
	Meeting    *Meeting
	Report     *Report
	Transcript *Transcript
	Webhook    *Webhook
	Pages      *Pages
}

// Middlewares groups the access control middlewares passed to NewRouter
type Middlewares struct {
	Auth         echo.MiddlewareFunc
	Session      echo.MiddlewareFunc
	MeetingOwner echo.MiddlewareFunc
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, h Handlers, mw Middlewares, log *zap.Logger) *Router {
	return &Router{
		cfg:               cfg,
		authHandler:       h.Auth,
		meetingHandler:    h.Meeting,
		reportHandler:     h.Report,
		transcriptHandler: h.Transcript,
		webhookHandler:    h.Webhook,
		pagesHandler:      h.Pages,
		authMW:            mw.Auth,
		sessionMW:         mw.Session,
		ownerMW:           mw.MeetingOwner,
		logger:            logger.OrNop(log),
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.HTTPErrorHandler = rt.errorHandler

	// Health check endpoint
	e.GET("/health", rt.healthCheck)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupAuthRoutes(v1)
	rt.setupMeetingRoutes(v1)
	rt.setupWebhookRoutes(v1)
	rt.setupPageRoutes(e)
}

// setupAuthRoutes configures authentication routes
func (rt *Router) setupAuthRoutes(g *echo.Group) {
	authGroup := g.Group("/auth")

	authGroup.POST("/register", rt.authHandler.Register)
	authGroup.POST("/login", rt.authHandler.Login)
	authGroup.POST("/refresh", rt.authHandler.RefreshToken)
	authGroup.POST("/logout", rt.authHandler.Logout)
	authGroup.GET("/me", rt.authHandler.Me, rt.authMW)
	authGroup.GET("/google/login", rt.authHandler.GoogleLogin)
	authGroup.GET("/google/callback", rt.authHandler.GoogleCallback)
}

// setupMeetingRoutes configures meeting, activity and engagement routes
func (rt *Router) setupMeetingRoutes(g *echo.Group) {
	protected := g.Group("", rt.authMW)

	meetings := protected.Group("/meetings")
	meetings.GET("", rt.meetingHandler.ListMeetings)
	meetings.POST("", rt.meetingHandler.CreateMeeting)
	meetings.GET("/:id", rt.meetingHandler.GetMeeting)
	meetings.PUT("/:id", rt.meetingHandler.UpdateMeeting, rt.ownerMW)
	meetings.DELETE("/:id", rt.meetingHandler.DeleteMeeting, rt.ownerMW)

	meetings.GET("/:id/participants", rt.meetingHandler.ListParticipants)
	meetings.POST("/:id/participants", rt.meetingHandler.AddParticipant)
	meetings.POST("/:id/sync-participants", rt.meetingHandler.SyncParticipants, rt.ownerMW)
	meetings.POST("/:id/join-token", rt.meetingHandler.JoinToken)

	meetings.GET("/:id/chat-messages", rt.meetingHandler.ListChatMessages)
	meetings.POST("/:id/chat-messages", rt.meetingHandler.AddChatMessage)
	meetings.POST("/:id/document-activities", rt.meetingHandler.RecordDocumentActivity)
	meetings.POST("/:id/task-activities", rt.meetingHandler.RecordTaskActivity)

	meetings.POST("/:id/calculate-engagement", rt.meetingHandler.CalculateEngagement)
	meetings.GET("/:id/silent-contributors", rt.meetingHandler.SilentContributors)
	meetings.GET("/:id/dashboard", rt.reportHandler.Dashboard)
	meetings.GET("/:id/reports", rt.reportHandler.ListReports)
	meetings.POST("/:id/reports", rt.reportHandler.ExportReport)
	meetings.POST("/:id/transcripts", rt.transcriptHandler.ImportTranscript, rt.ownerMW)

	protected.POST("/participants/:id/voice-activities", rt.meetingHandler.RecordVoiceActivity)
}

// setupWebhookRoutes configures inbound webhooks; they authenticate by signature
func (rt *Router) setupWebhookRoutes(g *echo.Group) {
	webhooks := g.Group("/webhooks")
	webhooks.POST("/livekit", rt.webhookHandler.HandleLiveKitWebhook)
}

// setupPageRoutes configures the HTML shell
func (rt *Router) setupPageRoutes(e *echo.Echo) {
	e.GET("/", rt.pagesHandler.Index)
	e.GET(authPath, rt.pagesHandler.AuthForm)
	e.POST(authPath, rt.pagesHandler.SubmitAuth)
	e.POST(authPath+"/logout", rt.pagesHandler.Logout)
	e.GET(dashboardPath, rt.pagesHandler.Dashboard, rt.sessionMW)
}

// errorHandler renders errors returned by middleware and unmatched routes
// in the same envelope as HandleError
func (rt *Router) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpErr *echo.HTTPError
	if stdErrors.As(err, &httpErr) {
		err = httpAppError(httpErr)
	}
	if herr := HandleError(rt.logger, c, err); herr != nil {
		rt.logger.Error("http.error_handler.write_failed", zap.Error(herr))
	}
}

// httpAppError converts echo's routing errors
func httpAppError(httpErr *echo.HTTPError) errors.AppError {
	switch httpErr.Code {
	case http.StatusNotFound:
		return errors.ErrNotFound("route")
	case http.StatusUnauthorized:
		return errors.ErrUnauthenticated()
	case http.StatusForbidden:
		return errors.ErrForbidden(http.StatusText(httpErr.Code))
	case http.StatusBadRequest:
		return errors.ErrInvalidArgument(http.StatusText(httpErr.Code))
	}
	appErr := errors.ErrInternal(httpErr)
	appErr.HTTPCode = httpErr.Code
	appErr.Message = http.StatusText(httpErr.Code)
	return appErr
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"environment": rt.cfg.Server.Environment,
	})
}
