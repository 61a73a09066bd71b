package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/soaringjerry/pulse/internal/export"
	"github.com/soaringjerry/pulse/internal/logger"
	"github.com/soaringjerry/pulse/internal/metrics"
	"github.com/soaringjerry/pulse/internal/middleware"
	"github.com/soaringjerry/pulse/internal/services"
)

// Reports is the analytics surface the router serves.
type Reports interface {
	Report(ctx context.Context, surveyID, reportType string) (any, error)
	Full(ctx context.Context, surveyID string) (*services.FullReport, error)
}

// Build identifies the running binary.
type Build struct {
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type Deps struct {
	Store     Store
	Analytics Reports
	Logger    *logger.Logger
	Metrics   *metrics.Recorder
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Build    Build
}

type Router struct {
	store     Store
	analytics Reports
	exports   *export.Service
	log       *logger.Logger
	metrics   *metrics.Recorder
	gatherer  prometheus.Gatherer
	build     Build
}

func NewRouter(deps Deps) *Router {
	log := deps.Logger
	if log == nil {
		log = logger.Discard()
	}
	analytics := deps.Analytics
	if analytics == nil {
		analytics = services.NewAnalyticsService(deps.Store,
			services.WithLogger(log.Entry),
			services.WithMetrics(deps.Metrics),
		)
	}
	return &Router{
		store:     deps.Store,
		analytics: analytics,
		exports:   export.NewService(analytics),
		log:       log,
		metrics:   deps.Metrics,
		gatherer:  deps.Gatherer,
		build:     deps.Build,
	}
}

// Engine builds a gin engine with the shared middleware and every route.
func (rt *Router) Engine() *gin.Engine {
	e := gin.New()
	e.Use(
		gin.Recovery(),
		middleware.RequestLogger(rt.log, rt.metrics),
		middleware.NoStore(),
		middleware.SecureHeaders(),
		middleware.CORS(),
	)
	e.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "name": "Pulse API"})
	})
	e.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, rt.build)
	})
	if rt.gatherer != nil {
		e.GET("/metrics", gin.WrapH(metrics.Handler(rt.gatherer)))
	}
	rt.Register(e)
	return e
}

func (rt *Router) Register(e *gin.Engine) {
	g := e.Group("/api")
	g.GET("/surveys", rt.handleSurveys)
	g.GET("/surveys/:id/analytics", rt.handleAnalytics)
	g.GET("/surveys/:id/export", rt.handleExport)
}

// GET /api/surveys
func (rt *Router) handleSurveys(c *gin.Context) {
	defs, err := rt.store.ListSurveys(c.Request.Context())
	if err != nil {
		rt.writeError(c, services.NewInternalError(err))
		return
	}
	type surveySummary struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Workspace string `json:"workspace,omitempty"`
		Questions int    `json:"questions"`
	}
	out := make([]surveySummary, 0, len(defs))
	for _, d := range defs {
		out = append(out, surveySummary{ID: d.ID, Title: d.Title, Workspace: d.Workspace, Questions: len(d.Questions)})
	}
	c.JSON(http.StatusOK, gin.H{"surveys": out})
}

// GET /api/surveys/:id/analytics?reportType=overview|categories|scores|toggle-checkbox|feedback|full
func (rt *Router) handleAnalytics(c *gin.Context) {
	reportType := c.Query("reportType")
	if reportType == "" {
		reportType = c.Query("type")
	}
	report, err := rt.analytics.Report(c.Request.Context(), c.Param("id"), reportType)
	if err != nil {
		rt.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/surveys/:id/export?format=csv|feedback-csv|xlsx
func (rt *Router) handleExport(c *gin.Context) {
	res, err := rt.exports.Export(c.Request.Context(), export.Params{
		SurveyID: c.Param("id"),
		Format:   c.Query("format"),
	})
	if err != nil {
		rt.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+res.Filename)
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

func (rt *Router) writeError(c *gin.Context, err error) {
	se, ok := services.AsServiceError(err)
	if !ok {
		se = &services.ServiceError{Code: services.ErrorInternal, Message: "internal error", Err: err}
	}
	status := statusFor(se.Code)
	if status == http.StatusInternalServerError {
		middleware.LoggerFrom(c).WithField("error", causeOf(se)).Error("request error")
	}
	c.AbortWithStatusJSON(status, gin.H{"error": se.Message, "code": string(se.Code)})
}

func statusFor(code services.ErrorCode) int {
	switch code {
	case services.ErrorInvalid:
		return http.StatusBadRequest
	case services.ErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func causeOf(se *services.ServiceError) string {
	if se.Err != nil {
		return se.Err.Error()
	}
	return strings.TrimSpace(se.Message)
}
