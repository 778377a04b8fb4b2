package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/silent-contributor/internal/usecase/dashboard"
	"github.com/johnquangdev/silent-contributor/internal/usecase/report"
	"github.com/johnquangdev/silent-contributor/pkg/logger"
)

// DashboardService loads the dashboard view of a meeting
type DashboardService interface {
	Dashboard(ctx context.Context, meetingID uuid.UUID) (*dashboard.ViewModel, error)
}

// ReportService exports engagement reports to object storage
type ReportService interface {
	Export(ctx context.Context, meetingID uuid.UUID) (*report.Export, error)
	List(ctx context.Context, meetingID uuid.UUID) ([]report.Object, error)
}

// Report handles dashboard data and report export requests
type Report struct {
	dashboard DashboardService
	reports   ReportService
	logger    *zap.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(dashboardService DashboardService, reportService ReportService, log *zap.Logger) *Report {
	return &Report{
		dashboard: dashboardService,
		reports:   reportService,
		logger:    logger.OrNop(log),
	}
}

// Dashboard handles GET /meetings/:id/dashboard
// @Summary      Dashboard data
// @Description  Participant cards and the contribution comparison chart of a meeting
// @Tags         Engagement
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Param        tab  query     string  false  "dashboard or analytics"
// @Success      200  {object}  dashboard.ViewModel
// @Failure      502  {object}  map[string]interface{}  "Failed to load engagement data"
// @Router       /meetings/{id}/dashboard [get]
func (h *Report) Dashboard(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	vm, err := h.dashboard.Dashboard(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	vm.Tab = dashboard.ParseTab(c.QueryParam("tab"))
	return HandleSuccess(h.logger, c, vm)
}

// ExportReport handles POST /meetings/:id/reports
// @Summary      Export an engagement report
// @Description  Uploads a JSON report to object storage and returns a presigned URL
// @Tags         Reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      201  {object}  report.Export
// @Failure      503  {object}  map[string]interface{}  "Storage is not configured"
// @Router       /meetings/{id}/reports [post]
func (h *Report) ExportReport(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	export, err := h.reports.Export(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleCreated(h.logger, c, export)
}

// ListReports handles GET /meetings/:id/reports
// @Summary      List exported reports
// @Tags         Reports
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Meeting ID (UUID)"
// @Success      200  {array}   report.Object
// @Failure      503  {object}  map[string]interface{}  "Storage is not configured"
// @Router       /meetings/{id}/reports [get]
func (h *Report) ListReports(c echo.Context) error {
	meetingID, err := uuidParam(c, "id")
	if err != nil {
		return HandleError(h.logger, c, err)
	}

	objects, err := h.reports.List(c.Request().Context(), meetingID)
	if err != nil {
		return HandleError(h.logger, c, err)
	}
	return HandleSuccess(h.logger, c, objects)
}
