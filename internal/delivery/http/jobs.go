package http

import (
	"strconv"

	"finance-dashboard/internal/dto"
	"finance-dashboard/internal/model"

	"github.com/labstack/echo/v4"
)

func (h *HttpAPIHandler) SetupJobs(v1 *echo.Group) {
	jobs := v1.Group("/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.POST("/run", h.RunJobs)
		jobs.POST("/:id/run", h.RunJob)
	}
}

func (h *HttpAPIHandler) ListJobs(c echo.Context) error {
	if _, err := h.authenticateAdmin(c); err != nil {
		return h.fail(c, err)
	}

	limit := 5
	jobs, err := h.service.SchedulerService.GetJobSchedule(c.Request().Context(), model.GetJobParam{
		WithTaskHistory: &model.GetTaskExecutionHistoryParam{Limit: &limit},
	})
	if err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Jobs", jobs)
}

// RunJobs runs every due schedule once, outside the ticker.
func (h *HttpAPIHandler) RunJobs(c echo.Context) error {
	if _, err := h.authenticateAdmin(c); err != nil {
		return h.fail(c, err)
	}
	if err := h.service.SchedulerService.Execute(c.Request().Context()); err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Start running jobs", nil)
}

func (h *HttpAPIHandler) RunJob(c echo.Context) error {
	if _, err := h.authenticateAdmin(c); err != nil {
		return h.fail(c, err)
	}
	id, err := strconv.ParseUint(pathParam(c, "id"), 10, 64)
	if err != nil {
		return h.fail(c, dto.ErrInvalidInput)
	}

	if err := h.service.SchedulerService.RunJobTask(c.Request().Context(), uint(id)); err != nil {
		return h.fail(c, err)
	}
	return ok(c, "Job executed", nil)
}
