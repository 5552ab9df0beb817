package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/placebench/internal/services"

	"github.com/gin-gonic/gin"
)

type runReportController struct{ svc services.ReportService }

func NewRunReportController(svc services.ReportService) *runReportController {
	return &runReportController{svc}
}

func (h *runReportController) Handle(c *gin.Context) {
	body, err := h.svc.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(body))
}

type exportReportController struct{ svc services.ReportService }

func NewExportReportController(svc services.ReportService) *exportReportController {
	return &exportReportController{svc}
}

func (h *exportReportController) Handle(c *gin.Context) {
	out, err := h.svc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
