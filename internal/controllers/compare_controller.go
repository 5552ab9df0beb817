package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/placebench/internal/services"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/gin-gonic/gin"
)

type compareController struct {
	svc      services.RunService
	defaults domain.RunConfig
	pattern  string
	gridSize int
}

func NewCompareController(svc services.RunService, defaults domain.RunConfig, pattern string, gridSize int) *compareController {
	return &compareController{svc: svc, defaults: defaults, pattern: pattern, gridSize: gridSize}
}

type compareReq struct {
	domain.ScenarioDefinition
	runConfigReq
}

func (h *compareController) Handle(c *gin.Context) {
	var req compareReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if req.GridSize == 0 {
		req.GridSize = h.gridSize
	}
	if req.Pattern == "" {
		req.Pattern = h.pattern
	}
	cfg, err := req.resolve(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}
	out, err := h.svc.Compare(c.Request.Context(), req.ScenarioDefinition, cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
