package controllers

import (
	"net/http"
	"strconv"

	"github.com/osvaldoandrade/placebench/internal/ranking"
	"github.com/osvaldoandrade/placebench/internal/services"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/gin-gonic/gin"
)

type startRunController struct {
	svc      services.RunService
	defaults domain.RunConfig
}

func NewStartRunController(svc services.RunService, defaults domain.RunConfig) *startRunController {
	return &startRunController{svc: svc, defaults: defaults}
}

func (h *startRunController) Handle(c *gin.Context) {
	var req runConfigReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
	}
	cfg, err := req.resolve(h.defaults)
	if err != nil {
		respondError(c, err)
		return
	}
	run, err := h.svc.Start(c.Request.Context(), cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Location", "/v1/placebench/runs/"+run.ID)
	c.JSON(http.StatusAccepted, run)
}

type listRunsController struct {
	svc   services.RunService
	limit int
}

func NewListRunsController(svc services.RunService, limit int) *listRunsController {
	return &listRunsController{svc: svc, limit: limit}
}

func (h *listRunsController) Handle(c *gin.Context) {
	limit := h.limit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'limit'"})
			return
		}
		if n < limit {
			limit = n
		}
	}
	runs, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// runView adds per-scenario rankings, aligned with Results.
type runView struct {
	*domain.BatchRun
	Rankings [][]domain.RankingEntry `json:"rankings"`
}

type getRunController struct{ svc services.RunService }

func NewGetRunController(svc services.RunService) *getRunController {
	return &getRunController{svc}
}

func (h *getRunController) Handle(c *gin.Context) {
	run, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	view := runView{BatchRun: run, Rankings: make([][]domain.RankingEntry, 0, len(run.Results))}
	for _, sr := range run.Results {
		view.Rankings = append(view.Rankings, ranking.Rank(sr.Results))
	}
	c.JSON(http.StatusOK, view)
}

type cancelRunController struct{ svc services.RunService }

func NewCancelRunController(svc services.RunService) *cancelRunController {
	return &cancelRunController{svc}
}

func (h *cancelRunController) Handle(c *gin.Context) {
	run, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, run)
}
