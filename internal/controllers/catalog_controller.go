package controllers

import (
	"net/http"

	"github.com/osvaldoandrade/placebench/internal/instance"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/gin-gonic/gin"
)

type catalogController struct {
	defaults domain.RunConfig
}

func NewCatalogController(defaults domain.RunConfig) *catalogController {
	return &catalogController{defaults: defaults}
}

func (h *catalogController) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"antennas":   domain.AntennaSpecs,
		"algorithms": domain.KnownAlgorithms,
		"patterns":   instance.Patterns(),
		"defaults":   h.defaults,
	})
}
