package controllers

import (
	"io"
	"net/http"

	"github.com/osvaldoandrade/placebench/internal/services"
	"github.com/osvaldoandrade/placebench/pkg/domain"

	"github.com/gin-gonic/gin"
)

// maxImportBytes bounds a bulk import body.
const maxImportBytes = 4 << 20

type addScenarioController struct{ svc services.QueueService }

func NewAddScenarioController(svc services.QueueService) *addScenarioController {
	return &addScenarioController{svc}
}

func (h *addScenarioController) Handle(c *gin.Context) {
	var req domain.ScenarioDefinition
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	sc, err := h.svc.Add(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sc)
}

type listScenariosController struct{ svc services.QueueService }

func NewListScenariosController(svc services.QueueService) *listScenariosController {
	return &listScenariosController{svc}
}

func (h *listScenariosController) Handle(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scenarios": list, "count": len(list)})
}

type removeScenarioController struct{ svc services.QueueService }

func NewRemoveScenarioController(svc services.QueueService) *removeScenarioController {
	return &removeScenarioController{svc}
}

// Handle removes one scenario by id, or empties the queue when the route
// carries no id.
func (h *removeScenarioController) Handle(c *gin.Context) {
	var err error
	if id := c.Param("id"); id != "" {
		err = h.svc.Remove(c.Request.Context(), id)
	} else {
		err = h.svc.Clear(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type importScenariosController struct{ svc services.QueueService }

func NewImportScenariosController(svc services.QueueService) *importScenariosController {
	return &importScenariosController{svc}
}

func (h *importScenariosController) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	added, err := h.svc.ImportBulk(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"imported": added, "count": len(added)})
}
