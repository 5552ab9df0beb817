package app

import (
	"net/http"
	"time"

	"github.com/osvaldoandrade/placebench/internal/controllers"
	"github.com/osvaldoandrade/placebench/internal/middleware"
	"github.com/osvaldoandrade/placebench/internal/providers"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const operatorRole = "operator"

func SetupMappings(app *Application) {
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	app.Engine.GET("/healthz", func(c *gin.Context) {
		if err := app.Persistence.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		redisOK := providers.PingRedis(c.Request.Context(), app.Redis, time.Second) == nil
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": redisOK})
	})

	cfg := app.Config
	v1 := app.Engine.Group("/v1/placebench", middleware.AuthMiddleware(app.Validator))
	operator := v1.Group("", middleware.RequireRole(operatorRole))
	{
		v1.GET("/catalog", controllers.NewCatalogController(app.RunDefaults).Handle)

		v1.GET("/scenarios", controllers.NewListScenariosController(app.Queue).Handle)
		operator.POST("/scenarios", controllers.NewAddScenarioController(app.Queue).Handle)
		operator.POST("/scenarios/import", controllers.NewImportScenariosController(app.Queue).Handle)
		operator.DELETE("/scenarios", controllers.NewRemoveScenarioController(app.Queue).Handle)
		operator.DELETE("/scenarios/:id", controllers.NewRemoveScenarioController(app.Queue).Handle)

		operator.POST("/compare",
			middleware.RateLimit(app.RateLimiter, "api", "compare", cfg.APIRateLimit),
			controllers.NewCompareController(app.Runs, app.RunDefaults, cfg.DefaultPattern, cfg.DefaultGridSize).Handle)

		operator.POST("/runs",
			middleware.RateLimit(app.RateLimiter, "api", "start_run", cfg.APIRateLimit),
			controllers.NewStartRunController(app.Runs, app.RunDefaults).Handle)
		v1.GET("/runs", controllers.NewListRunsController(app.Runs, cfg.MaxRunsListed).Handle)
		v1.GET("/runs/:id", controllers.NewGetRunController(app.Runs).Handle)
		operator.DELETE("/runs/:id", controllers.NewCancelRunController(app.Runs).Handle)
		v1.GET("/runs/:id/report", controllers.NewRunReportController(app.Reports).Handle)
		operator.POST("/runs/:id/export", controllers.NewExportReportController(app.Reports).Handle)
	}
}
