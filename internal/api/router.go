// Package api exposes the prediction system over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Edgar-Del/malaria-predict-mono/internal/alerts"
	"github.com/Edgar-Del/malaria-predict-mono/internal/config"
	"github.com/Edgar-Del/malaria-predict-mono/internal/db"
	"github.com/Edgar-Del/malaria-predict-mono/internal/service"
)

func NewRouter(database *db.DB, svc *service.Service, alertSvc *alerts.Service, logger *logrus.Logger, cfg config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLoggingMiddleware(logger))

	h := NewHandler(database, svc, alertSvc, logger, cfg)

	api := r.Group(cfg.API.BasePath)
	{
		api.POST("/predict", h.Predict)
		api.POST("/predict/batch", h.PredictBatch)
		api.POST("/train", h.Train)
		api.GET("/predictions", h.GetPredictions)
		api.GET("/municipalities", h.GetMunicipalities)
		api.POST("/series", h.IngestSeries)
		api.GET("/series/:municipality", h.GetSeries)
		api.GET("/model/metrics", h.GetModelMetrics)
		api.POST("/alerts/evaluate", h.EvaluateAlerts)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "model_loaded": svc.Model() != nil})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
