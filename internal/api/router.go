package api

import (
	httpSwagger "github.com/swaggo/http-swagger"

	_ "go-research-pipeline/docs"
	"go-research-pipeline/internal/api/handler"
	"go-research-pipeline/pkg/router"
)

// RegisterRoutes mounts the research API and the Swagger UI on r.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.POST("/api/v1/research", h.Research)
	r.GET("/api/v1/capabilities", h.ListCapabilities)
	r.GET("/api/v1/history", h.ListHistory)
	r.GET("/api/v1/history/entry", h.GetHistoryEntry)
	r.GET("/api/v1/history/export", h.ExportHistoryEntry)
	r.GET("/api/v1/history/search", h.SearchHistory)
	r.GET("/api/v1/runs", h.ListRuns)
	r.GET("/swagger/*", httpSwagger.WrapHandler.ServeHTTP)
}
