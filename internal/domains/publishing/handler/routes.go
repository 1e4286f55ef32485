package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the publishing endpoints on an authenticated group.
func RegisterRoutes(rg *gin.RouterGroup, h PublishingHandler) {
	contents := rg.Group("/contents/:id")
	{
		contents.POST("/publish", h.Publish)
		contents.POST("/publish/batch", h.PublishBatch)
		contents.POST("/publish/async", h.PublishAsync)
		contents.GET("/preview", h.Preview)
		contents.POST("/validate", h.Validate)
		contents.POST("/schedule", h.Schedule)
		contents.GET("/suggestions", h.Suggestions)
	}

	publishing := rg.Group("/publishing")
	{
		publishing.GET("/requirements", h.Requirements)
		publishing.GET("/interactions", h.Interactions)
	}
}
