package router

import (
	"net/http"

	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/image-uploader/internal/api/handlers/image"
	"github.com/aliskhannn/image-uploader/internal/middleware"
)

// Setup registers the API routes. metrics is served at /metrics.
func Setup(h *image.Handler, origins []string, metrics http.Handler) *ginext.Engine {
	r := ginext.New()

	r.Use(middleware.CORSMiddleware(origins))
	r.Use(ginext.Logger())
	r.Use(ginext.Recovery())

	r.GET("/metrics", func(c *ginext.Context) {
		metrics.ServeHTTP(c.Writer, c.Request)
	})

	api := r.Group("/api")

	api.POST("/upload/intents", h.RequestIntents) // issuing presigned upload urls
	api.POST("/upload/confirm", h.ConfirmUpload)  // confirming a finished upload
	api.GET("/images/:id", h.GetImage)            // getting a committed record
	api.GET("/images/:id/status", h.GetStatus)    // getting the processing outcome

	return r
}
