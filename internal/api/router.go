package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultOrigin is always allowed by CORS.
const DefaultOrigin = "http://localhost:3000"

// NewRouter wires the handler routes. frontendURL, if set, is allowed by CORS
// in addition to DefaultOrigin.
func NewRouter(h *Handler, frontendURL string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	allowedOrigins := []string{DefaultOrigin}
	if frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.POST("/upload", h.Upload)
	api.GET("/listings", h.ListListings)
	api.GET("/listings/:id", h.GetListing)
	api.PATCH("/listings/:id/status", h.UpdateStatus)
	api.DELETE("/listings/:id", h.DeleteListing)
	api.GET("/stats", h.GetStats)

	return r
}

// NewServer returns an http.Server for the router.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		c.Next()

		evt := log.Info()
		if c.Writer.Status() >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.
			Str("requestID", requestID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	}
}
