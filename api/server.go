// Package api is the HTTP surface: job submission and polling.
package api

import (
	"context"

	"github.com/gin-gonic/gin"

	"clipforge/queue"
)

// JobService is the queue contract the API depends on.
type JobService interface {
	Submit(ctx context.Context, payload *queue.Payload) (string, error)
	Status(ctx context.Context, jobID string) (*queue.Status, error)
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(jobs JobService) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	RegisterCompilationRoutes(r, jobs)
	RegisterHealthRoutes(r)
	return r
}
