package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"clipforge/queue"
)

// RegisterCompilationRoutes registers compilation job routes.
func RegisterCompilationRoutes(r *gin.Engine, jobs JobService) {
	c := &compilationsController{jobs: jobs}
	r.POST("/api/compilations", c.handleSubmit)
	r.GET("/api/compilations/:id", c.handlePoll)
}

type compilationsController struct {
	jobs JobService
}

// handleSubmit accepts a compilation payload and enqueues it.
// POST /api/compilations
func (c *compilationsController) handleSubmit(ctx *gin.Context) {
	var payload queue.Payload
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := payload.Validate(); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	jobID, err := c.jobs.Submit(ctx.Request.Context(), &payload)
	if err != nil {
		log.Printf("submit failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue job"})
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{
		"job_id": jobID,
		"state":  queue.StateWaiting,
	})
}

// handlePoll returns the job's state, progress and terminal result/error.
// GET /api/compilations/:id
func (c *compilationsController) handlePoll(ctx *gin.Context) {
	status, err := c.jobs.Status(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		log.Printf("status lookup failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read job status"})
		return
	}

	ctx.JSON(http.StatusOK, status)
}
