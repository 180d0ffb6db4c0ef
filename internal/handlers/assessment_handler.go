package handlers

import (
	"context"
	"net/http"

	"progression-service/internal/apperr"
	"progression-service/internal/models"
	"progression-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter for scored assessment submissions
	assessmentSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "progression_assessment_submissions_total",
			Help: "Total number of assessment submissions",
		},
		[]string{"kind", "outcome"}, // kind: diagnostic/stage, outcome: passed/failed/rejected
	)

	// Histogram for submission processing time
	submissionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "progression_submission_duration_seconds",
			Help:    "Time spent scoring and applying a submission",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

type AssessmentHandler struct {
	Service *service.AssessmentService
}

func NewAssessmentHandler(s *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{Service: s}
}

type submissionPayload struct {
	Answers []models.AnswerSubmission `json:"answers" binding:"required"`
}

func (h *AssessmentHandler) SubmitDiagnostic(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	var payload submissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		assessmentSubmissions.WithLabelValues("diagnostic", "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timer := prometheus.NewTimer(submissionDuration.WithLabelValues("diagnostic"))
	result, err := h.Service.SubmitDiagnostic(context.Background(), userID, payload.Answers)
	timer.ObserveDuration()
	if err != nil {
		assessmentSubmissions.WithLabelValues("diagnostic", "rejected").Inc()
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}

	assessmentSubmissions.WithLabelValues("diagnostic", "passed").Inc()
	c.JSON(http.StatusOK, result)
}

func (h *AssessmentHandler) SubmitStage(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	stageID := c.Param("id")

	var payload submissionPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		assessmentSubmissions.WithLabelValues("stage", "rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	timer := prometheus.NewTimer(submissionDuration.WithLabelValues("stage"))
	result, err := h.Service.SubmitStage(context.Background(), userID, stageID, payload.Answers)
	timer.ObserveDuration()
	if err != nil {
		assessmentSubmissions.WithLabelValues("stage", "rejected").Inc()
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}

	outcome := "failed"
	if result.Passed {
		outcome = "passed"
	}
	assessmentSubmissions.WithLabelValues("stage", outcome).Inc()
	c.JSON(http.StatusOK, result)
}
