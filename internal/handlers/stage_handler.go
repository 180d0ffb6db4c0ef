package handlers

import (
	"context"
	"net/http"

	"progression-service/internal/apperr"
	"progression-service/internal/progression"
	"progression-service/internal/service"

	"github.com/gin-gonic/gin"
)

type StageHandler struct {
	Service *service.StageService
	Machine *progression.Machine
	Videos  *progression.VideoLedger
}

func NewStageHandler(s *service.StageService, m *progression.Machine, v *progression.VideoLedger) *StageHandler {
	return &StageHandler{Service: s, Machine: m, Videos: v}
}

func (h *StageHandler) ListStages(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	stages, err := h.Service.ListStages(context.Background(), userID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stages)
}

func (h *StageHandler) GetStageQuestions(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	stageID := c.Param("id")

	questions, err := h.Service.StageQuestions(context.Background(), userID, stageID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, questions)
}

func (h *StageHandler) GetProgress(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	overview, err := h.Machine.Progress(context.Background(), userID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *StageHandler) GetHistory(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	stageID := c.Query("stage_id")

	attempts, err := h.Machine.History(context.Background(), userID, stageID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, attempts)
}

func (h *StageHandler) MarkVideoCompleted(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	var payload struct {
		VideoID string `json:"video_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Videos.MarkCompleted(context.Background(), userID, payload.VideoID); err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Video marked as completed"})
}

func (h *StageHandler) GetVideoProgress(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")

	progress, err := h.Videos.Progress(context.Background(), userID)
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"video_progress": progress})
}
