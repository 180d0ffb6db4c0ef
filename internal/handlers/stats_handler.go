package handlers

import (
	"context"
	"net/http"

	"progression-service/internal/apperr"
	"progression-service/internal/service"

	"github.com/gin-gonic/gin"
)

// StatsHandler serves platform-wide progression counts. Access control
// is the gateway's concern, same as every other protected route.
type StatsHandler struct {
	Service *service.StatsService
}

func NewStatsHandler(s *service.StatsService) *StatsHandler {
	return &StatsHandler{Service: s}
}

func (h *StatsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.Service.Statistics(context.Background())
	if err != nil {
		c.JSON(apperr.Status(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"statistics": stats})
}
