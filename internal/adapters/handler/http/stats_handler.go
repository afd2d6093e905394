package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/services"
)

const defaultStatsDays = 7

type StatsHandler struct {
	svc   *services.StatsService
	loc   *time.Location
	clock func() time.Time
}

func NewStatsHandler(svc *services.StatsService, loc *time.Location) *StatsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &StatsHandler{svc: svc, loc: loc, clock: time.Now}
}

func (h *StatsHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/stats/weekly", h.GetWeeklyStats)
}

// GetWeeklyStats godoc
// @Summary  Completion statistics over a date range
// @Description Both bounds are inclusive. Without parameters the last seven days are reported.
// @Tags     stats
// @Produce  json
// @Param    start query string false "First day, YYYY-MM-DD"
// @Param    end   query string false "Last day, YYYY-MM-DD"
// @Success  200 {object} domain.WeeklyStats
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /stats/weekly [get]
func (h *StatsHandler) GetWeeklyStats(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	endDate := h.clock().In(h.loc)
	if raw := c.Query("end"); raw != "" {
		t, err := domain.DecodeDateKey(raw, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid end, expected YYYY-MM-DD"})
			return
		}
		endDate = t
	}

	startDate := endDate.AddDate(0, 0, -(defaultStatsDays - 1))
	if raw := c.Query("start"); raw != "" {
		t, err := domain.DecodeDateKey(raw, h.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid start, expected YYYY-MM-DD"})
			return
		}
		startDate = t
	}

	stats, err := h.svc.GetWeeklyStats(c.Request.Context(), domain.StatsInput{
		UserID:    userID,
		StartDate: startDate,
		EndDate:   endDate,
		Location:  h.loc,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
