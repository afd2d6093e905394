package http

import (
	"net/http"
	"strconv"

	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/services"
	"github.com/gin-gonic/gin"
)

type HabitHandler struct {
	svc *services.HabitService
}

func NewHabitHandler(svc *services.HabitService) *HabitHandler {
	return &HabitHandler{
		svc: svc,
	}
}

type createHabitRequest struct {
	Name            string `json:"name" example:"Drink water"`
	Color           string `json:"color" example:"blue"`
	ReminderEnabled bool   `json:"reminder_enabled"`
	ReminderTime    string `json:"reminder_time" example:"08:30"`
}

type updateHabitRequest struct {
	Name    *string `json:"name"`
	Color   *string `json:"color"`
	Version int     `json:"version"`
}

type reminderRequest struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time" example:"21:00"`
}

type toggleDateResponse struct {
	Habit   *domain.Habit `json:"habit"`
	Tracked bool          `json:"tracked"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id", h.Update)
		habits.DELETE("/:id", h.Delete)
		habits.POST("/:id/days/:index/toggle", h.ToggleDay)
		habits.POST("/:id/dates/:date/toggle", h.ToggleDate)
		habits.PUT("/:id/reminder", h.SetReminder)
		habits.GET("/:id/calendar", h.Calendar)
	}
}

// Create godoc
// @Summary  Create a habit
// @Tags     habits
// @Accept   json
// @Produce  json
// @Param    habit body createHabitRequest true "Habit"
// @Success  201 {object} domain.Habit
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /habits [post]
func (h *HabitHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		UserID:          userID,
		Name:            req.Name,
		Color:           req.Color,
		ReminderEnabled: req.ReminderEnabled,
		ReminderTime:    req.ReminderTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

// List godoc
// @Summary  List the caller's habits with this week's completion
// @Tags     habits
// @Produce  json
// @Success  200 {array} domain.Habit
// @Security BearerAuth
// @Router   /habits [get]
func (h *HabitHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	list, err := h.svc.ListByUserID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if list == nil {
		list = []*domain.Habit{}
	}
	c.JSON(http.StatusOK, list)
}

// Get godoc
// @Summary  Get a habit
// @Tags     habits
// @Produce  json
// @Param    id path string true "Habit ID"
// @Success  200 {object} domain.Habit
// @Failure  404 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id} [get]
func (h *HabitHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Update godoc
// @Summary  Rename or recolor a habit
// @Description Omitted fields are left alone; an empty color clears it. A non-zero version enables the optimistic lock.
// @Tags     habits
// @Accept   json
// @Produce  json
// @Param    id    path string             true "Habit ID"
// @Param    habit body updateHabitRequest true "Changes"
// @Success  200 {object} domain.Habit
// @Failure  409 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id} [put]
func (h *HabitHandler) Update(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	habit, err := h.svc.Update(c.Request.Context(), services.UpdateHabitInput{
		ID:      c.Param("id"),
		UserID:  userID,
		Name:    req.Name,
		Color:   req.Color,
		Version: req.Version,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Delete godoc
// @Summary  Delete a habit
// @Tags     habits
// @Param    id path string true "Habit ID"
// @Success  204
// @Failure  404 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id} [delete]
func (h *HabitHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleDay godoc
// @Summary  Toggle a day of the current week
// @Description Index 0 is Sunday. The response carries the recomputed streak.
// @Tags     habits
// @Produce  json
// @Param    id    path string true "Habit ID"
// @Param    index path int    true "Day index 0-6"
// @Success  200 {object} domain.Habit
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id}/days/{index}/toggle [post]
func (h *HabitHandler) ToggleDay(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "day index must be an integer"})
		return
	}

	habit, err := h.svc.ToggleDay(c.Request.Context(), services.ToggleDayInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		Index:   index,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// ToggleDate godoc
// @Summary  Toggle a calendar date
// @Tags     habits
// @Produce  json
// @Param    id   path string true "Habit ID"
// @Param    date path string true "Date as YYYY-MM-DD"
// @Success  200 {object} toggleDateResponse
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id}/dates/{date}/toggle [post]
func (h *HabitHandler) ToggleDate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	habit, tracked, err := h.svc.ToggleDate(c.Request.Context(), services.ToggleDateInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		Date:    c.Param("date"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toggleDateResponse{Habit: habit, Tracked: tracked})
}

// SetReminder godoc
// @Summary  Enable or disable the daily reminder
// @Tags     habits
// @Accept   json
// @Produce  json
// @Param    id       path string          true "Habit ID"
// @Param    reminder body reminderRequest true "Reminder"
// @Success  200 {object} domain.Habit
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id}/reminder [put]
func (h *HabitHandler) SetReminder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	habit, err := h.svc.SetReminder(c.Request.Context(), services.SetReminderInput{
		HabitID: c.Param("id"),
		UserID:  userID,
		Enabled: req.Enabled,
		Time:    req.Time,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

// Calendar godoc
// @Summary  Month view of tracked dates
// @Tags     habits
// @Produce  json
// @Param    id    path  string true  "Habit ID"
// @Param    year  query int    false "Year, defaults to the current one"
// @Param    month query int    false "Month 1-12, defaults to the current one"
// @Success  200 {object} domain.MonthView
// @Failure  400 {object} errorResponse
// @Security BearerAuth
// @Router   /habits/{id}/calendar [get]
func (h *HabitHandler) Calendar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	year, err := optionalInt(c, "year")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "year must be an integer"})
		return
	}
	month, err := optionalInt(c, "month")
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "month must be an integer"})
		return
	}

	view, err := h.svc.Calendar(c.Request.Context(), c.Param("id"), userID, year, month)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func optionalInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
