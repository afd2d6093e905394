package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/services"
)

// Wednesday; the current week starts on Sunday 2024-05-12.
var fixedNow = time.Date(2024, 5, 15, 10, 0, 0, 0, time.UTC)

// headerAuth stands in for the JWT middleware and trusts X-User-ID.
func headerAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := c.GetHeader("X-User-ID"); id != "" {
			c.Set(middleware.ContextUserIDKey, id)
		}
		c.Next()
	}
}

func setupRouter() (*gin.Engine, *repository.InMemoryHabitRepository) {
	gin.SetMode(gin.TestMode)

	repo := repository.NewInMemoryHabitRepository()
	svc := services.NewHabitService(repo, nil, time.UTC)
	svc.SetClock(func() time.Time { return fixedNow })
	handler := adapterHTTP.NewHabitHandler(svc)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(headerAuth())
	handler.RegisterRoutes(api)
	return r, repo
}

func seedHabit(t *testing.T, repo *repository.InMemoryHabitRepository, userID, name string) *domain.Habit {
	t.Helper()
	h, err := domain.NewHabit(userID, fixedNow)
	require.NoError(t, err)
	require.NoError(t, h.Rename(name, fixedNow))
	require.NoError(t, repo.Create(context.Background(), h))
	return h
}

func doRequest(router *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}

	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeHabit(t *testing.T, w *httptest.ResponseRecorder) domain.Habit {
	t.Helper()
	var h domain.Habit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	return h
}

func TestCreateHabit(t *testing.T) {
	t.Run("Success: 201 Created", func(t *testing.T) {
		router, repo := setupRouter()

		w := doRequest(router, http.MethodPost, "/api/v1/habits", "user-1", `{"name": "Drink water", "color": "blue"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		h := decodeHabit(t, w)
		assert.NotEmpty(t, h.ID)
		assert.Equal(t, "Drink water", h.Name)
		require.NotNil(t, h.ColorHex)
		assert.Equal(t, "#007AFF", *h.ColorHex)
		assert.Equal(t, domain.DateKey("2024-05-12"), h.WeekStart)
		assert.Equal(t, 1, h.Version)

		stored, err := repo.GetByID(context.Background(), h.ID)
		require.NoError(t, err)
		assert.Equal(t, "user-1", stored.UserID)
	})

	t.Run("Success: blank habit with reminder", func(t *testing.T) {
		router, _ := setupRouter()

		w := doRequest(router, http.MethodPost, "/api/v1/habits", "user-1", `{"reminder_enabled": true, "reminder_time": "08:30"}`)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"reminder_time":"08:30"`)
		assert.Contains(t, w.Body.String(), `"name":""`)
	})

	t.Run("Fail: 401 Unauthorized (Missing Header)", func(t *testing.T) {
		router, _ := setupRouter()

		w := doRequest(router, http.MethodPost, "/api/v1/habits", "", `{"name": "Gym"}`)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Fail: 400 Bad Request", func(t *testing.T) {
		router, _ := setupRouter()

		cases := map[string]string{
			"unknown color":         `{"name": "Gym", "color": "magenta"}`,
			"reminder without time": `{"name": "Gym", "reminder_enabled": true}`,
			"malformed time":        `{"name": "Gym", "reminder_enabled": true, "reminder_time": "25:00"}`,
			"broken json":           `{"name": `,
		}
		for name, body := range cases {
			w := doRequest(router, http.MethodPost, "/api/v1/habits", "user-1", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, name)
		}
	})
}

func TestListAndGetHabits(t *testing.T) {
	t.Run("Success: 200 OK with List", func(t *testing.T) {
		router, repo := setupRouter()
		seedHabit(t, repo, "user-1", "Run")
		seedHabit(t, repo, "user-2", "Other")

		w := doRequest(router, http.MethodGet, "/api/v1/habits", "user-1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		var list []domain.Habit
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "Run", list[0].Name)
	})

	t.Run("Success: empty list is an array", func(t *testing.T) {
		router, _ := setupRouter()

		w := doRequest(router, http.MethodGet, "/api/v1/habits", "user-1", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("Fail: 404 Not Found (IDOR Protection)", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Secret")

		w := doRequest(router, http.MethodGet, "/api/v1/habits/"+h.ID, "user-2", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUpdateHabit(t *testing.T) {
	t.Run("Success: partial update keeps the color", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Old")
		require.NoError(t, h.SetColor("red", fixedNow))
		require.NoError(t, repo.Update(context.Background(), h))

		w := doRequest(router, http.MethodPut, "/api/v1/habits/"+h.ID, "user-1", `{"name": "New"}`)

		require.Equal(t, http.StatusOK, w.Code)
		updated, _ := repo.GetByID(context.Background(), h.ID)
		assert.Equal(t, "New", updated.Name)
		require.NotNil(t, updated.ColorHex)
		assert.Equal(t, "#FF3B30", *updated.ColorHex)
	})

	t.Run("Success: empty color clears it", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Old")
		require.NoError(t, h.SetColor("#123456", fixedNow))
		require.NoError(t, repo.Update(context.Background(), h))

		w := doRequest(router, http.MethodPut, "/api/v1/habits/"+h.ID, "user-1", `{"color": ""}`)

		require.Equal(t, http.StatusOK, w.Code)
		updated, _ := repo.GetByID(context.Background(), h.ID)
		assert.Nil(t, updated.ColorHex)
		assert.Equal(t, "Old", updated.Name)
	})

	t.Run("Fail: 409 Conflict on stale version", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Old")

		w := doRequest(router, http.MethodPut, "/api/v1/habits/"+h.ID, "user-1", `{"name": "New", "version": 7}`)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "version conflict")
	})

	t.Run("Fail: 404 Not Found (IDOR Protection)", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Secret")

		w := doRequest(router, http.MethodPut, "/api/v1/habits/"+h.ID, "user-2", `{"name": "Hacked"}`)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Fail: 400 name too long", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Old")
		long := bytes.Repeat([]byte("a"), 101)

		w := doRequest(router, http.MethodPut, "/api/v1/habits/"+h.ID, "user-1", `{"name": "`+string(long)+`"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteHabit(t *testing.T) {
	t.Run("Success: 204 No Content", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "To Delete")

		w := doRequest(router, http.MethodDelete, "/api/v1/habits/"+h.ID, "user-1", "")

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())

		_, err := repo.GetByID(context.Background(), h.ID)
		assert.ErrorIs(t, err, domain.ErrHabitNotFound)
	})

	t.Run("Fail: 404 Not Found (IDOR Protection)", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Secret")

		w := doRequest(router, http.MethodDelete, "/api/v1/habits/"+h.ID, "user-2", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Fail: 401 Unauthorized", func(t *testing.T) {
		router, _ := setupRouter()

		w := doRequest(router, http.MethodDelete, "/api/v1/habits/123", "", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestToggleDay(t *testing.T) {
	t.Run("Success: streak grows across consecutive days", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Read")

		for _, idx := range []string{"1", "2", "3"} {
			w := doRequest(router, http.MethodPost, "/api/v1/habits/"+h.ID+"/days/"+idx+"/toggle", "user-1", "")
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := doRequest(router, http.MethodGet, "/api/v1/habits/"+h.ID, "user-1", "")
		got := decodeHabit(t, w)
		assert.Equal(t, 3, got.CurrentStreak)
		assert.Equal(t, domain.Week{false, true, true, true, false, false, false}, got.WeeklyCompletion)
		assert.True(t, got.TrackedDates.Contains("2024-05-14"))
	})

	t.Run("Fail: 400 for index out of range", func(t *testing.T) {
		router, repo := setupRouter()
		h := seedHabit(t, repo, "user-1", "Read")

		w := doRequest(router, http.MethodPost, "/api/v1/habits/"+h.ID+"/days/7/toggle", "user-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(router, http.MethodPost, "/api/v1/habits/"+h.ID+"/days/monday/toggle", "user-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestToggleDate(t *testing.T) {
	router, repo := setupRouter()
	h := seedHabit(t, repo, "user-1", "Walk")

	w := doRequest(router, http.MethodPost, "/api/v1/habits/"+h.ID+"/dates/2024-04-01/toggle", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tracked":true`)

	w = doRequest(router, http.MethodPost, "/api/v1/habits/"+h.ID+"/dates/2024-04-01/toggle", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tracked":false`)

	w = doRequest(router, http.MethodPost, "/api/v1/habits/"+h.ID+"/dates/2024-02-30/toggle", "user-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetReminder(t *testing.T) {
	router, repo := setupRouter()
	h := seedHabit(t, repo, "user-1", "Stretch")

	w := doRequest(router, http.MethodPut, "/api/v1/habits/"+h.ID+"/reminder", "user-1", `{"enabled": true, "time": "21:00"}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeHabit(t, w)
	assert.True(t, got.ReminderEnabled)
	require.NotNil(t, got.ReminderTime)
	assert.Equal(t, domain.TimeOfDay{Hour: 21, Minute: 0}, *got.ReminderTime)

	w = doRequest(router, http.MethodPut, "/api/v1/habits/"+h.ID+"/reminder", "user-1", `{"enabled": false}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeHabit(t, w)
	assert.False(t, got.ReminderEnabled)
	assert.Nil(t, got.ReminderTime)

	w = doRequest(router, http.MethodPut, "/api/v1/habits/"+h.ID+"/reminder", "user-1", `{"enabled": true, "time": "9pm"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendar(t *testing.T) {
	router, repo := setupRouter()
	h := seedHabit(t, repo, "user-1", "Journal")
	_, err := h.ToggleDate("2024-02-29", fixedNow)
	require.NoError(t, err)
	require.NoError(t, repo.Update(context.Background(), h))

	t.Run("Success: explicit month", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/habits/"+h.ID+"/calendar?year=2024&month=2", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var view domain.MonthView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, 2, view.Month)
		assert.Len(t, view.Days, 29)
		assert.Equal(t, 1, view.TrackedCount)
	})

	t.Run("Success: defaults to the current month", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/habits/"+h.ID+"/calendar", "user-1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var view domain.MonthView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, 2024, view.Year)
		assert.Equal(t, 5, view.Month)
		assert.Len(t, view.Days, 31)
	})

	t.Run("Fail: 400 for bad query", func(t *testing.T) {
		w := doRequest(router, http.MethodGet, "/api/v1/habits/"+h.ID+"/calendar?month=13", "user-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = doRequest(router, http.MethodGet, "/api/v1/habits/"+h.ID+"/calendar?year=next", "user-1", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
