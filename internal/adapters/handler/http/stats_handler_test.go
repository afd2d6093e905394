package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	adapterHTTP "github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/services"
)

type MockHabitRepoForStats struct {
	mock.Mock
}

func (m *MockHabitRepoForStats) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Habit), args.Error(1)
}

func (m *MockHabitRepoForStats) Create(ctx context.Context, h *domain.Habit) error { return nil }
func (m *MockHabitRepoForStats) Update(ctx context.Context, h *domain.Habit) error { return nil }
func (m *MockHabitRepoForStats) Delete(ctx context.Context, id string) error       { return nil }
func (m *MockHabitRepoForStats) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	return nil, domain.ErrHabitNotFound
}
func (m *MockHabitRepoForStats) ListDueReminders(ctx context.Context, t domain.TimeOfDay) ([]*domain.Habit, error) {
	return nil, nil
}

func setupStatsRouter() (*gin.Engine, *MockHabitRepoForStats) {
	gin.SetMode(gin.TestMode)

	habitRepo := new(MockHabitRepoForStats)
	handler := adapterHTTP.NewStatsHandler(services.NewStatsService(habitRepo), time.UTC)

	r := gin.New()
	r.Use(headerAuth())

	api := r.Group("/api/v1")
	handler.RegisterRoutes(api)

	return r, habitRepo
}

func getStats(r *gin.Engine, query, userID string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/stats/weekly"+query, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetWeeklyStats(t *testing.T) {
	t.Run("Success: Returns 200 with valid params", func(t *testing.T) {
		r, habitRepo := setupStatsRouter()

		h, err := domain.NewHabit("user-1", fixedNow)
		require.NoError(t, err)
		require.NoError(t, h.Rename("Run", fixedNow))
		h.TrackedDates = domain.NewDateSet("2024-01-01", "2024-01-03", "2024-01-09")

		habitRepo.On("ListByUserID", mock.Anything, "user-1").Return([]*domain.Habit{h}, nil)

		w := getStats(r, "?start=2024-01-01&end=2024-01-07", "user-1")

		require.Equal(t, http.StatusOK, w.Code)

		var stats domain.WeeklyStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		assert.Equal(t, domain.DateKey("2024-01-01"), stats.StartDate)
		assert.Equal(t, domain.DateKey("2024-01-07"), stats.EndDate)
		assert.Equal(t, 1, stats.TotalHabits)
		require.Len(t, stats.HabitStats, 1)
		assert.Equal(t, 2, stats.HabitStats[0].DaysCompleted)
		assert.Equal(t, []int{1, 0, 1, 0, 0, 0, 0}, stats.HabitStats[0].DailyProgress)
	})

	t.Run("Success: Returns 200 with Smart Defaults (No dates provided)", func(t *testing.T) {
		r, habitRepo := setupStatsRouter()

		h, err := domain.NewHabit("user-1", fixedNow)
		require.NoError(t, err)
		habitRepo.On("ListByUserID", mock.Anything, "user-1").Return([]*domain.Habit{h}, nil)

		w := getStats(r, "", "user-1")

		require.Equal(t, http.StatusOK, w.Code)

		var stats domain.WeeklyStats
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
		require.Len(t, stats.HabitStats, 1)
		assert.Len(t, stats.HabitStats[0].DailyProgress, 7)
	})

	t.Run("Validation: 400 Bad Request on Invalid Dates (Start > End)", func(t *testing.T) {
		r, habitRepo := setupStatsRouter()

		w := getStats(r, "?start=2024-01-10&end=2024-01-01", "user-1")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), services.ErrInvalidStatsRange.Error())
		habitRepo.AssertNotCalled(t, "ListByUserID", mock.Anything, mock.Anything)
	})

	t.Run("Validation: 400 Bad Request on Malformed Date", func(t *testing.T) {
		r, _ := setupStatsRouter()

		w := getStats(r, "?start=not-a-date", "user-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = getStats(r, "?end=2024-02-30", "user-1")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Security: 401 Unauthorized if no User ID", func(t *testing.T) {
		r, _ := setupStatsRouter()

		w := getStats(r, "", "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Failure: 500 Internal Server Error on DB Fail", func(t *testing.T) {
		r, habitRepo := setupStatsRouter()

		habitRepo.On("ListByUserID", mock.Anything, "user-1").Return(nil, errors.New("db boom"))

		w := getStats(r, "", "user-1")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "db boom")
	})
}
