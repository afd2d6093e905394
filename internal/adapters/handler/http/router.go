package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/comitanigiacomo/kanso-habit-tracker/docs"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habit-tracker/internal/core/services"
)

// Pinger is satisfied by *sql.DB and *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type RouterDependencies struct {
	AuthHandler  *AuthHandler
	HabitHandler *HabitHandler
	StatsHandler *StatsHandler
	TokenService *services.TokenService

	DB     Pinger
	Redis  *redis.Client
	Logger *zap.Logger

	RateLimit       int
	RateLimitWindow time.Duration
	StartTime       time.Time
}

const healthTimeout = 2 * time.Second

func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		deps.Logger.Error("panic recovered", zap.Any("panic", recovered), zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}))
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.MetricsMiddleware())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposeHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:          12 * time.Hour,
	}))

	router.GET("/health", healthHandler(deps))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := router.Group("/api/v1")

	if deps.Redis != nil && deps.RateLimit > 0 {
		apiV1.Use(middleware.RateLimiterMiddleware(deps.Redis, deps.RateLimit, deps.RateLimitWindow, deps.Logger))
	}

	deps.AuthHandler.RegisterRoutes(apiV1)

	protected := apiV1.Group("")
	protected.Use(middleware.AuthMiddleware(deps.TokenService))
	{
		deps.HabitHandler.RegisterRoutes(protected)
		deps.StatsHandler.RegisterRoutes(protected)
	}

	return router
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Uptime   string `json:"uptime"`
}

// healthHandler reports 503 when a configured backend does not answer.
// Backends that are not configured are reported as disabled.
func healthHandler(deps RouterDependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		resp := healthResponse{
			Status:   "ok",
			Database: "disabled",
			Redis:    "disabled",
			Uptime:   time.Since(deps.StartTime).Round(time.Second).String(),
		}

		if deps.DB != nil {
			resp.Database = "connected"
			if err := deps.DB.PingContext(ctx); err != nil {
				resp.Database = "unreachable"
				resp.Status = "degraded"
			}
		}

		if deps.Redis != nil {
			resp.Redis = "connected"
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				resp.Redis = "unreachable"
				resp.Status = "degraded"
			}
		}

		statusCode := http.StatusOK
		if resp.Status != "ok" {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, resp)
	}
}
