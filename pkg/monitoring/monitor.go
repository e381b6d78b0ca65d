package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 领域指标，由事件总线的订阅者驱动
	PointsAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mkwa_points_awarded_total",
			Help: "Total points awarded, by activity type",
		},
		[]string{"activity_type"},
	)

	AchievementsUnlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mkwa_achievements_unlocked_total",
			Help: "Total achievements unlocked",
		},
	)

	GoalCompletions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mkwa_goal_completions_total",
			Help: "Total community goals completed",
		},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(PointsAwarded)
	prometheus.MustRegister(AchievementsUnlocked)
	prometheus.MustRegister(GoalCompletions)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
