package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"todoboard/internal/handler"
	"todoboard/pkg/logger"
	"todoboard/pkg/metrics"
	"todoboard/pkg/otel"
	"todoboard/pkg/trace"
)

// Pinger reports whether the store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BrokerStatus reports whether events can be published: connected and
// not held back by an open circuit breaker.
type BrokerStatus interface {
	IsConnected() bool
}

// Deps are the handlers and health checks the router is built from. Broker is nil
// when event publishing is disabled.
type Deps struct {
	Board  *handler.BoardHandler
	Page   *handler.PageHandler
	Store  Pinger
	Broker BrokerStatus
	Logger *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(trace.Middleware())
	r.Use(otel.GinMiddleware())
	r.Use(requestLogger(d.Logger))

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := d.Store.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		if d.Broker != nil && !d.Broker.IsConnected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// RPC
	api := r.Group("/api")
	{
		api.POST("/tasks", d.Board.AddTask)
		api.GET("/tasks", d.Board.ListTasks)
		api.POST("/tasks/:id/complete", d.Board.CompleteTask)
		api.POST("/assignees", d.Board.AddAssignee)
		api.GET("/assignees", d.Board.ListAssignees)
		api.POST("/assignments", d.Board.AssignTask)
	}

	// Page
	r.GET("/", d.Page.Show)
	r.POST("/tasks", d.Page.AddTask)
	r.POST("/tasks/:id/complete", d.Page.CompleteTask)
	r.POST("/assignees", d.Page.AddAssignee)
	r.POST("/assignments", d.Page.AssignTask)

	return r
}

// 请求日志中间件
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(status), latency)

		logger.WithTrace(c.Request.Context(), log).Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}
