package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pixel-quiz-service/internal/app"
)

// RouterOptions configures the HTTP surface.
type RouterOptions struct {
	Mode              string
	AllowedOrigins    []string
	RequestsPerSecond float64
	Burst             int
	// Gatherer backs /metrics; nil leaves the endpoint out.
	Gatherer prometheus.Gatherer
}

// NewRouter builds the gin engine serving REST, websocket, health and metrics.
func NewRouter(service *app.QuizService, log *zap.Logger, opts RouterOptions) *gin.Engine {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))
	r.Use(cors.New(corsConfig(opts.AllowedOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		respond(c, http.StatusOK, gin.H{"ok": true})
	})
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	ws := NewWSHandler(service, log, originChecker(opts.AllowedOrigins))
	r.GET("/ws", gin.WrapF(ws.ServeWS))

	h := NewHandler(service, log)
	api := r.Group("/api", RateLimit(opts.RequestsPerSecond, opts.Burst))
	{
		api.GET("/rules", h.Rules)
		api.GET("/questions", h.Questions)
		api.POST("/results", h.SubmitResult)
		api.POST("/sessions", h.StartSession)
		api.GET("/sessions/:id", h.Session)
		api.POST("/sessions/:id/answers", h.Answer)
		api.DELETE("/sessions/:id", h.Abandon)
		api.GET("/users/:id/record", h.Record)
	}
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || containsWildcard(origins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || containsWildcard(origins) {
		return func(r *http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn("request", fields...)
			return
		}
		log.Debug("request", fields...)
	}
}
