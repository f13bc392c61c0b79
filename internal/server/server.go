package server

import (
	"context"
	"net/http"
	"time"

	"classbook/internal/auth"
	"classbook/internal/booking"
	"classbook/internal/config"
	"classbook/internal/gym"

	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP layer routes to.
type Deps struct {
	Gyms     gym.Service
	Bookings booking.Service
	// Checks are run by /ready; each must return nil when its backend is usable.
	Checks map[string]func(ctx context.Context) error
}

type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *config.Config
}

func New(cfg *config.Config, deps Deps) *Server {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(corsMiddleware())

	gymHandler := gym.NewHandler(deps.Gyms)
	bookingHandler := booking.NewHandler(deps.Bookings)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	bookingLimit := RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/classes", gymHandler.ListClasses)
		protected.GET("/classes/:classID", gymHandler.GetClass)
		protected.POST("/classes/:classID/book", bookingLimit, bookingHandler.BookClass)
		protected.POST("/bookings/:bookingID/cancel", bookingLimit, bookingHandler.CancelBooking)
		protected.GET("/bookings", bookingHandler.ListMyBookings)
	}

	admin := router.Group("/admin")
	admin.Use(authMiddleware, auth.RequireRole(auth.RoleStaff))
	{
		admin.POST("/gyms", gymHandler.CreateGym)
		admin.POST("/classes", gymHandler.CreateClass)
		admin.GET("/classes", gymHandler.ListClasses)
		admin.GET("/classes/:classID/bookings", bookingHandler.ListClassBookings)
		admin.POST("/bookings/:bookingID/attend", bookingHandler.MarkAttended)
		admin.POST("/bookings/:bookingID/no-show", bookingHandler.MarkNoShow)
		admin.GET("/analytics/attendance", bookingHandler.AttendanceAnalytics)
	}

	router.GET("/health", Health)
	router.GET("/ready", Ready(deps.Checks))
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		config: cfg,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Retry-After")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
