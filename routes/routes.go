package routes

// import neccessary dependencies and modules
import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"telehealth-scheduling-core/clock"
	"telehealth-scheduling-core/config"
	"telehealth-scheduling-core/consistency"
	"telehealth-scheduling-core/eventsink"
	"telehealth-scheduling-core/handlers"
	"telehealth-scheduling-core/lock"
	"telehealth-scheduling-core/matcher"
	"telehealth-scheduling-core/middleware"
	"telehealth-scheduling-core/orchestrator"
	"telehealth-scheduling-core/repository"
	"telehealth-scheduling-core/slotengine"
	"telehealth-scheduling-core/utils"
	"telehealth-scheduling-core/videoprovisioner"
)

// SetupRoutes configures all application routes, wiring the storage,
// locking, matching and orchestration layers into the HTTP handlers.
func SetupRoutes(db *gorm.DB) *gin.Engine {
	// Create Gin router with default middleware (logger and recovery)
	router := gin.Default()

	// Initialize logger (use the global Logger instance)
	logger := utils.Logger

	// Add response compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	if os.Getenv("COMPRESSION_ENABLED") == "false" {
		compressionConfig.Enabled = false
	}
	router.Use(middleware.CompressionMiddleware(compressionConfig, logger))

	// Add rate limiting middleware
	rateLimitConfig := middleware.RateLimiterConfig{
		RequestsPerSecond: getEnvFloat("RATE_LIMIT_RPS", 30.0),
		BurstSize:         getEnvInt("RATE_LIMIT_BURST", 60),
		Enabled:           getEnvBool("RATE_LIMIT_ENABLED", true),
	}
	router.Use(middleware.RateLimitMiddleware(rateLimitConfig, logger))

	// Add CORS middleware for frontend integration
	router.Use(func(c *gin.Context) {
		allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000"
		}

		origin := c.Request.Header.Get("Origin")
		origins := strings.Split(allowedOrigins, ",")

		allowed := false
		for _, allowedOrigin := range origins {
			if strings.TrimSpace(allowedOrigin) == origin {
				allowed = true
				break
			}
		}

		if allowed {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Telehealth Scheduling Core is running",
		})
	})

	// Storage ports
	appointmentStore := repository.NewGormAppointmentStore(db)
	clinicianStore := repository.NewGormClinicianStore(db)
	events := eventsink.NewGormEventSink(db)
	video := videoprovisioner.NewNoop()
	sysClock := clock.System{}

	// Distributed lock backend: Redis when configured, a single-process
	// in-memory fallback otherwise.
	orchCfg := config.GetOrchestratorConfig()
	var lockService lock.Service
	if redisClient := config.NewRedisClient(config.GetRedisConfig()); redisClient != nil {
		lockService = lock.NewRedisLockService(redisClient)
	} else {
		lockService = lock.NewLocalLockService(time.Minute)
	}

	engine := slotengine.New(clinicianStore, appointmentStore, sysClock, orchCfg.MinAdvanceBooking, orchCfg.MaxAdvanceBookingDays)
	match := matcher.New(clinicianStore, appointmentStore, engine, orchCfg.RequireVerifiedClinician, orchCfg.MaxAdvanceBookingDays)
	consistencyLayer := consistency.New(lockService, appointmentStore, engine, orchCfg.LockTimeout)
	orch := orchestrator.New(match, consistencyLayer, appointmentStore, events, video, sysClock, orchestrator.Config{
		MaxRetries:  orchCfg.MaxRetries,
		BaseBackoff: orchCfg.BaseBackoff,
		BackoffCap:  orchCfg.BackoffCap,
		JobTimeout:  orchCfg.JobTimeout,
	})

	bookingHandler := handlers.NewBookingHandler(orch, orchCfg.EnableHistoryPrioritization)
	jobHandler := handlers.NewJobHandler(orch)
	availabilityHandler := handlers.NewAvailabilityHandler(engine)
	clinicianHandler := handlers.NewClinicianHandler(clinicianStore)

	// API v1 routes
	v1 := router.Group("/api/v1")

	// Add advanced rate limiting for API routes
	v1.Use(middleware.AdvancedRateLimitMiddleware(logger))
	{
		// Clinician directory (protected)
		clinicians := v1.Group("/clinicians")
		clinicians.Use(middleware.AuthMiddleware())
		{
			clinicians.POST("", clinicianHandler.Create)  // POST /api/v1/clinicians
			clinicians.GET("/:id", clinicianHandler.Get)  // GET /api/v1/clinicians/:id
			clinicians.GET("", clinicianHandler.List)     // GET /api/v1/clinicians
		}

		// Availability (protected)
		availability := v1.Group("/availability")
		availability.Use(middleware.AuthMiddleware())
		{
			availability.GET("", availabilityHandler.Get) // GET /api/v1/availability
		}

		// Appointment booking (protected)
		appointments := v1.Group("/appointments")
		appointments.Use(middleware.AuthMiddleware())
		{
			appointments.POST("/book", bookingHandler.Book)                    // POST /api/v1/appointments/book
			appointments.POST("/smart-book-async", bookingHandler.SmartBookAsync) // POST /api/v1/appointments/smart-book-async
		}

		// Booking job queue (protected)
		jobs := v1.Group("/jobs")
		jobs.Use(middleware.AuthMiddleware())
		{
			jobs.GET("", jobHandler.List)                  // GET /api/v1/jobs?status=
			jobs.GET("/:id", jobHandler.Status)            // GET /api/v1/jobs/:id
			jobs.POST("/:id/cancel", jobHandler.Cancel)    // POST /api/v1/jobs/:id/cancel
			jobs.GET("/:id/stream", jobHandler.Stream)     // GET /api/v1/jobs/:id/stream
		}
	}

	return router
}

// Helper functions for environment variable parsing
func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}
