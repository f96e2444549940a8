package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"telehealth-scheduling-core/models"
)

// Database holds the database connection
type Database struct {
	DB *gorm.DB
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// GetDatabaseConfig returns database configuration from environment variables
func GetDatabaseConfig() *DatabaseConfig {
	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		log.Fatal("DB_PASSWORD environment variable is required")
	}

	maxOpenConns := getEnvInt("DB_MAX_OPEN_CONNS", 25)
	maxIdleConns := getEnvInt("DB_MAX_IDLE_CONNS", 5)
	connMaxLifetime := getEnvDuration("DB_CONN_MAX_LIFETIME", "5m")
	connMaxIdleTime := getEnvDuration("DB_CONN_MAX_IDLE_TIME", "5m")

	return &DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnv("DB_PORT", "5432"),
		User:            getEnv("DB_USER", "postgres"),
		Password:        password,
		DBName:          getEnv("DB_NAME", "telehealth_scheduling"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpenConns,
		MaxIdleConns:    maxIdleConns,
		ConnMaxLifetime: connMaxLifetime,
		ConnMaxIdleTime: connMaxIdleTime,
	}
}

// ConnectDatabase establishes database connection with connection pooling
func ConnectDatabase() (*Database, error) {
	cfg := GetDatabaseConfig()

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	err = db.AutoMigrate(
		&models.Specialty{},
		&models.Clinician{},
		&models.Patient{},
		&models.AvailabilityTemplate{},
		&models.AvailabilityOverride{},
		&models.Appointment{},
		&models.LifecycleEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := createDatabaseIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to create database indexes: %w", err)
	}

	log.Println("Database connected, migrated, and optimized successfully")

	return &Database{DB: db}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

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
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key, fallback string) time.Duration {
	value := getEnv(key, fallback)
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(fallback); err == nil {
		return duration
	}
	return 5 * time.Minute
}

func createDatabaseIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_appointments_clinician_id ON appointments(clinician_id);",
		"CREATE INDEX IF NOT EXISTS idx_appointments_patient_id ON appointments(patient_id);",
		"CREATE INDEX IF NOT EXISTS idx_appointments_appointment_time ON appointments(appointment_time);",
		"CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status);",
		"CREATE INDEX IF NOT EXISTS idx_appointments_type ON appointments(type);",
		"CREATE INDEX IF NOT EXISTS idx_appointments_clinician_time ON appointments(clinician_id, appointment_time);",
		"CREATE INDEX IF NOT EXISTS idx_appointments_patient_status ON appointments(patient_id, status);",
		"CREATE INDEX IF NOT EXISTS idx_appointments_clinician_status ON appointments(clinician_id, status);",
		"CREATE INDEX IF NOT EXISTS idx_appointments_date_range ON appointments(appointment_time, end_time);",

		"CREATE INDEX IF NOT EXISTS idx_clinicians_specialty_id ON clinicians(specialty_id);",
		"CREATE INDEX IF NOT EXISTS idx_clinicians_is_available ON clinicians(is_available);",
		"CREATE INDEX IF NOT EXISTS idx_clinicians_specialty_available ON clinicians(specialty_id, is_available);",

		"CREATE INDEX IF NOT EXISTS idx_availability_templates_clinician_id ON availability_templates(clinician_id);",
		"CREATE INDEX IF NOT EXISTS idx_availability_overrides_clinician_date ON availability_overrides(clinician_id, date);",

		"CREATE INDEX IF NOT EXISTS idx_specialties_name ON specialties(name);",
	}

	for _, indexSQL := range indexes {
		if err := db.Exec(indexSQL).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s - %v", indexSQL, err)
		}
	}

	log.Println("Database indexes created successfully")
	return nil
}

// OrchestratorConfig holds the scheduling core's tunable defaults, all
// overridable by environment variable.
type OrchestratorConfig struct {
	MaxRetries                  int
	BaseBackoff                 time.Duration
	BackoffCap                  time.Duration
	OperationTimeout            time.Duration
	LockTimeout                 time.Duration
	JobTimeout                  time.Duration
	MinAdvanceBooking           time.Duration
	MaxAdvanceBookingDays       int
	DefaultSlotDuration         time.Duration
	DefaultBufferMinutes        int
	EnableHistoryPrioritization bool
	RequireVerifiedClinician    bool
}

// RedisConfig holds the distributed lock backend's connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// GetRedisConfig returns Redis configuration from environment variables. An
// empty Addr signals the caller to fall back to LocalLockService instead of
// RedisLockService.
func GetRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

// NewRedisClient constructs a go-redis client from cfg, or nil if no address
// is configured.
func NewRedisClient(cfg *RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// GetOrchestratorConfig loads orchestrator tunables from the environment,
// falling back to the defaults named in the scheduling core's design notes.
func GetOrchestratorConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		MaxRetries:                  getEnvInt("SCHED_MAX_RETRIES", 3),
		BaseBackoff:                 getEnvDuration("SCHED_BASE_BACKOFF", "500ms"),
		BackoffCap:                  getEnvDuration("SCHED_BACKOFF_CAP", "8s"),
		OperationTimeout:            getEnvDuration("SCHED_OP_TIMEOUT", "5s"),
		LockTimeout:                 getEnvDuration("SCHED_LOCK_TIMEOUT", "3s"),
		JobTimeout:                  getEnvDuration("SCHED_JOB_TIMEOUT", "30s"),
		MinAdvanceBooking:           getEnvDuration("SCHED_MIN_ADVANCE_BOOKING", "2h"),
		MaxAdvanceBookingDays:       getEnvInt("SCHED_MAX_ADVANCE_BOOKING_DAYS", 90),
		DefaultSlotDuration:         getEnvDuration("SCHED_DEFAULT_SLOT_DURATION", "30m"),
		DefaultBufferMinutes:        getEnvInt("SCHED_DEFAULT_BUFFER_MINUTES", 10),
		EnableHistoryPrioritization: getEnvBool("SCHED_ENABLE_HISTORY_PRIORITIZATION", true),
		RequireVerifiedClinician:    getEnvBool("SCHED_REQUIRE_VERIFIED_CLINICIAN", true),
	}
}
