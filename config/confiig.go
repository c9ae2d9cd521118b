package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"nexusdesk/models"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"-"`
	DB       int    `json:"db"`
}

type AIConfig struct {
	APIKey      string        `json:"-"`
	BaseURL     string        `json:"base_url"`
	Model       string        `json:"model"`
	Timeout     time.Duration `json:"timeout"`
	DefaultTone string        `json:"default_tone"`
}

type NatsConfig struct {
	URL           string `json:"url"`
	StreamName    string `json:"stream_name"`
	SubjectPrefix string `json:"subject_prefix"`
}

type SMTPConfig struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	FromEmail string `json:"from_email"`
}

type IMAPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Username     string        `json:"username"`
	Password     string        `json:"-"`
	Encryption   string        `json:"encryption"`
	Mailbox      string        `json:"mailbox"`
	PollInterval time.Duration `json:"poll_interval"`
}

type Config struct {
	Environment        string        `json:"environment"`
	ServerPort         string        `json:"server_port"`
	CORSAllowedOrigins []string      `json:"cors_allowed_origins"`
	LogLevel           string        `json:"log_level"`
	SentryDSN          string        `json:"-"`
	SendDelay          time.Duration `json:"send_delay"`
	RateLimitAnalyze   int           `json:"rate_limit_analyze"`
	DBEnabled          bool          `json:"db_enabled"`
	DBHost             string        `json:"db_host"`
	DBPort             string        `json:"db_port"`
	DBUser             string        `json:"db_user"`
	DBPassword         string        `json:"-"`
	DBName             string        `json:"db_name"`
	DBSSLMode          string        `json:"db_ssl_mode"`
	DBMaxIdleConns     int           `json:"db_max_idle_conns"`
	DBMaxOpenConns     int           `json:"db_max_open_conns"`
	AI                 AIConfig      `json:"ai"`
	Redis              RedisConfig   `json:"redis"`
	Nats               NatsConfig    `json:"nats"`
	SMTP               SMTPConfig    `json:"smtp"`
	IMAP               IMAPConfig    `json:"imap"`
}

func init() {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		ServerPort:         getEnv("SERVER_PORT", "3000"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		SentryDSN:          getEnv("SENTRY_DSN", ""),
		SendDelay:          getEnvAsDuration("SEND_DELAY", 600*time.Millisecond),
		RateLimitAnalyze:   getEnvAsInt("RATE_LIMIT_ANALYZE", 30),

		DBEnabled:      getEnvAsBool("DB_ENABLED", false),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "nexusdesk"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		AI: AIConfig{
			APIKey:      getEnv("GROQ_API_KEY", ""),
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			Timeout:     getEnvAsDuration("AI_TIMEOUT", 30*time.Second),
			DefaultTone: getEnv("DEFAULT_TONE", "Professional"),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Nats: NatsConfig{
			URL:           getEnv("NATS_URL", ""),
			StreamName:    getEnv("NATS_STREAM", "INBOX_REPLIES"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "inbox.replies"),
		},
		SMTP: SMTPConfig{
			Host:      getEnv("SMTP_HOST", ""),
			Port:      getEnvAsInt("SMTP_PORT", 587),
			Username:  getEnv("SMTP_USERNAME", ""),
			Password:  getEnv("SMTP_PASSWORD", ""),
			FromEmail: getEnv("FROM_EMAIL", "support@nexusdesk.local"),
		},
		IMAP: IMAPConfig{
			Host:         getEnv("IMAP_HOST", ""),
			Port:         getEnvAsInt("IMAP_PORT", 993),
			Username:     getEnv("IMAP_USERNAME", ""),
			Password:     getEnv("IMAP_PASSWORD", ""),
			Encryption:   getEnv("IMAP_ENCRYPTION", "TLS"),
			Mailbox:      getEnv("IMAP_MAILBOX", "INBOX"),
			PollInterval: getEnvAsDuration("IMAP_POLL_INTERVAL", 5*time.Minute),
		},
	}

	// Validate required configurations
	if AppConfig.DBEnabled && AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required when DB_ENABLED is set")
	}
	if AppConfig.Environment == "production" && AppConfig.AI.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required in production")
	}
	if AppConfig.IMAP.Host != "" && AppConfig.IMAP.Username == "" {
		return fmt.Errorf("IMAP_USERNAME is required when IMAP_HOST is set")
	}

	logConfig()
	return nil
}

func ConnectDB() error {
	logrus.Info("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	logrus.Infof("Using connection string: %s", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	logrus.Info("✅ Successfully connected to the database")
	if err := DB.AutoMigrate(&models.Message{}); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	if err := models.SeedMessages(DB); err != nil {
		return fmt.Errorf("seeding messages failed: %w", err)
	}
	if err := models.SyncMessageSequence(DB).Error; err != nil {
		return fmt.Errorf("syncing message id sequence failed: %w", err)
	}
	logrus.Info("✅ Database migration completed")
	return nil
}

// Helper functions
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsList(key string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	logrus.WithFields(logrus.Fields{
		"environment": AppConfig.Environment,
		"port":        AppConfig.ServerPort,
		"db_enabled":  AppConfig.DBEnabled,
		"ai_model":    AppConfig.AI.Model,
		"ai_key_set":  AppConfig.AI.APIKey != "",
		"redis":       AppConfig.Redis.Enabled,
		"nats":        AppConfig.Nats.URL != "",
		"smtp":        AppConfig.SMTP.Host != "",
		"imap":        AppConfig.IMAP.Host != "",
	}).Info("🔧 Loaded configuration")
	if AppConfig.DBEnabled {
		logrus.Infof("Database: %s@%s:%s/%s",
			AppConfig.DBUser,
			AppConfig.DBHost,
			AppConfig.DBPort,
			AppConfig.DBName)
	}
}
