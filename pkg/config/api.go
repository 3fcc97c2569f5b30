package config

import "time"

// APIConfig holds runtime configuration for the registration API service.
type APIConfig struct {
	Environment   string
	Addr          string
	LogLevel      string
	DatabaseURL   string
	MigrationsDir string

	JWTSecret      string
	AccessTokenTTL time.Duration

	AdminEmail    string
	AdminName     string
	AdminPassword string

	RegistrationPrefix string

	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailFromName string

	NotifyQueueSize int

	EventName  string
	EventDate  string
	EventVenue string
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:   GetString("APP_ENV", "development"),
		Addr:          GetString("API_ADDR", ":4000"),
		LogLevel:      GetString("LOG_LEVEL", "info"),
		DatabaseURL:   GetString("DATABASE_URL", "postgres://mathflow:mathflow@db:5432/mathflow?sslmode=disable"),
		MigrationsDir: GetString("DB_MIGRATIONS_DIR", "./db/migrations"),

		JWTSecret:      GetString("JWT_SECRET", "supersecuresecret"),
		AccessTokenTTL: time.Duration(GetInt("ACCESS_TOKEN_TTL_MIN", 720)) * time.Minute,

		AdminEmail:    GetString("ADMIN_EMAIL", ""),
		AdminName:     GetString("ADMIN_NAME", "Event Admin"),
		AdminPassword: GetString("ADMIN_PASSWORD", ""),

		RegistrationPrefix: GetString("REGISTRATION_ID_PREFIX", "MATH"),

		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),

		SMTPHost:     GetString("SMTP_HOST", ""),
		SMTPPort:     GetInt("SMTP_PORT", 587),
		SMTPUsername: GetString("SMTP_USERNAME", ""),
		SMTPPassword: GetString("SMTP_PASSWORD", ""),
		MailFrom:     GetString("MAIL_FROM", "no-reply@mathforai.in"),
		MailFromName: GetString("MAIL_FROM_NAME", "MATH for AI"),

		NotifyQueueSize: GetInt("NOTIFY_QUEUE_SIZE", 64),

		EventName:  GetString("EVENT_NAME", "MathFlow AI"),
		EventDate:  GetString("EVENT_DATE", "February 21, 2026, 9:00 AM - 5:00 PM IST"),
		EventVenue: GetString("EVENT_VENUE", "Seminar Hall, 2nd Floor, CSPIT-A6 Building, CHARUSAT"),
	}
}
