package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  Required variables are
// enforced by must(); values with sensible defaults use getenv().
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	// Business settings for reservation admission.
	TableAmount  int    // number of tables in the restaurant
	PeopleAmount int    // maximum party size per table
	BusinessTZ   string // IANA timezone the restaurant operates in
	VerifyTTLMin int    // verification token time-to-live in minutes

	// SMTP settings for the verification mailer.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
	BaseURL  string // public base URL used in verification links

	AvailabilityTTL time.Duration // redis cache TTL for availability reads
}

// Load reads configuration values from environment variables and
// returns a Config.  Missing required variables cause the program to
// exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		TableAmount:  envInt("TABLE_AMOUNT", 10),
		PeopleAmount: envInt("PEOPLE_AMOUNT", 5),
		BusinessTZ:   envStr("BUSINESS_TZ", "Europe/Moscow"),
		VerifyTTLMin: envInt("VERIFY_TOKEN_TTL_MIN", 60),

		SMTPHost: must("SMTP_HOST"),
		SMTPPort: envInt("SMTP_PORT", 587),
		SMTPUser: os.Getenv("SMTP_USERNAME"),
		SMTPPass: os.Getenv("SMTP_PASSWORD"),
		MailFrom: must("MAIL_FROM"),
		BaseURL:  envStr("BASE_URL", "http://localhost:8080"),

		AvailabilityTTL: envDur("AVAILABILITY_CACHE_TTL", 30*time.Second),
	}
}

// Location resolves the configured business timezone.  The zone is
// loaded once at startup; an unknown name is a configuration error.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.BusinessTZ)
	if err != nil {
		log.Fatalf("invalid BUSINESS_TZ %q: %v", c.BusinessTZ, err)
	}
	return loc
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
