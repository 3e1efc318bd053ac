package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints and floats for
// limits and distances.
type Config struct {
	Env             string  // application environment (e.g. "dev", "prod")
	Port            string  // HTTP port to listen on
	DBUser          string  // database username
	DBPass          string  // database password (optional)
	DBHost          string  // database host address
	DBPort          string  // database port number
	DBName          string  // database name
	DBMaxOpen       int     // connection pool: max open connections
	DBMaxIdle       int     // connection pool: max idle connections
	DBConnLifeMin   int     // connection pool: connection lifetime in minutes
	JWTSecret       string  // secret used to sign JWTs
	AccessTTLMin    int     // access token time‑to‑live in minutes
	RefreshTTLDays  int     // refresh token time‑to‑live in days
	BcryptCost      int     // bcrypt cost for password hashing
	DefaultRadiusKm float64 // search radius applied when the caller supplies none
	MaxRadiusKm     float64 // upper bound for caller-supplied search radii
	DefaultPageSize int     // page size applied when the caller supplies none
	MaxPageSize     int     // upper bound for caller-supplied page sizes
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Search and paging
// knobs fall back to sane defaults so a minimal .env still boots.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty password allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		DBMaxOpen:       envInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdle:       envInt("DB_MAX_IDLE_CONNS", 25),
		DBConnLifeMin:   envInt("DB_CONN_LIFETIME_MIN", 30),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:      mustInt("BCRYPT_COST"),
		DefaultRadiusKm: envFloat("DEFAULT_RADIUS_KM", 10),
		MaxRadiusKm:     envFloat("MAX_RADIUS_KM", 50),
		DefaultPageSize: envInt("DEFAULT_PAGE_SIZE", 20),
		MaxPageSize:     envInt("MAX_PAGE_SIZE", 100),
	}
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
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

// envInt reads an optional integer variable, returning def when unset or malformed.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return def
}

// envFloat reads an optional float variable, returning def when unset or malformed.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
