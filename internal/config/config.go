// Package config loads the service configuration from the environment.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
	BackendMongo  = "mongo"
)

// MaxUpcomingCount caps how many upcoming purchase days a request may ask for.
const MaxUpcomingCount = 100

// Config captures environment driven configuration values.
type Config struct {
	Port           int
	StorageBackend string
	DBPath         string
	DataFile       string
	MongoURI       string
	MongoDatabase  string
	StaticPath     string

	AdminPassword     string
	AdminPasswordHash string

	SessionSecret string
	// SessionSecretGenerated is set when SESSION_SECRET was empty; sessions
	// then do not survive a restart.
	SessionSecretGenerated bool
	SessionTTL             time.Duration

	// SeedPeople is the rotation of a brand-new document; nil keeps the default.
	SeedPeople []string

	DefaultLanguage string
	UpcomingCount   int
	Location        *time.Location
	LogLevel        string
}

// LoadWithDotEnv loads the given .env files (default ".env") into the process
// environment, skipping missing ones, then calls Load. Variables already set
// in the environment win.
func LoadWithDotEnv(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return Load()
}

// Load parses configuration values from the current process environment.
//
// Defaults apply to optional fields. Every missing or invalid value is
// collected and reported in one error.
func Load() (Config, error) {
	cfg := Config{
		Port:            3000,
		StorageBackend:  BackendSQLite,
		DBPath:          "./data/ledger.db",
		DataFile:        "./data/data.json",
		MongoDatabase:   "sodarota",
		StaticPath:      "./static",
		SessionTTL:      24 * time.Hour,
		DefaultLanguage: "pt-BR",
		UpcomingCount:   5,
		Location:        time.Local,
		LogLevel:        "info",
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	if portValue := env("PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "PORT")
		} else {
			cfg.Port = port
		}
	}

	if backend := strings.ToLower(env("STORAGE_BACKEND")); backend != "" {
		switch backend {
		case BackendSQLite, BackendJSON, BackendMongo:
			cfg.StorageBackend = backend
		default:
			invalid = append(invalid, "STORAGE_BACKEND")
		}
	}

	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.DataFile = getEnv("DATA_FILE", cfg.DataFile)
	cfg.MongoURI = env("MONGO_URI")
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", cfg.MongoDatabase)
	cfg.StaticPath = getEnv("STATIC_PATH", cfg.StaticPath)
	if cfg.StorageBackend == BackendMongo && cfg.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}

	cfg.AdminPassword = env("ADMIN_PASSWORD")
	cfg.AdminPasswordHash = env("ADMIN_PASSWORD_HASH")

	if secret := env("SESSION_SECRET"); secret != "" {
		cfg.SessionSecret = secret
	} else {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, err
		}
		cfg.SessionSecret = secret
		cfg.SessionSecretGenerated = true
	}

	if ttlValue := env("SESSION_TTL"); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if seed, ok := os.LookupEnv("SEED_PEOPLE"); ok {
		cfg.SeedPeople = splitList(seed)
	}

	cfg.DefaultLanguage = getEnv("DEFAULT_LANGUAGE", cfg.DefaultLanguage)

	if countValue := env("UPCOMING_COUNT"); countValue != "" {
		count, err := strconv.Atoi(countValue)
		if err != nil || count <= 0 || count > MaxUpcomingCount {
			invalid = append(invalid, "UPCOMING_COUNT")
		} else {
			cfg.UpcomingCount = count
		}
	}

	if tz := env("TIMEZONE"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			invalid = append(invalid, "TIMEZONE")
		} else {
			cfg.Location = loc
		}
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// RequireAdmin reports an error unless an admin password or hash is configured.
func (c Config) RequireAdmin() error {
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		return fmt.Errorf("required environment variables not set: ADMIN_PASSWORD or ADMIN_PASSWORD_HASH")
	}
	return nil
}

// Addr returns the listen address for Port.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func getEnv(key, fallback string) string {
	if value := env(key); value != "" {
		return value
	}
	return fallback
}

// splitList splits a comma separated list, dropping blanks and duplicates.
func splitList(value string) []string {
	items := []string{}
	seen := make(map[string]bool)
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		items = append(items, item)
	}
	return items
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
