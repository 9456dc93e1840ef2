package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIBaseURL = "http://127.0.0.1:8000"
	apiPrefix         = "/api/v1"
)

// Settings is the client configuration resolved from the environment.
type Settings struct {
	APIBaseURL      string
	APIToken        string
	APITimeout      time.Duration
	AuthWaitTimeout time.Duration
	RatePerSecond   float64
	RateBurst       int
	ListPageSize    int
	ListMaxRecords  int
	CacheLifespan   time.Duration
	RedisAddress    string
	PhoneRegion     string
}

func init() {
	// Load env from .env
	godotenv.Load()
}

// LoadSettings reads the environment, applying defaults for anything unset or malformed.
func LoadSettings() Settings {
	return Settings{
		APIBaseURL:      envString("API_BASE_URL", defaultAPIBaseURL),
		APIToken:        strings.TrimSpace(os.Getenv("API_TOKEN")),
		APITimeout:      time.Duration(envInt("API_TIMEOUT_SECONDS", 30)) * time.Second,
		AuthWaitTimeout: time.Duration(envInt("AUTH_WAIT_TIMEOUT_SECONDS", 10)) * time.Second,
		RatePerSecond:   envFloat("API_RATE_PER_SECOND", 10),
		RateBurst:       envInt("API_RATE_BURST", 20),
		ListPageSize:    envInt("LIST_PAGE_SIZE", 100),
		ListMaxRecords:  envInt("LIST_MAX_RECORDS", 1000),
		CacheLifespan:   time.Duration(envInt("CACHE_LIFESPAN_MINUTES", 10)) * time.Minute,
		RedisAddress:    strings.TrimSpace(os.Getenv("REDIS_ADDRESS")),
		PhoneRegion:     strings.ToUpper(envString("PHONE_COUNTRY_CODE", "IN")),
	}
}

// APIRoot is the base URL every REST path is joined to.
func (s Settings) APIRoot() string {
	return strings.TrimRight(s.APIBaseURL, "/") + apiPrefix
}

func envString(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}
