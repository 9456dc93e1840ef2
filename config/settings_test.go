package config

import (
	"testing"
	"time"
)

func TestLoadSettings_Defaults(t *testing.T) {
	for _, key := range []string{"API_BASE_URL", "API_TOKEN", "API_TIMEOUT_SECONDS", "CACHE_LIFESPAN_MINUTES", "REDIS_ADDRESS", "PHONE_COUNTRY_CODE", "LIST_PAGE_SIZE"} {
		t.Setenv(key, "")
	}
	s := LoadSettings()
	if s.APIRoot() != "http://127.0.0.1:8000/api/v1" {
		t.Fatalf("unexpected APIRoot %q", s.APIRoot())
	}
	if s.APITimeout != 30*time.Second || s.CacheLifespan != 10*time.Minute || s.ListPageSize != 100 {
		t.Fatalf("unexpected defaults %+v", s)
	}
	if s.PhoneRegion != "IN" || s.RedisAddress != "" || s.APIToken != "" {
		t.Fatalf("unexpected defaults %+v", s)
	}
}

func TestLoadSettings_FromEnv(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://books.example.com/")
	t.Setenv("API_TOKEN", " abc ")
	t.Setenv("API_TIMEOUT_SECONDS", "5")
	t.Setenv("API_RATE_PER_SECOND", "2.5")
	t.Setenv("PHONE_COUNTRY_CODE", "mm")
	s := LoadSettings()
	if s.APIRoot() != "https://books.example.com/api/v1" {
		t.Fatalf("unexpected APIRoot %q", s.APIRoot())
	}
	if s.APIToken != "abc" || s.APITimeout != 5*time.Second || s.RatePerSecond != 2.5 || s.PhoneRegion != "MM" {
		t.Fatalf("unexpected settings %+v", s)
	}
}

func TestLoadSettings_MalformedFallsBack(t *testing.T) {
	t.Setenv("API_TIMEOUT_SECONDS", "soon")
	t.Setenv("LIST_PAGE_SIZE", "-3")
	t.Setenv("API_RATE_PER_SECOND", "0")
	s := LoadSettings()
	if s.APITimeout != 30*time.Second || s.ListPageSize != 100 || s.RatePerSecond != 10 {
		t.Fatalf("malformed values should fall back: %+v", s)
	}
}

func TestFeatureFlags(t *testing.T) {
	cases := map[string]bool{"true": true, "1": true, "YES": true, "y": true, "false": false, "": false, "nope": false}
	for v, expected := range cases {
		t.Setenv("MASTER_CACHE_DISABLED", v)
		t.Setenv("AUTO_CONFIRM_DELETE", v)
		if MasterCacheDisabled() != expected || AutoConfirmDeletes() != expected {
			t.Fatalf("flag value %q expected %v", v, expected)
		}
	}
}
