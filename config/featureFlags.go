package config

import (
	"os"
	"strings"
)

// MasterCacheDisabled turns the shared vendor/customer/product cache into a pass-through:
// every read goes to the API.
//
// Set via env:
// - MASTER_CACHE_DISABLED=true
func MasterCacheDisabled() bool {
	return envBool("MASTER_CACHE_DISABLED")
}

// AutoConfirmDeletes answers every delete confirmation with yes.
// Intended for scripted CLI runs only.
//
// Set via env:
// - AUTO_CONFIRM_DELETE=true
func AutoConfirmDeletes() bool {
	return envBool("AUTO_CONFIRM_DELETE")
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
