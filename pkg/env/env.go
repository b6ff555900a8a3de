// Package env holds small helpers for ad-hoc environment overrides that
// deliberately live outside the typed config (deploy-platform variables
// like PORT, local toggles like LOG_FORMAT).
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}
