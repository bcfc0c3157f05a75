package instance

import (
	"os"

	"github.com/carni-kridi/attar-backend/pkg/env"
)

// GetID identifies the running process in logs. It prefers an explicit
// KRIDI_INSTANCE_ID, then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.Get("KRIDI_INSTANCE_ID", env.Get("DYNO", "")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
