package instance

import "os"

// GetID identifies the running replica in logs and lock owners. It prefers
// BLOODBANK_INSTANCE_ID, then the container hostname.
func GetID() string {
	if id := os.Getenv("BLOODBANK_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
