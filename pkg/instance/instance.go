package instance

import "os"

// GetID returns the process instance identifier. Heroku-style dynos expose
// DYNO; other platforms can set INSTANCE_ID explicitly.
func GetID() string {
	if id := os.Getenv("DYNO"); id != "" {
		return id
	}
	if id := os.Getenv("INSTANCE_ID"); id != "" {
		return id
	}
	return "api-0"
}
