// internal/workers/applicant/resolve-location-link/config.go
package resolvelocationlink

import "time"

type Config struct {
	Timeout time.Duration
	BaseURL string
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		BaseURL: "https://www.google.com/maps/search/?api=1&query=",
	}
}
