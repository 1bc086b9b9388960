// internal/workers/records/delete-applicant/config.go
package deleteapplicant

import "time"

type Config struct {
	Timeout     time.Duration
	SearchIndex string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		SearchIndex: "applicants",
	}
}
