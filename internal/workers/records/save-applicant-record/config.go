// internal/workers/records/save-applicant-record/config.go
package saveapplicantrecord

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
