// internal/workers/records/search-applicants/config.go
package searchapplicants

import "time"

type Config struct {
	Timeout     time.Duration
	SearchIndex string
	DefaultSize int
	MaxSize     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     10 * time.Second,
		SearchIndex: "applicants",
		DefaultSize: 20,
		MaxSize:     100,
	}
}
