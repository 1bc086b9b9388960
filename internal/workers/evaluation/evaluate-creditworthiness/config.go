// internal/workers/evaluation/evaluate-creditworthiness/config.go
package evaluatecreditworthiness

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
