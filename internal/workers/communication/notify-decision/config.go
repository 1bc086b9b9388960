// internal/workers/communication/notify-decision/config.go
package notifydecision

import "time"

type Config struct {
	Timeout      time.Duration
	SMSEnabled   bool
	CountryCode  string
	SenderID     string
	EmailEnabled bool
	EmailFrom    string
	EmailTo      []string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:     15 * time.Second,
		SMSEnabled:  true,
		CountryCode: "92",
	}
}
