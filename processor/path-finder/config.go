package pathfinder

import (
	"fmt"
	"time"
)

// Config holds configuration for the path-finder component
type Config struct {
	RequestSubject string        `json:"request_subject"`
	IssuedSubject  string        `json:"issued_subject"`
	QueueGroup     string        `json:"queue_group"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.RequestSubject == "" {
		return fmt.Errorf("request_subject is required")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must be non-negative")
	}
	return nil
}

// DefaultConfig returns default configuration for the path-finder
func DefaultConfig() Config {
	return Config{
		RequestSubject: "modulation.path.request",
		IssuedSubject:  "modulation.progression.issued",
		QueueGroup:     "modulator",
		RequestTimeout: 5 * time.Second,
	}
}
