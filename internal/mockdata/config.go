// Package mockdata synthesises realistic x402 transaction and agent records
// for development and demos.
package mockdata

import "time"

// Config controls dataset size and randomness
type Config struct {
	Seed         int64
	Transactions int
	MinAgents    int
	MaxAgents    int
	// Window is how far back transaction timestamps reach
	Window time.Duration
	// Now anchors all generated timestamps. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the settings used by the API when nothing is configured
func DefaultConfig() Config {
	return Config{
		Seed:         402,
		Transactions: 800,
		MinAgents:    20,
		MaxAgents:    30,
		Window:       30 * 24 * time.Hour,
		Now:          time.Now,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Transactions < 0 {
		c.Transactions = 0
	}
	if c.MinAgents <= 0 {
		c.MinAgents = def.MinAgents
	}
	if c.MaxAgents < c.MinAgents {
		c.MaxAgents = c.MinAgents
	}
	if c.Window <= 0 {
		c.Window = def.Window
	}
	if c.Now == nil {
		c.Now = def.Now
	}
	return c
}
