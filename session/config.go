package session

import "time"

// Config holds fragment session store configuration.
type Config struct {
	// MaxFragmentBytes caps a single fragment payload.
	MaxFragmentBytes int64 `yaml:"max_fragment_bytes" mapstructure:"max_fragment_bytes"`
	// IdleTTL evicts sessions with no fragment or finalize activity.
	IdleTTL time.Duration `yaml:"idle_ttl" mapstructure:"idle_ttl"`
	// CompletedRetention keeps finalized sessions around so a client that
	// missed the finalize response can repeat it idempotently.
	CompletedRetention time.Duration `yaml:"completed_retention" mapstructure:"completed_retention"`
	// TombstoneTTL is how long evicted session ids are remembered so late
	// fragments answer SESSION_EXPIRED instead of silently opening a new session.
	TombstoneTTL time.Duration `yaml:"tombstone_ttl" mapstructure:"tombstone_ttl"`
	// SweepInterval is how often the janitor scans for expired sessions.
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxFragmentBytes == 0 {
		c.MaxFragmentBytes = 4 << 20 // 4MB
	}
	if c.IdleTTL == 0 {
		c.IdleTTL = 10 * time.Minute
	}
	if c.CompletedRetention == 0 {
		c.CompletedRetention = 5 * time.Minute
	}
	if c.TombstoneTTL == 0 {
		c.TombstoneTTL = time.Hour
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = time.Minute
	}
}
