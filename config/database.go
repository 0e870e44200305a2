package config

import "time"

// DBConfig contains configuration for the PostgreSQL identity store.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"identity"`
	Password string `env:"PASSWORD" envDefault:"identity"`
	Name     string `env:"NAME"     envDefault:"identity"`
	SSLMode  string `env:"SSLMODE"  envDefault:"disable"`

	// ConnectTimeout caps connection establishment on the sign-in critical
	// path. Operations racing this timer treat a timer win as a recoverable
	// failure, never a crash.
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`

	// ProbeTimeout caps the liveness probe used by health checks.
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"2s"`

	// RunMigrationsOnStart applies embedded migrations during startup.
	RunMigrationsOnStart bool `env:"RUN_MIGRATIONS_ON_START" envDefault:"true"`
}

// Sanitize applies guardrails to database configuration values.
func (d *DBConfig) Sanitize() {
	if d.ConnectTimeout <= 0 {
		d.ConnectTimeout = 10 * time.Second
	}
	if d.ProbeTimeout <= 0 {
		d.ProbeTimeout = 2 * time.Second
	}
	if d.Port <= 0 {
		d.Port = 5432
	}
}
