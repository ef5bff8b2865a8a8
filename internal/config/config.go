package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url" validate:"required,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"required,gte=1"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"required,gte=1"`
}

// SchedulerConfig contains the settings for the periodic recurrence scan.
type SchedulerConfig struct {
	// IntervalSeconds is the period between scan passes. It only affects
	// the latency between a trigger and successor creation, never
	// correctness: a missed pass is caught up by the next one.
	IntervalSeconds int `mapstructure:"interval_seconds" validate:"required,gte=1"`

	// BatchSize caps how many candidates a single pass processes.
	BatchSize int `mapstructure:"batch_size" validate:"required,gte=1"`
}
