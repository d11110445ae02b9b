package database

import "time"

// Driver identifies the database engine.
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// Config holds all settings needed to connect to and pool a database.
type Config struct {
	// Driver is the database engine (e.g. DriverMySQL).
	Driver Driver

	// Connection target. Drivers build their own DSN from these.
	Host     string
	Port     int // 0 means the engine default (3306 / 5432)
	User     string
	Password string
	Database string
	SSLMode  string // postgres only; "" means "prefer"

	// Pool tuning
	MaxConns        int32         // maximum number of connections in the pool
	MinConns        int32         // minimum number of idle connections kept alive
	MaxConnLifetime time.Duration // maximum time a connection may be reused
	MaxConnIdleTime time.Duration // maximum time a connection may sit idle

	// ConnectTimeout bounds the initial ping performed by New.
	ConnectTimeout time.Duration
}

// DefaultConfig returns pool settings sized for a small web application.
// Connection target fields are left empty; callers must set them.
func DefaultConfig(driver Driver) *Config {
	return &Config{
		Driver:          driver,
		MaxConns:        10,
		MinConns:        2,
		MaxConnLifetime: 30 * time.Minute,
		MaxConnIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}
