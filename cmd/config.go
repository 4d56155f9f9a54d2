package cmd

import "time"

// Config carries the environment-driven settings of the service.
type Config struct {
	HTTPPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr     string
	RedisPassword string

	// PositionTTL bounds how long the durable store keeps a position.
	PositionTTL time.Duration

	// PositionMaxAge is the freshness window for matching; older positions
	// never produce matches.
	PositionMaxAge time.Duration

	// IdleTimeout closes realtime connections silent this long.
	IdleTimeout time.Duration

	// ReconnectGrace is how long a dropped agent may reconnect before being
	// reported offline.
	ReconnectGrace time.Duration
}
