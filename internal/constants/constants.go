// Package constants defines application-wide constants and default values.
package constants

import "time"

const (
	AppName    = "gotpb"
	AppVersion = "1.0.0"

	// Default configuration values
	DefaultPort     = "8080"
	DefaultLogLevel = "info"
	DefaultDialect  = "apibay"
	DefaultTimeout  = 30 * time.Second

	// Cache settings
	DefaultCacheSize     = 500
	DefaultCacheTTL      = 10 * time.Minute
	CacheCleanupInterval = 5 * time.Minute

	// Rate limiting of incoming requests
	DefaultRateLimit = 5  // requests per second
	DefaultRateBurst = 10 // burst capacity

	ShutdownTimeout = 10 * time.Second

	// Log file rotation
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28

	// Conversion factors
	BytesToGiB = 1024 * 1024 * 1024
)
