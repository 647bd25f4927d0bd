package projectauth

import (
	"github.com/dmitrymomot/projectauth/pkg/logger"
	"github.com/dmitrymomot/projectauth/pkg/ratelimit"
)

// Config is the engine's environment-driven configuration.
type Config struct {
	// MaxBatchSize caps bulk operation inputs.
	MaxBatchSize int `env:"PROJECTAUTH_MAX_BATCH_SIZE" envDefault:"100"`

	// RateLimits carries the per-class admission budgets.
	RateLimits ratelimit.Config

	// Log configures the engine logger.
	Log logger.Config
}
