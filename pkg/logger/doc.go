// Package logger builds configured slog loggers for the engine and its
// adapters. Level and format come from the environment so deployments flip
// between human-readable text and JSON aggregation without code changes.
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.New(cfg, logger.WithAttr(slog.String("service", "projectauth")))
package logger
