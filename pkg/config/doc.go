// Package config loads environment variables into tagged configuration
// structs. A .env file, when present, is applied once per process before
// the first parse; real environment variables always win over file values.
//
//	type StoreConfig struct {
//	    DSN string `env:"DATABASE_URL,required"`
//	}
//
//	var cfg StoreConfig
//	if err := config.Load(&cfg); err != nil {
//	    // missing or malformed variables
//	}
package config
