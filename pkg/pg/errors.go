package pg

import "errors"

var (
	ErrFailedToParseConfig     = errors.New("pg.parse_config_failed")
	ErrFailedToConnect         = errors.New("pg.connect_failed")
	ErrHealthcheckFailed       = errors.New("pg.healthcheck_failed")
	ErrFailedToApplyMigrations = errors.New("pg.migrations_failed")
	ErrMigrationsDirNotFound   = errors.New("pg.migrations_dir_not_found")
)
