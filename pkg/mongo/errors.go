package mongo

import "errors"

var (
	ErrFailedToConnect   = errors.New("mongo.connect_failed")
	ErrHealthcheckFailed = errors.New("mongo.healthcheck_failed")
)
