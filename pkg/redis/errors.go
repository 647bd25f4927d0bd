package redis

import "errors"

var (
	ErrFailedToParseURL  = errors.New("redis.parse_url_failed")
	ErrNotReady          = errors.New("redis.connect_failed")
	ErrHealthcheckFailed = errors.New("redis.healthcheck_failed")
)
