// Package mongo bootstraps the MongoDB client used by the membership
// store's document adapter: connection with startup retry and a health
// check. Collections and indexes are owned by the store adapter.
package mongo
