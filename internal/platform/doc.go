// Package platform exposes the remote billing platform to the migrator.
//
// Client bundles list, create, and update capabilities for one account. HTTPClient
// implements it over the REST API using form encoded bodies and a token bucket rate
// limiter; typed errors separate task-fatal failures from per-record rejections.
package platform
