// Package infra holds the adapters around the schedule core: upstream
// providers, snapshot storage, MQTT publishing, metrics sinks, logging and
// error monitoring. Adapters implement interfaces declared under core.
package infra
