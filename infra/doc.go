// Package infra holds the adapters behind the core interfaces: zerolog
// logging, metrics and MQTT run notifications, Sentry reporting and the
// SQLite run history. Core packages never import infra.
package infra
