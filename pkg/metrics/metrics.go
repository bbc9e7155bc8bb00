// Package metrics holds the Prometheus collectors exported by the desk binaries.
package metrics

const namespace = "belldesk"
