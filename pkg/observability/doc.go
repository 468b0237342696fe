/*
Package observability turns session controller lifecycle hooks into Prometheus
metrics and structured log records.
*/
package observability
