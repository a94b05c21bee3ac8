// Package observability builds the process logger and the Prometheus
// collectors for token verification, authorization and issuance.
package observability
