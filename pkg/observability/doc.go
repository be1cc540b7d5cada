/*
Package observability provides tools for monitoring the funnel engine.

Metrics exposes Prometheus collectors fed by lifecycle hooks; LoggingHooks writes the same
transitions to a structured logger. Combine merges several hook sets so both can be registered.
*/
package observability
