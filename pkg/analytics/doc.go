// Package analytics delivers funnel events and answer records to sinks in the background.
//
// The Dispatcher never blocks a transition: Emit enqueues and returns. A single worker
// drains the queue in order, fans each batch out to every sink and retries failed
// deliveries, so sinks see each event at least once.
package analytics
