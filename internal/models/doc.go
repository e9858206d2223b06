// package models contains the transient tabular structures that flow through
// one export run: raw backend rows, aggregated report rows, per-project fetch
// statuses and the run summary. Nothing here is persisted beyond the run's
// output artifacts.
package models
