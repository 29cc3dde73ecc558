// Package rescore recomputes relevance scores and field classifications
// for every project in the catalog.
//
// Projects are processed in batches on a worker pool, with retry and
// exponential backoff around each project and progress reporting.
package rescore
