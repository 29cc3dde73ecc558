// Package ingestion provides the import pipeline for cataloged projects.
//
// The Pipeline type manages the import workflow, including:
//   - Validating and storing projects
//   - Computing relevance scores asynchronously
//   - Classifying projects into fields asynchronously
//
// Processing is performed on a worker pool. Errors during async processing
// are logged but do not fail the import. ReadProjects decodes the JSON Lines
// export format consumed by the import command.
package ingestion
