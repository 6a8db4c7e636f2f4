// Package export serializes generation log entries as JSON or CSV for the
// logs export command and for retention archives.
package export
