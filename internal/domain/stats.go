package domain

import "time"

// IngestStats holds statistics about an ingestion run.
type IngestStats struct {
	Source    string
	Fetched   int
	New       int
	Skipped   int
	Errors    int
	Published int
	Duration  time.Duration
}

// RescoreStats holds statistics about a full score recalculation.
type RescoreStats struct {
	Scanned   int
	Updated   int
	Unchanged int
	Errors    int
	Duration  time.Duration
}
