package harvester

import "time"

// Stats tracks one controller's progress through its run. Counters are
// cumulative for the run; a controller is single-use.
type Stats struct {
	State            State     `json:"state"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	TotalPages       int       `json:"total_pages"`
	PagesVisited     int       `json:"pages_visited"`
	PagesSkipped     int       `json:"pages_skipped"`
	RecordsExtracted int       `json:"records_extracted"`
	RecordsWritten   int       `json:"records_written"`
	Flushes          int       `json:"flushes"`
}
