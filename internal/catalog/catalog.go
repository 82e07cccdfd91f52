package catalog

import (
	"encoding/json"
	"os"
	"time"
)

/*
The catalog is a record of what one harvest run did. It is a primitive for
verifying, inventorying and auditing harvest output without replaying logs.
*/

// Catalog summarizes a single harvest run. Written as JSON next to the
// run's output file.
type Catalog struct {
	HarvestID        string    `json:"harvest_id"`
	Source           string    `json:"source"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	TotalPages       int       `json:"total_pages"`
	PagesVisited     int       `json:"pages_visited"`
	PagesSkipped     int       `json:"pages_skipped"`
	RecordsExtracted int       `json:"records_extracted"`
	RecordsWritten   int       `json:"records_written"`
	Completed        bool      `json:"completed"`
}

// Write persists the catalog as indented JSON at path.
func (c *Catalog) Write(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
