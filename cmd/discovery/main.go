// jobmate-discovery-service
//
// Aggregates executive job postings from search APIs, public job boards and
// syndication feeds, deduplicates them by source URL and scores them against
// each candidate's search criteria.
//
// Commands:
//   - serve: HTTP API plus the cron loop over active candidates
//   - run <candidate>: one discovery run, result printed as JSON
//   - score <candidate>: recompute scores of stored new postings
//   - version
package main

import (
	"context"
	"os"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
