package report

import (
	"fmt"
	"strconv"
	"strings"
)

// ComposeIssueID synthesizes the externally visible issue identifier from a
// report id and the issue's index within that report's issues array. The id
// stays stable for the lifetime of the report.
func ComposeIssueID(reportID string, issueIndex int) string {
	return fmt.Sprintf("%s-%d", reportID, issueIndex)
}

// ParseIssueID resolves an issue identifier back to (reportID, issueIndex).
// Report ids may themselves contain dashes, so the split happens at the last
// one; the trailing segment must be a non-negative integer.
func ParseIssueID(issueID string) (string, int, error) {
	sep := strings.LastIndex(issueID, "-")
	if sep <= 0 || sep == len(issueID)-1 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, issueID)
	}

	reportID := issueID[:sep]
	idx, err := strconv.Atoi(issueID[sep+1:])
	if err != nil || idx < 0 {
		return "", 0, fmt.Errorf("%w: %q", ErrMalformedIdentifier, issueID)
	}

	return reportID, idx, nil
}
