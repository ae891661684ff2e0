package crawl

import (
	"fmt"
	"strings"
)

// expectedURLParts is the number of slash-separated parts a complete
// repository URL splits into.
const expectedURLParts = 5

// Explain fills the explanation column of every row. The first matching
// flag wins the leading explanation; clone-dependent problems are appended
// after it. Rows without findings read "No issues detected.".
func (res *Results) Explain() {
	for i := range res.Rows {
		res.Rows[i].Explanation = explain(&res.Rows[i])
	}
}

func explain(r *Result) string {
	var notes []string

	switch {
	case r.Duplicate:
		notes = append(notes, "Row is marked as a duplicate of another entry.")
	case r.NullValue:
		notes = append(notes, "Row contains null values.")
	case r.DomainFailed:
		notes = append(notes, "Domain could not be extracted due to unsupported or malformed URL.")
	case r.IncompleteURL:
		parts := strings.Split(strings.TrimRight(r.RepoURL, "/"), "/")
		if missing := expectedURLParts - len(parts); missing > 0 {
			notes = append(notes, fmt.Sprintf(
				"URL is incomplete; missing %d parts (expects protocol, domain, and path).", missing))
		}
	case !r.BaseRepoURLOK:
		notes = append(notes, "Unable to extract base repository URL.")
	case r.CloneStatus == CloneFailed:
		notes = append(notes, "Repository clone failed.")
	case r.CloneStatus == MeasureFailed:
		notes = append(notes, "Repository could not be measured through the API.")
	case r.CloneStatus == CloneUnknown && r.LastCommitURL == "":
		// API-measured rows carry a commit URL instead of a clone status.
		notes = append(notes, "Clone status unknown.")
	}

	if r.CloneStatus == CloneSuccessful || r.LastCommitURL != "" {
		if r.TestFileCount == Uncounted {
			notes = append(notes, "Test files could not be counted.")
		}
		if r.LastCommitHash == "" {
			notes = append(notes, "Last commit hash could not be retrieved.")
		}
	}

	if len(notes) == 0 {
		return "No issues detected."
	}
	return strings.Join(notes, " | ")
}
