package provenance

import "fmt"

// Summary tallies the outcomes of a resolution run.
type Summary struct {
	Total          int `json:"total"`
	Exact          int `json:"exact"`
	Inferred       int `json:"inferred"`
	MissingVersion int `json:"missing_version"`
	MissingName    int `json:"missing_name"`

	// Unresolved counts archives that had both tokens but no match.
	Unresolved int `json:"unresolved"`
}

// Add counts res.
func (s *Summary) Add(res Result) {
	s.Total++
	switch {
	case res.Exact():
		s.Exact++
	case res.Resolved():
		s.Inferred++
	case res.Reason == ReasonMissingVersion:
		s.MissingVersion++
	case res.Reason == ReasonMissingName:
		s.MissingName++
	default:
		s.Unresolved++
	}
}

// Resolved returns the number of archives mapped to a git URL.
func (s Summary) Resolved() int { return s.Exact + s.Inferred }

// Percent formats n as a share of the total.
func (s Summary) Percent(n int) string {
	if s.Total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(n)/float64(s.Total))
}
