package diag

// Counts tallies the severities of a list of diagnostics.
type Counts struct {
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
}

// Count tallies ds without descending into children.
// ERROR and FATAL both count as errors.
func Count(ds []*Diagnostic) Counts {
	var c Counts
	for _, d := range ds {
		switch d.Severity() {
		case SeverityError, SeverityFatal:
			c.Errors++
		case SeverityWarning:
			c.Warnings++
		case SeverityInfo:
			c.Infos++
		case SeverityOK:
		}
	}
	return c
}

