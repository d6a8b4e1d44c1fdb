package validator

import (
	"fmt"
	"strings"

	"github.com/wharflab/forgecheck/internal/diag"
)

// Impact decides whether a validation result fails the build.
type Impact string

const (
	// ImpactDoNotFail never fails on evaluated diagnostics.
	ImpactDoNotFail Impact = "do-not-fail"

	// ImpactFailOnAll fails when the result has errors even at the best level.
	ImpactFailOnAll Impact = "fail-on-all"

	// ImpactFailOnAny fails when any evaluated level has errors.
	ImpactFailOnAny Impact = "fail-on-any"
)

// Impacts returns every impact in documentation order.
func Impacts() []Impact {
	return []Impact{ImpactDoNotFail, ImpactFailOnAll, ImpactFailOnAny}
}

// ParseImpact parses an impact name. Underscores and case are tolerated.
func ParseImpact(s string) (Impact, error) {
	normalized := Impact(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	for _, i := range Impacts() {
		if normalized == i {
			return i, nil
		}
	}
	return "", fmt.Errorf("unknown impact %q (valid: do-not-fail, fail-on-all, fail-on-any)", s)
}

// Label returns a short human description.
func (i Impact) Label() string {
	switch i {
	case ImpactDoNotFail:
		return "Never"
	case ImpactFailOnAll:
		return "On no success"
	case ImpactFailOnAny:
		return "On any error"
	default:
		return string(i)
	}
}

// Passed reports whether the result passes under impact.
//
// Errors reported by the run itself (no modules, unreadable metadata) fail
// regardless of impact. Otherwise fail-on-all fails when the overall severity
// reaches ERROR and fail-on-any when any evaluated level reaches ERROR.
func (r *Result) Passed(impact Impact) bool {
	if diag.MaxSeverity(r.Diagnostics).IsProblem() {
		return false
	}
	switch impact {
	case ImpactFailOnAll:
		return !r.Severity().IsProblem()
	case ImpactFailOnAny:
		return !r.WorstLevelSeverity().IsProblem()
	default:
		return true
	}
}
