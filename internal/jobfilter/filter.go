// Package jobfilter is the pure filtering and matching engine over
// in-memory job lists. The jobs handler uses it for list queries and
// the shell client uses it for local dashboard filtering, so it does
// no I/O and touches no shared state.
package jobfilter

import (
	"strconv"
	"strings"

	"github.com/hustlefy/hustlefy_be/internal/models"
)

// Criteria is one explicit filter selection from the UI. Empty fields
// impose no constraint; active fields combine with AND.
type Criteria struct {
	SearchTerm string
	Category   string
	Location   string
	Duration   string // a bucket label, e.g. "9-24 Hours"
	PayRange   string // a bucket label, e.g. "₹500 - ₹1000"
}

// Pay range bucket labels. Boundaries are half-open: the lower bound
// is exclusive except for the first bucket. Kept exactly as the
// product shipped them, including "₹500" landing in the first bucket.
const (
	PayUpTo500    = "₹0 - ₹500"
	Pay500To1000  = "₹500 - ₹1000"
	Pay1000To1500 = "₹1000 - ₹1500"
	PayOver1500   = "₹1500+"
)

// Duration bucket labels. Hour durations and day durations classify
// into separate bucket families; "24 Hours" stays in 9-24 and "7
// Days" stays in 4-7.
const (
	Duration1To8Hours  = "1-8 Hours"
	Duration9To24Hours = "9-24 Hours"
	DurationOver24     = "24+ Hours"
	Duration1To3Days   = "1-3 Days"
	Duration4To7Days   = "4-7 Days"
	DurationOverWeek   = "1+ Week"
	DurationOther      = "Other"
)

// PayRangeBucket classifies a payment amount into its bucket label.
func PayRangeBucket(payment float64) string {
	switch {
	case payment <= 500:
		return PayUpTo500
	case payment <= 1000:
		return Pay500To1000
	case payment <= 1500:
		return Pay1000To1500
	default:
		return PayOver1500
	}
}

// DurationBucket parses the leading integer out of a free-text
// duration ("8 Hours", "10 Days") and classifies it. Anything it
// cannot parse is "Other".
func DurationBucket(duration string) string {
	fields := strings.Fields(strings.TrimSpace(duration))
	if len(fields) < 2 {
		return DurationOther
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n <= 0 {
		return DurationOther
	}

	unit := strings.ToLower(fields[1])
	switch {
	case strings.HasPrefix(unit, "hour"):
		switch {
		case n <= 8:
			return Duration1To8Hours
		case n <= 24:
			return Duration9To24Hours
		default:
			return DurationOver24
		}
	case strings.HasPrefix(unit, "day"):
		switch {
		case n <= 3:
			return Duration1To3Days
		case n <= 7:
			return Duration4To7Days
		default:
			return DurationOverWeek
		}
	}
	return DurationOther
}

// Matches reports whether a single job passes every active criterion.
func Matches(job models.Job, c Criteria) bool {
	if term := strings.ToLower(strings.TrimSpace(c.SearchTerm)); term != "" {
		if !strings.Contains(strings.ToLower(job.Title), term) &&
			!strings.Contains(strings.ToLower(job.Description), term) &&
			!strings.Contains(strings.ToLower(job.Location), term) {
			return false
		}
	}
	if c.Category != "" && job.Category != c.Category {
		return false
	}
	if loc := strings.ToLower(strings.TrimSpace(c.Location)); loc != "" {
		if !strings.Contains(strings.ToLower(job.Location), loc) {
			return false
		}
	}
	if c.Duration != "" && DurationBucket(job.Duration) != c.Duration {
		return false
	}
	if c.PayRange != "" && PayRangeBucket(job.Payment) != c.PayRange {
		return false
	}
	return true
}

// Apply filters a job list down to the jobs passing the criteria.
func Apply(jobs []models.Job, c Criteria) []models.Job {
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if Matches(job, c) {
			out = append(out, job)
		}
	}
	return out
}

// Relevant reports whether a job matters to a seeker: category in the
// seeker's work categories, or the seeker's location appearing in the
// job's location. A seeker with neither set sees everything.
func Relevant(job models.Job, categories []string, location string) bool {
	if len(categories) == 0 && strings.TrimSpace(location) == "" {
		return true
	}
	for _, cat := range categories {
		if cat == job.Category {
			return true
		}
	}
	if loc := strings.ToLower(strings.TrimSpace(location)); loc != "" {
		if strings.Contains(strings.ToLower(job.Location), loc) {
			return true
		}
	}
	return false
}

// RelevantJobs filters a job list down to the jobs relevant to the
// given seeker profile.
func RelevantJobs(jobs []models.Job, categories []string, location string) []models.Job {
	out := make([]models.Job, 0, len(jobs))
	for _, job := range jobs {
		if Relevant(job, categories, location) {
			out = append(out, job)
		}
	}
	return out
}
