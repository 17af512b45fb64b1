// Package wildcard separates genuine subdomains from names that only
// appear to resolve because a parent zone answers every query with
// the same catch-all record.
package wildcard

import (
	"sort"
	"strings"

	"github.com/slooppe/puredns/internal/massdns"
)

// Detection is the outcome of a wildcard detection pass: the parent
// zones configured as wildcards and the answer values those wildcards
// return.
type Detection struct {
	// Roots are wildcard zones, marked with a leading "*." as in
	// "*.cdn.example.com"
	Roots []string
	// Answers are the answer payloads attributed to the roots
	Answers map[string]struct{}
}

// NewDetection returns an empty detection
func NewDetection() *Detection {
	return &Detection{Answers: make(map[string]struct{})}
}

// AddRoot records a wildcard zone (without the "*." marker)
func (d *Detection) AddRoot(zone string) {
	d.Roots = append(d.Roots, "*."+zone)
}

// AddAnswer records an answer value produced by a wildcard root
func (d *Detection) AddAnswer(answer string) {
	d.Answers[answer] = struct{}{}
}

// SortedAnswers returns the answer set as a sorted slice
func (d *Detection) SortedAnswers() []string {
	out := make([]string, 0, len(d.Answers))
	for a := range d.Answers {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Filter removes resolution records attributable to wildcard
// catch-alls and returns the distinct surviving names.
//
// A wildcard root may itself be a legitimately registered name: if
// the store holds a record whose name is exactly the root's zone, the
// zone is rescued and survives even when its answer is in the
// wildcard answer set.
//
// Removal is answer-based, not name-based: any record whose answer
// value belongs to the wildcard answer set is discarded, wildcard
// descendant or not. A legitimate name that coincidentally shares a
// wildcard's answer is lost too - precision over recall.
func Filter(store *massdns.Store, det *Detection) []string {
	if det == nil || len(det.Roots) == 0 {
		return store.Domains()
	}

	// Rescue roots that resolve as first-class names
	seen := make(map[string]bool)
	var out []string
	for _, root := range det.Roots {
		zone := strings.TrimPrefix(root, "*.")
		if store.HasName(zone) && !seen[zone] {
			seen[zone] = true
			out = append(out, zone)
		}
	}

	// Drop every record whose answer matches a known wildcard answer
	for _, rec := range store.Records {
		if _, wildcard := det.Answers[rec.Answer]; wildcard {
			continue
		}
		if !seen[rec.Name] {
			seen[rec.Name] = true
			out = append(out, rec.Name)
		}
	}
	return out
}
