// Package input builds the candidate domain list fed into the
// resolution pipeline, either from a ready-made list or from a
// wordlist combined with a base domain.
package input

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/slooppe/puredns/internal/exec"
)

// validName matches the characters a candidate may contain after
// lowercasing. Lines that fail the predicate are dropped, not
// reported: bruteforce wordlists are routinely dirty and a hard error
// on every stray line would make them unusable.
var validName = regexp.MustCompile(`^[a-z0-9.-]+$`)

// LoadFile reads candidate domains from a file, one per line
func LoadFile(path string) ([]string, error) {
	lines, err := exec.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain list: %w", err)
	}
	return lines, nil
}

// Generate combines every wordlist entry with the base domain as
// <entry>.<domain>
func Generate(words []string, domain string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		out = append(out, w+"."+domain)
	}
	return out
}

// Sanitize lowercases every candidate and keeps only those matching
// the valid-character predicate. Sanitizing an already-sanitized list
// returns it unchanged.
func Sanitize(domains []string) []string {
	out := make([]string, 0, len(domains))
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" || !validName.MatchString(d) {
			continue
		}
		out = append(out, d)
	}
	return out
}
