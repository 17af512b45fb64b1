package massdns

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// recordSep separates the name field from the rest of a resolution
// record line. Answers may contain dots (CNAME targets) and spaces,
// so only the first occurrence is significant.
const recordSep = ". "

// Record is one (name, answer) pair produced by a resolution pass.
// Name carries no trailing dot.
type Record struct {
	Name   string
	Type   string
	Answer string
}

// ParseRecord parses one massdns output line in the form
// "<name>. <type> <answer>". Lines that do not match are rejected.
func ParseRecord(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, false
	}

	idx := strings.Index(line, recordSep)
	if idx <= 0 {
		return Record{}, false
	}
	name := line[:idx]
	rest := strings.TrimSpace(line[idx+len(recordSep):])

	parts := strings.SplitN(rest, " ", 2)
	if len(parts) != 2 {
		return Record{}, false
	}
	return Record{
		Name:   strings.ToLower(name),
		Type:   parts[0],
		Answer: parts[1],
	}, true
}

// Store holds the full set of resolution records from a single pass.
// A store is created fresh per pass and replaced, never merged,
// between passes: stale cross-pass records would reintroduce answers
// the wildcard filter already discarded.
type Store struct {
	Records []Record
}

// NewStore returns an empty store
func NewStore() *Store {
	return &Store{}
}

// ParseStore reads a resolution record stream. Unparseable lines are
// skipped; a record stream is best-effort by nature since massdns
// interleaves no error markers.
func ParseStore(r io.Reader) (*Store, error) {
	s := NewStore()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if rec, ok := ParseRecord(scanner.Text()); ok {
			s.Records = append(s.Records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolution records: %w", err)
	}
	return s, nil
}

// Domains returns the distinct resolved names, in first-seen order
func (s *Store) Domains() []string {
	seen := make(map[string]bool, len(s.Records))
	var out []string
	for _, rec := range s.Records {
		if !seen[rec.Name] {
			seen[rec.Name] = true
			out = append(out, rec.Name)
		}
	}
	return out
}

// HasName reports whether any record carries exactly this name
func (s *Store) HasName(name string) bool {
	for _, rec := range s.Records {
		if rec.Name == name {
			return true
		}
	}
	return false
}

// Answers returns the distinct answer values, sorted
func (s *Store) Answers() []string {
	seen := make(map[string]bool, len(s.Records))
	var out []string
	for _, rec := range s.Records {
		if !seen[rec.Answer] {
			seen[rec.Answer] = true
			out = append(out, rec.Answer)
		}
	}
	sort.Strings(out)
	return out
}

// WriteTo writes the records back in the wire text format
func (s *Store) WriteTo(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, rec := range s.Records {
		if _, err := fmt.Fprintf(bw, "%s. %s %s\n", rec.Name, rec.Type, rec.Answer); err != nil {
			return err
		}
	}
	return bw.Flush()
}
