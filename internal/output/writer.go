// Package output emits the final domain set and the optional
// intermediate artifacts of a pipeline run.
package output

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/slooppe/puredns/internal/massdns"
)

// Writer copies pipeline results to their configured destinations.
// Empty destinations discard the artifact.
type Writer struct {
	// Stdout receives the final set; defaults to os.Stdout
	Stdout io.Writer

	DomainsFile         string
	MassdnsFile         string
	WildcardsFile       string
	WildcardAnswersFile string
}

// NewWriter returns a writer printing the final set to stdout
func NewWriter() *Writer {
	return &Writer{Stdout: os.Stdout}
}

// WriteDomains prints the final set sorted and deduplicated, one name
// per line, and copies it to the configured file when one is set.
func (w *Writer) WriteDomains(domains []string) error {
	sorted := dedupeSorted(domains)

	out := w.Stdout
	if out == nil {
		out = os.Stdout
	}
	bw := bufio.NewWriter(out)
	for _, d := range sorted {
		fmt.Fprintln(bw, d)
	}
	if err := bw.Flush(); err != nil {
		return err
	}

	if w.DomainsFile == "" {
		return nil
	}
	return writeLines(w.DomainsFile, sorted)
}

// WriteMassdns persists the raw bulk resolution records
func (w *Writer) WriteMassdns(store *massdns.Store) error {
	if w.MassdnsFile == "" || store == nil {
		return nil
	}
	f, err := os.Create(w.MassdnsFile)
	if err != nil {
		return fmt.Errorf("failed to create massdns output: %w", err)
	}
	defer f.Close()
	return store.WriteTo(f)
}

// WriteWildcards persists the wildcard root list
func (w *Writer) WriteWildcards(roots []string) error {
	if w.WildcardsFile == "" {
		return nil
	}
	return writeLines(w.WildcardsFile, dedupeSorted(roots))
}

// WriteWildcardAnswers persists the wildcard answer list
func (w *Writer) WriteWildcardAnswers(answers []string) error {
	if w.WildcardAnswersFile == "" {
		return nil
	}
	return writeLines(w.WildcardAnswersFile, dedupeSorted(answers))
}

func writeLines(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for _, l := range lines {
		fmt.Fprintln(bw, l)
	}
	return bw.Flush()
}

func dedupeSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
