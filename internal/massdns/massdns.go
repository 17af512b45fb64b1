// Package massdns drives the external bulk resolution engine and
// holds the answer store it produces. The engine itself (wire
// protocol, per-query retries, concurrency) is a black box; this
// package only feeds it candidates and parses its output records.
package massdns

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/slooppe/puredns/internal/exec"
)

// Resolver streams candidate names through a bulk resolution engine
// and returns the resulting answer store. Implementations must return
// an error on abnormal engine exit, never a partial store.
type Resolver interface {
	Resolve(ctx context.Context, domains []string) (*Store, error)
}

// Client runs the massdns binary as a child process
type Client struct {
	// Path is the massdns binary (default "massdns" from PATH)
	Path string
	// ResolversFile is the bulk resolver pool, one address per line
	ResolversFile string
	// WorkDir receives the input/output files for one run; the
	// pipeline owns its lifetime
	WorkDir string
	// Timeout bounds one full resolution pass
	Timeout time.Duration
}

// NewClient creates a massdns client writing its work files under workDir
func NewClient(path, resolversFile, workDir string) *Client {
	if path == "" {
		path = "massdns"
	}
	return &Client{
		Path:          path,
		ResolversFile: resolversFile,
		WorkDir:       workDir,
		Timeout:       2 * time.Hour,
	}
}

// Resolve runs one bulk resolution pass over the candidate list
func (c *Client) Resolve(ctx context.Context, domains []string) (*Store, error) {
	if len(domains) == 0 {
		return NewStore(), nil
	}
	if !exec.LookPath(c.Path) {
		return nil, fmt.Errorf("massdns binary not found: %s", c.Path)
	}

	inputFile := filepath.Join(c.WorkDir, "massdns.in")
	outputFile := filepath.Join(c.WorkDir, "massdns.out")

	if err := os.WriteFile(inputFile, []byte(strings.Join(domains, "\n")+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to write massdns input: %w", err)
	}

	// -o S: simple text output, one "<name>. <type> <answer>" per line
	// -t A: address records only
	args := []string{
		"-r", c.ResolversFile,
		"-t", "A",
		"-o", "S",
		"-q",
		"-w", outputFile,
		inputFile,
	}

	r := exec.RunWithContext(ctx, c.Path, args, &exec.Options{Timeout: c.Timeout})
	if r.Error != nil {
		return nil, fmt.Errorf("massdns failed: %w (stderr: %s)", r.Error, strings.TrimSpace(r.Stderr))
	}

	f, err := os.Open(outputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open massdns output: %w", err)
	}
	defer f.Close()

	return ParseStore(f)
}
