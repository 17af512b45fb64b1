// Package runner orchestrates the resolution pipeline: build the
// candidate list, bulk-resolve it, filter wildcard artifacts,
// validate survivors against trusted resolvers, write results. The
// stages run strictly in order; each consumes the fully materialized
// output of the previous one.
package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/slooppe/puredns/internal/config"
	"github.com/slooppe/puredns/internal/debug"
	"github.com/slooppe/puredns/internal/input"
	"github.com/slooppe/puredns/internal/massdns"
	"github.com/slooppe/puredns/internal/output"
	"github.com/slooppe/puredns/internal/storage"
	"github.com/slooppe/puredns/internal/trusted"
	"github.com/slooppe/puredns/internal/wildcard"
)

// Pipeline wires the stages together. Resolver, Detector and
// Validator are swappable so the pipeline runs against in-memory
// fakes in tests.
type Pipeline struct {
	cfg *config.Config

	Resolver  massdns.Resolver
	Detector  wildcard.Detector
	Validator *trusted.Validator
	Writer    *output.Writer

	workDir string
}

// New builds a pipeline from the validated configuration
func New(cfg *config.Config) (*Pipeline, error) {
	workDir, err := os.MkdirTemp("", "puredns-run-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}

	trustedPool, err := trusted.LoadResolvers(cfg.TrustedResolversFile)
	if err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}

	w := output.NewWriter()
	w.DomainsFile = cfg.WriteDomains
	w.MassdnsFile = cfg.WriteMassdns
	w.WildcardsFile = cfg.WriteWildcards
	w.WildcardAnswersFile = cfg.WriteWildcardAnswers

	return &Pipeline{
		cfg:       cfg,
		Resolver:  massdns.NewClient(cfg.MassdnsPath, cfg.ResolversFile, workDir),
		Detector:  wildcard.NewDNSDetector(trustedPool),
		Validator: trusted.New(trustedPool, cfg.TrustedRate),
		Writer:    w,
		workDir:   workDir,
	}, nil
}

// Run executes the pipeline. The work directory is removed on every
// exit path; adapter failures abort before anything is written.
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.cleanup()
	start := time.Now()

	// BUILD
	domains, err := p.buildCandidates()
	if err != nil {
		return err
	}
	p.status("[*] Loaded %d candidates", len(domains))

	// BULK_RESOLVE
	stageStart := debug.LogStageStart("bulk-resolve")
	store, err := p.Resolver.Resolve(ctx, domains)
	if err != nil {
		return fmt.Errorf("bulk resolution failed: %w", err)
	}
	debug.LogStageEnd("bulk-resolve", stageStart)
	found := store.Domains()
	p.status("[*] Bulk pass resolved %d domains (%d records)", len(found), len(store.Records))

	// WILDCARD_DETECT + WILDCARD_FILTER
	det := wildcard.NewDetection()
	if !p.cfg.SkipWildcardFilter && len(found) > 0 {
		stageStart = debug.LogStageStart("wildcard")
		det, err = p.Detector.Detect(ctx, store, domains)
		if err != nil {
			return fmt.Errorf("wildcard detection failed: %w", err)
		}
		found = wildcard.Filter(store, det)
		debug.LogStageEnd("wildcard", stageStart)
		if len(det.Roots) > 0 {
			p.status("[!] %d wildcard roots detected, %d domains remain", len(det.Roots), len(found))
		} else {
			p.status("[*] No wildcards detected")
		}
	}

	// TRUSTED_VALIDATE
	if !p.cfg.SkipValidation && len(found) > 0 {
		stageStart = debug.LogStageStart("validate")
		p.status("[*] Validating %d domains against %d trusted resolvers (%d qps)",
			len(found), len(p.Validator.Resolvers()), p.Validator.Rate())
		found, err = p.Validator.Validate(ctx, found)
		if err != nil {
			return fmt.Errorf("trusted validation failed: %w", err)
		}
		debug.LogStageEnd("validate", stageStart)
		p.status("[*] %d domains survived validation", len(found))
	}

	// WRITE
	if err := p.Writer.WriteDomains(found); err != nil {
		return fmt.Errorf("failed to write domains: %w", err)
	}
	if err := p.Writer.WriteMassdns(store); err != nil {
		return err
	}
	if err := p.Writer.WriteWildcards(det.Roots); err != nil {
		return err
	}
	if err := p.Writer.WriteWildcardAnswers(det.SortedAnswers()); err != nil {
		return err
	}

	if p.cfg.DBPath != "" {
		if err := p.persist(ctx, domains, store, det, found, start); err != nil {
			return err
		}
	}

	p.status("[*] Finished in %s", time.Since(start).Round(time.Millisecond))
	debug.Summary()
	return nil
}

// buildCandidates produces the sanitized candidate list
func (p *Pipeline) buildCandidates() ([]string, error) {
	var domains []string
	switch p.cfg.Mode {
	case config.ModeResolve:
		list, err := input.LoadFile(p.cfg.DomainFile)
		if err != nil {
			return nil, err
		}
		domains = list
	case config.ModeBruteforce:
		words, err := input.LoadFile(p.cfg.Wordlist)
		if err != nil {
			return nil, err
		}
		domains = input.Generate(words, p.cfg.Domain)
	}

	if !p.cfg.SkipSanitize {
		domains = input.Sanitize(domains)
	}
	return domains, nil
}

func (p *Pipeline) persist(ctx context.Context, candidates []string, store *massdns.Store, det *wildcard.Detection, final []string, start time.Time) error {
	db, err := storage.Open(p.cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	target := p.cfg.Domain
	mode := "bruteforce"
	if p.cfg.Mode == config.ModeResolve {
		target = p.cfg.DomainFile
		mode = "resolve"
	}

	run := &storage.Run{
		ID:         storage.GenerateRunID(),
		Target:     target,
		Mode:       mode,
		StartTime:  start,
		EndTime:    time.Now(),
		Candidates: len(candidates),
		Resolved:   len(store.Domains()),
		Wildcards:  len(det.Roots),
		Final:      len(final),
	}
	if err := db.SaveRun(ctx, run, final); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	p.status("[*] Run %s saved to %s", run.ID, p.cfg.DBPath)
	return nil
}

// cleanup removes the per-run work directory. Called on every exit
// path so failed runs leave no temp state behind.
func (p *Pipeline) cleanup() {
	if p.workDir != "" {
		os.RemoveAll(p.workDir)
	}
}

func (p *Pipeline) status(format string, args ...interface{}) {
	if p.cfg.Quiet {
		return
	}
	gray := color.New(color.FgHiBlack)
	gray.Fprintf(os.Stderr, format+"\n", args...)
}
