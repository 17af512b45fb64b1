package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slooppe/puredns/internal/config"
	"github.com/slooppe/puredns/internal/massdns"
	"github.com/slooppe/puredns/internal/output"
	"github.com/slooppe/puredns/internal/trusted"
	"github.com/slooppe/puredns/internal/wildcard"
)

// fakeResolver returns a canned store and records what it was asked
type fakeResolver struct {
	store   *massdns.Store
	err     error
	queried []string
}

func (f *fakeResolver) Resolve(ctx context.Context, domains []string) (*massdns.Store, error) {
	f.queried = domains
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

// fakeDetector returns a canned detection
type fakeDetector struct {
	det    *wildcard.Detection
	err    error
	called bool
}

func (f *fakeDetector) Detect(ctx context.Context, store *massdns.Store, domains []string) (*wildcard.Detection, error) {
	f.called = true
	if f.err != nil {
		return nil, f.err
	}
	return f.det, nil
}

// fakeQuerier marks everything in alive as resolving
type fakeQuerier struct {
	alive map[string]bool
}

func (f *fakeQuerier) Query(ctx context.Context, name, server string) (bool, error) {
	return f.alive[name], nil
}

func writeDomainFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func testPipeline(t *testing.T, cfg *config.Config, r massdns.Resolver, d wildcard.Detector, q trusted.Querier) (*Pipeline, *strings.Builder) {
	t.Helper()
	v := trusted.New([]string{"10.0.0.1:53"}, 1000)
	v.SetQuerier(q)

	var stdout strings.Builder
	w := output.NewWriter()
	w.Stdout = &stdout
	w.DomainsFile = cfg.WriteDomains
	w.MassdnsFile = cfg.WriteMassdns
	w.WildcardsFile = cfg.WriteWildcards
	w.WildcardAnswersFile = cfg.WriteWildcardAnswers

	return &Pipeline{
		cfg:       cfg,
		Resolver:  r,
		Detector:  d,
		Validator: v,
		Writer:    w,
		workDir:   filepath.Join(t.TempDir(), "work"),
	}, &stdout
}

func quietConfig(domainFile string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = config.ModeResolve
	cfg.DomainFile = domainFile
	cfg.Quiet = true
	return cfg
}

func TestPipelineEndToEnd(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com", "b.x.com", "c.x.com")
	cfg := quietConfig(domainFile)

	resolver := &fakeResolver{store: &massdns.Store{Records: []massdns.Record{
		{Name: "a.x.com", Type: "A", Answer: "1.1.1.1"},
		{Name: "b.x.com", Type: "A", Answer: "9.9.9.9"},
		{Name: "c.x.com", Type: "A", Answer: "9.9.9.9"},
	}}}

	det := wildcard.NewDetection()
	det.AddRoot("x.com")
	det.AddAnswer("9.9.9.9")
	detector := &fakeDetector{det: det}

	querier := &fakeQuerier{alive: map[string]bool{"a.x.com": true}}

	p, stdout := testPipeline(t, cfg, resolver, detector, querier)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []string{"a.x.com", "b.x.com", "c.x.com"}, resolver.queried)
	assert.True(t, detector.called)
	assert.Equal(t, "a.x.com\n", stdout.String())
}

func TestPipelineSanitizesCandidates(t *testing.T) {
	domainFile := writeDomainFile(t, "A.X.com", "bad entry!", "b.x.com")
	cfg := quietConfig(domainFile)
	cfg.SkipWildcardFilter = true
	cfg.SkipValidation = true

	resolver := &fakeResolver{store: massdns.NewStore()}
	p, _ := testPipeline(t, cfg, resolver, &fakeDetector{}, &fakeQuerier{})
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []string{"a.x.com", "b.x.com"}, resolver.queried)
}

func TestPipelineSkipWildcardFilter(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com", "b.x.com")
	cfg := quietConfig(domainFile)
	cfg.SkipWildcardFilter = true
	cfg.SkipValidation = true

	resolver := &fakeResolver{store: &massdns.Store{Records: []massdns.Record{
		{Name: "a.x.com", Type: "A", Answer: "9.9.9.9"},
		{Name: "b.x.com", Type: "A", Answer: "9.9.9.9"},
	}}}
	detector := &fakeDetector{}

	p, stdout := testPipeline(t, cfg, resolver, detector, &fakeQuerier{})
	require.NoError(t, p.Run(context.Background()))

	assert.False(t, detector.called, "detector must not run when the stage is skipped")
	assert.Equal(t, "a.x.com\nb.x.com\n", stdout.String())
}

func TestPipelineSkipValidation(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com")
	cfg := quietConfig(domainFile)
	cfg.SkipValidation = true

	resolver := &fakeResolver{store: &massdns.Store{Records: []massdns.Record{
		{Name: "a.x.com", Type: "A", Answer: "1.1.1.1"},
	}}}

	// Querier that validates nothing; since validation is skipped the
	// domain must survive anyway
	p, stdout := testPipeline(t, cfg, resolver, &fakeDetector{det: wildcard.NewDetection()}, &fakeQuerier{})
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, "a.x.com\n", stdout.String())
}

func TestPipelineResolverFailureIsFatal(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com")
	cfg := quietConfig(domainFile)
	cfg.WriteDomains = filepath.Join(t.TempDir(), "out.txt")

	resolver := &fakeResolver{err: errors.New("massdns exited with status 1")}
	p, _ := testPipeline(t, cfg, resolver, &fakeDetector{}, &fakeQuerier{})

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bulk resolution failed")

	// No partial output on adapter failure
	_, statErr := os.Stat(cfg.WriteDomains)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPipelineDetectorFailureIsFatal(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com")
	cfg := quietConfig(domainFile)

	resolver := &fakeResolver{store: &massdns.Store{Records: []massdns.Record{
		{Name: "a.x.com", Type: "A", Answer: "1.1.1.1"},
	}}}
	detector := &fakeDetector{err: errors.New("no resolver answered")}

	p, _ := testPipeline(t, cfg, resolver, detector, &fakeQuerier{})
	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wildcard detection failed")
}

func TestPipelineEmptyResultsAreNotErrors(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com")
	cfg := quietConfig(domainFile)

	resolver := &fakeResolver{store: massdns.NewStore()}
	p, stdout := testPipeline(t, cfg, resolver, &fakeDetector{det: wildcard.NewDetection()}, &fakeQuerier{})

	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, stdout.String())
}

func TestPipelineWritesArtifacts(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com", "b.x.com")
	dir := t.TempDir()

	cfg := quietConfig(domainFile)
	cfg.SkipValidation = true
	cfg.WriteDomains = filepath.Join(dir, "domains.txt")
	cfg.WriteMassdns = filepath.Join(dir, "massdns.txt")
	cfg.WriteWildcards = filepath.Join(dir, "wildcards.txt")
	cfg.WriteWildcardAnswers = filepath.Join(dir, "answers.txt")

	resolver := &fakeResolver{store: &massdns.Store{Records: []massdns.Record{
		{Name: "a.x.com", Type: "A", Answer: "1.1.1.1"},
		{Name: "b.x.com", Type: "A", Answer: "9.9.9.9"},
	}}}
	det := wildcard.NewDetection()
	det.AddRoot("x.com")
	det.AddAnswer("9.9.9.9")

	p, _ := testPipeline(t, cfg, resolver, &fakeDetector{det: det}, &fakeQuerier{})
	require.NoError(t, p.Run(context.Background()))

	domains, err := os.ReadFile(cfg.WriteDomains)
	require.NoError(t, err)
	assert.Equal(t, "a.x.com\n", string(domains))

	raw, err := os.ReadFile(cfg.WriteMassdns)
	require.NoError(t, err)
	assert.Equal(t, "a.x.com. A 1.1.1.1\nb.x.com. A 9.9.9.9\n", string(raw))

	roots, err := os.ReadFile(cfg.WriteWildcards)
	require.NoError(t, err)
	assert.Equal(t, "*.x.com\n", string(roots))

	answers, err := os.ReadFile(cfg.WriteWildcardAnswers)
	require.NoError(t, err)
	assert.Equal(t, "9.9.9.9\n", string(answers))
}

func TestPipelinePersistsRunHistory(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com")
	cfg := quietConfig(domainFile)
	cfg.SkipWildcardFilter = true
	cfg.SkipValidation = true
	cfg.DBPath = filepath.Join(t.TempDir(), "history.db")

	resolver := &fakeResolver{store: &massdns.Store{Records: []massdns.Record{
		{Name: "a.x.com", Type: "A", Answer: "1.1.1.1"},
	}}}

	p, _ := testPipeline(t, cfg, resolver, &fakeDetector{}, &fakeQuerier{})
	require.NoError(t, p.Run(context.Background()))

	_, err := os.Stat(cfg.DBPath)
	assert.NoError(t, err)
}

func TestPipelineCleansUpWorkDir(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com")
	cfg := quietConfig(domainFile)
	cfg.SkipWildcardFilter = true
	cfg.SkipValidation = true

	resolver := &fakeResolver{store: massdns.NewStore()}
	p, _ := testPipeline(t, cfg, resolver, &fakeDetector{}, &fakeQuerier{})
	require.NoError(t, os.MkdirAll(p.workDir, 0755))

	require.NoError(t, p.Run(context.Background()))
	_, err := os.Stat(p.workDir)
	assert.True(t, os.IsNotExist(err), "work directory must be removed after the run")
}

func TestPipelineCleansUpWorkDirOnFailure(t *testing.T) {
	domainFile := writeDomainFile(t, "a.x.com")
	cfg := quietConfig(domainFile)

	resolver := &fakeResolver{err: errors.New("boom")}
	p, _ := testPipeline(t, cfg, resolver, &fakeDetector{}, &fakeQuerier{})
	require.NoError(t, os.MkdirAll(p.workDir, 0755))

	require.Error(t, p.Run(context.Background()))
	_, err := os.Stat(p.workDir)
	assert.True(t, os.IsNotExist(err), "work directory must be removed on error exits too")
}
