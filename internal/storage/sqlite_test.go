package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := &Run{
		ID:         GenerateRunID(),
		Target:     "example.com",
		Mode:       "bruteforce",
		StartTime:  time.Now().Add(-time.Minute),
		EndTime:    time.Now(),
		Candidates: 1000,
		Resolved:   40,
		Wildcards:  2,
		Final:      25,
	}
	domains := []string{"a.example.com", "b.example.com"}
	require.NoError(t, s.SaveRun(ctx, run, domains))

	loaded, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Target, loaded.Target)
	assert.Equal(t, run.Mode, loaded.Mode)
	assert.Equal(t, run.Candidates, loaded.Candidates)
	assert.Equal(t, run.Final, loaded.Final)

	got, err := s.GetDomains(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, domains, got)
}

func TestSaveRunDeduplicatesDomains(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := &Run{ID: GenerateRunID(), Target: "example.com", Mode: "resolve", StartTime: time.Now(), EndTime: time.Now()}
	require.NoError(t, s.SaveRun(ctx, run, []string{"a.example.com", "a.example.com"}))

	got, err := s.GetDomains(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com"}, got)
}

func TestNewDomainsAcrossRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := &Run{ID: GenerateRunID(), Target: "example.com", Mode: "resolve",
		StartTime: time.Now().Add(-time.Hour), EndTime: time.Now().Add(-time.Hour)}
	require.NoError(t, s.SaveRun(ctx, first, []string{"a.example.com", "b.example.com"}))

	second := &Run{ID: GenerateRunID(), Target: "example.com", Mode: "resolve",
		StartTime: time.Now(), EndTime: time.Now()}
	require.NoError(t, s.SaveRun(ctx, second, []string{"a.example.com", "c.example.com"}))

	fresh, err := s.NewDomains(ctx, "example.com", second.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c.example.com"}, fresh)
}

func TestGenerateRunIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRunID()
		assert.Len(t, id, 16)
		assert.False(t, seen[id])
		seen[id] = true
	}
}
