package config

import (
	"fmt"
	"os"
)

// Mode selects how the candidate list is built
type Mode int

const (
	// ModeResolve reads fully-formed domain names from a file
	ModeResolve Mode = iota
	// ModeBruteforce combines a wordlist with a base domain
	ModeBruteforce
)

// Config holds all configuration options for puredns
type Config struct {
	// Input configuration
	Mode       Mode
	DomainFile string // resolve mode: one domain per line
	Wordlist   string // bruteforce mode: one word per line
	Domain     string // bruteforce mode: base domain appended to each word

	// Resolver pools
	ResolversFile        string // bulk pool, required
	TrustedResolversFile string // trusted pool, optional (built-in defaults otherwise)

	// Bulk resolver engine
	MassdnsPath string // massdns binary (default: "massdns" from PATH)

	// Stage toggles (default on)
	SkipSanitize       bool
	SkipWildcardFilter bool
	SkipValidation     bool

	// Trusted validation rate in queries/second.
	// 0 means 10 queries/second per trusted resolver.
	TrustedRate int

	// Output destinations; empty means discard
	WriteDomains         string
	WriteMassdns         string // raw resolution records from the bulk pass
	WriteWildcards       string // wildcard root list
	WriteWildcardAnswers string // wildcard answer list

	// Run history database path; empty disables persistence
	DBPath string

	// Output behavior
	Quiet bool
	Debug bool
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		MassdnsPath: "massdns",
	}
}

// Validate checks that all required inputs exist before the pipeline starts
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeResolve:
		if c.DomainFile == "" {
			return fmt.Errorf("a domain list file is required")
		}
		if err := checkFile(c.DomainFile); err != nil {
			return fmt.Errorf("domain list: %w", err)
		}
	case ModeBruteforce:
		if c.Wordlist == "" || c.Domain == "" {
			return fmt.Errorf("a wordlist and a base domain are required")
		}
		if err := checkFile(c.Wordlist); err != nil {
			return fmt.Errorf("wordlist: %w", err)
		}
	}

	if c.ResolversFile == "" {
		return fmt.Errorf("a resolvers file is required (-r)")
	}
	if err := checkFile(c.ResolversFile); err != nil {
		return fmt.Errorf("resolvers: %w", err)
	}

	if c.TrustedResolversFile != "" {
		if err := checkFile(c.TrustedResolversFile); err != nil {
			return fmt.Errorf("trusted resolvers: %w", err)
		}
	}

	if c.TrustedRate < 0 {
		return fmt.Errorf("trusted rate must be positive")
	}
	return nil
}

func checkFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}
