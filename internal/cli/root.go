package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/slooppe/puredns/internal/config"
	"github.com/slooppe/puredns/internal/debug"
	"github.com/slooppe/puredns/internal/version"
)

var (
	cfg            = *config.DefaultConfig()
	configFilePath string

	rootCmd = &cobra.Command{
		Use:   "puredns",
		Short: "Fast domain resolver and subdomain bruteforcer",
		Long: `Puredns - fast domain resolver and subdomain bruteforcing with accurate
wildcard filtering and trusted resolver validation.

Resolves candidates in bulk through massdns, strips wildcard DNS false
positives, then re-checks survivors against trusted resolvers to drop
poisoned answers.`,
	}
)

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVarP(&cfg.ResolversFile, "resolvers", "r", "", "File containing the bulk resolver pool")
	pf.StringVar(&cfg.TrustedResolversFile, "resolvers-trusted", "", "File containing trusted resolvers (default: built-in pool)")
	pf.StringVar(&cfg.MassdnsPath, "bin", "massdns", "Path to the massdns binary")

	pf.BoolVar(&cfg.SkipSanitize, "skip-sanitize", false, "Do not sanitize the candidate list")
	pf.BoolVar(&cfg.SkipWildcardFilter, "skip-wildcard-filter", false, "Do not detect and filter wildcard DNS")
	pf.BoolVar(&cfg.SkipValidation, "skip-validation", false, "Do not validate results against trusted resolvers")
	pf.IntVar(&cfg.TrustedRate, "trusted-rate", 0, "Trusted validation rate in qps (default: 10 per trusted resolver)")

	pf.StringVarP(&cfg.WriteDomains, "write", "w", "", "Write the final domain set to a file")
	pf.StringVar(&cfg.WriteMassdns, "write-massdns", "", "Write the raw massdns records to a file")
	pf.StringVar(&cfg.WriteWildcards, "write-wildcards", "", "Write the wildcard root list to a file")
	pf.StringVar(&cfg.WriteWildcardAnswers, "write-wildcard-answers", "", "Write the wildcard answer list to a file")
	pf.StringVar(&cfg.DBPath, "db", "", "Persist run history to a SQLite database")

	pf.StringVar(&configFilePath, "config", config.DefaultConfigPath(), "Path to the YAML config file")
	pf.BoolVarP(&cfg.Quiet, "quiet", "q", false, "Print only the final domain set")
	pf.BoolVar(&cfg.Debug, "debug", false, "Show adapter timing logs")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(bruteforceCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}

// prepare applies file defaults and shared setup before the pipeline
func prepare() error {
	fc, err := config.LoadFile(configFilePath)
	if err != nil {
		return err
	}
	fc.Apply(&cfg)

	if cfg.Debug {
		debug.Enable()
	}
	if !cfg.Quiet {
		printBanner()
	}
	return nil
}

func printBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	gray := color.New(color.FgHiBlack)

	cyan.Fprint(color.Error, `
                          __
    ____  __  __________ / /___  _____
   / __ \/ / / / ___/ _ \/ __  / __  \/ ___/
  / /_/ / /_/ / /  /  __/ /_/ / / / (__  )
 / .___/\__,_/_/   \___/\__,_/_/ /_/____/
/_/
`)
	gray.Fprintf(color.Error, "  fast domain resolver with wildcard filtering  v%s\n\n", version.Short())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}
