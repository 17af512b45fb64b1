package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/slooppe/puredns/internal/config"
	"github.com/slooppe/puredns/internal/runner"
)

var bruteforceCmd = &cobra.Command{
	Use:   "bruteforce <wordlist> <domain>",
	Short: "Bruteforce subdomains of a domain with a wordlist",
	Long: `Bruteforce combines every wordlist entry with the base domain as
<entry>.<domain> and resolves the generated candidates.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prepare(); err != nil {
			return err
		}

		cfg.Mode = config.ModeBruteforce
		cfg.Wordlist = args[0]
		cfg.Domain = args[1]
		if err := cfg.Validate(); err != nil {
			return err
		}

		p, err := runner.New(&cfg)
		if err != nil {
			return err
		}
		return p.Run(context.Background())
	},
}
