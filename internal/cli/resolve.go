package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/slooppe/puredns/internal/config"
	"github.com/slooppe/puredns/internal/runner"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <domains-file>",
	Short: "Resolve a list of domains",
	Long: `Resolve reads fully-formed domain names from a file, one per line,
bulk-resolves them and filters the results.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := prepare(); err != nil {
			return err
		}

		cfg.Mode = config.ModeResolve
		cfg.DomainFile = args[0]
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
