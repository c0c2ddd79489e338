package main

import (
	"github.com/spf13/cobra"

	"github.com/gitrdm/hyperprobcheck/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hyperprobcheck",
	Short: "Probabilistic hyperproperty model checker",
	Long: `hyperprobcheck decides whether a closed probabilistic hyperlogic
formula holds on a finite-state MDP by reducing the question to a
QF_NRA SMT query and discharging it against an external solver.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a project TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging for every encoder phase")

	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newConfigInitCmd())
}

// Execute runs the command tree; main.go maps a non-nil error to a
// non-zero process exit code. Errors are rendered here (rather than by
// Cobra's own usage/error printer, silenced above) so a validation
// failure gets the same colored banner as a solver-reported violation.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logging.Error("%v", err)
		return err
	}
	return nil
}
