package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/pmdreview/internal/pmd"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that Java and the PMD launcher are available",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(buildOverrides())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		ok := true

		if err := pmd.CheckDependencies(); err != nil {
			fmt.Fprintf(out, "java:     missing (%v)\n", err)
			ok = false
		} else {
			fmt.Fprintln(out, "java:     ok")
		}

		runner, err := pmd.NewRunner(pmd.Options{InstallPath: cfg.PMDInstallPath, Rulesets: cfg.Rulesets})
		if err != nil {
			fmt.Fprintf(out, "pmd:      %v\n", err)
			ok = false
		} else {
			fmt.Fprintf(out, "pmd:      %s\n", runner.Script())
			fmt.Fprintf(out, "rulesets: %v\n", runner.Rulesets())
		}

		if !ok {
			fmt.Fprintln(os.Stderr, "pmdreview cannot run PMD; fix the problems above.")
			exitCode = ExitRuntimeError
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().StringVar(&flagPMDPath, "pmd", "", "PMD installation directory")
	checkCmd.Flags().StringVar(&flagRulesets, "rulesets", "", "PMD rulesets (comma-separated)")
}
