package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/aquasecurity/vulnpolicy/pkg/audit"
	"github.com/aquasecurity/vulnpolicy/pkg/config"
	"github.com/spf13/cobra"
)

func NewEvaluateCmd(deps Dependencies, outWriter io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [FILE|-]",
		Short: "Check an existing npm audit report against the policy",
		Long: `Check an existing npm audit report against the policy

FILE is a report printed by 'npm audit --json'. The report is read from the
standard input if FILE is '-' or omitted. The command exits with code 2 when
the policy is violated.
`,
		Example: `  # Evaluate a report saved to a file
  npm audit --json > audit.json
  vulnpolicy evaluate audit.json --level high

  # Evaluate a report piped from npm
  npm audit --json | vulnpolicy evaluate --level critical -o yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: Evaluate(deps, outWriter),
	}
	config.AddFlags(cmd.Flags())
	return cmd
}

func Evaluate(deps Dependencies, outWriter io.Writer) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := getSettings(cmd)
		if err != nil {
			return err
		}
		reader := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening npm audit report: %w", err)
			}
			defer func() {
				_ = f.Close()
			}()
			reader = f
		}
		vulnerabilities, err := audit.NewConverter(deps.Logger.WithName("evaluate")).Convert(reader)
		if err != nil {
			return fmt.Errorf("converting npm audit report: %w", err)
		}
		return writeReport(deps, s, vulnerabilities, outWriter)
	}
}
