package cmd

import (
	"io"

	"github.com/aquasecurity/vulnpolicy/pkg/audit"
	"github.com/aquasecurity/vulnpolicy/pkg/config"
	"github.com/spf13/cobra"
)

const (
	checkCmdShort = "Run npm audit and check vulnerabilities against the policy"
	checkCmdLong  = `Run npm audit in the project directory and check reported vulnerabilities against the policy

The policy is violated if at least one vulnerability, which is not skipped, is
at least as severe as the configured level. The command exits with code 2 when
the policy is violated.

Settings are read from the policy file, VULNPOLICY_* environment variables and
flags. Flags take precedence over environment variables, which take precedence
over the policy file.
`
)

func NewCheckCmd(deps Dependencies, outWriter io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: checkCmdShort,
		Long:  checkCmdLong,
		Example: `  # Fail if there are high or critical vulnerabilities
  vulnpolicy check --level high

  # Skip the specified advisories and print the report as JSON
  vulnpolicy check --level moderate --skip 1179 --skip 1523 -o json

  # Audit the project in the specified directory
  vulnpolicy check --dir ./web --level low --timeout 2m`,
		Args: cobra.NoArgs,
		RunE: Check(deps, outWriter),
	}
	config.AddFlags(cmd.Flags())
	cmd.Flags().String("dir", "", "Directory of the audited npm project (default current directory)")
	return cmd
}

func Check(deps Dependencies, outWriter io.Writer) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := getSettings(cmd)
		if err != nil {
			return err
		}
		dir, err := cmd.Flags().GetString("dir")
		if err != nil {
			return err
		}
		logger := deps.Logger.WithName("check")
		scanner := audit.NewScanner(deps.Executor, audit.NewConverter(logger), audit.ScannerConfig{
			Binary:  s.config.NpmBinary,
			Dir:     dir,
			Timeout: s.config.AuditTimeout,
		}, logger)
		vulnerabilities, err := scanner.Scan(cmd.Context())
		if err != nil {
			return err
		}
		return writeReport(deps, s, vulnerabilities, outWriter)
	}
}
