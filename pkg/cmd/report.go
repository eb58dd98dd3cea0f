package cmd

import (
	"io"

	"github.com/aquasecurity/vulnpolicy/pkg/config"
	"github.com/aquasecurity/vulnpolicy/pkg/policy"
	"github.com/aquasecurity/vulnpolicy/pkg/report"
	"github.com/spf13/cobra"
)

// settings are resolved before any vulnerabilities are collected so that
// configuration errors are reported without running npm.
type settings struct {
	config config.Config
	policy policy.Config
	writer report.Writer
}

func getSettings(cmd *cobra.Command) (settings, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return settings{}, err
	}
	if err := cfg.ApplyFlags(cmd.Flags()); err != nil {
		return settings{}, err
	}
	policyConfig, err := cfg.GetPolicyConfig()
	if err != nil {
		return settings{}, err
	}
	writer, err := report.NewWriter(cfg.Output)
	if err != nil {
		return settings{}, err
	}
	return settings{config: cfg, policy: policyConfig, writer: writer}, nil
}

// writeReport evaluates vulnerabilities, writes the report and returns
// report.ViolationError if the policy is violated.
func writeReport(deps Dependencies, s settings, vulnerabilities []policy.Vulnerability, outWriter io.Writer) error {
	assessment, err := policy.Assess(vulnerabilities, s.policy)
	if err != nil {
		return err
	}
	r := report.NewReport(assessment, s.policy, deps.Clock, deps.IDGenerator)
	deps.Logger.V(1).Info("Policy evaluated",
		"level", s.policy.Level.String(),
		"skipped", len(vulnerabilities)-len(assessment.Evaluated),
		"violated", r.Violated)
	if r.Violated {
		deps.Logger.V(2).Info("Vulnerabilities above level", r.SummaryValues()...)
	}
	if err := s.writer.Write(outWriter, r); err != nil {
		return err
	}
	return r.Err()
}
