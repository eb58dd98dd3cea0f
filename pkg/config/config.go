package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aquasecurity/vulnpolicy/pkg/policy"
	"github.com/caarlos0/env/v6"
	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultFile is the policy file looked up in the working directory
	// when no other file is specified. It's fine if it does not exist.
	DefaultFile = ".vulnpolicy.yaml"
)

const (
	FlagLevel   = "level"
	FlagSkip    = "skip"
	FlagConfig  = "config"
	FlagNpm     = "npm"
	FlagTimeout = "timeout"
	FlagOutput  = "output"
)

// BuildInfo holds build metadata injected at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// Config holds settings of a single vulnpolicy run.
type Config struct {
	Level        string        `env:"VULNPOLICY_LEVEL"`
	Skip         []string      `env:"VULNPOLICY_SKIP" envSeparator:","`
	File         string        `env:"VULNPOLICY_CONFIG" envDefault:".vulnpolicy.yaml"`
	NpmBinary    string        `env:"VULNPOLICY_NPM_BINARY" envDefault:"npm"`
	AuditTimeout time.Duration `env:"VULNPOLICY_AUDIT_TIMEOUT" envDefault:"5m"`
	Output       string        `env:"VULNPOLICY_OUTPUT" envDefault:"text"`
}

// GetConfig returns Config populated from environment variables.
func GetConfig() (Config, error) {
	var config Config
	err := env.Parse(&config)
	return config, err
}

// AddFlags registers command line flags which take precedence over
// environment variables.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(FlagLevel, "", "Lowest severity which violates the policy, one of: info, low, moderate, high, critical")
	flags.StringSlice(FlagSkip, nil, "Advisory ID to exclude from the evaluation, can be repeated")
	flags.String(FlagConfig, "", fmt.Sprintf("Policy file (default %q)", DefaultFile))
	flags.String(FlagNpm, "", "Path of the npm executable (default \"npm\")")
	flags.Duration(FlagTimeout, 0, "Time limit of npm audit (default 5m)")
	flags.StringP(FlagOutput, "o", "", "Output format, one of: text, json, yaml (default \"text\")")
}

// ApplyFlags overrides settings with flags explicitly set by the user.
// Flags which are not registered in the set are ignored.
func (c *Config) ApplyFlags(flags *pflag.FlagSet) error {
	var err error
	if changed(flags, FlagLevel) {
		if c.Level, err = flags.GetString(FlagLevel); err != nil {
			return err
		}
	}
	if changed(flags, FlagSkip) {
		if c.Skip, err = flags.GetStringSlice(FlagSkip); err != nil {
			return err
		}
	}
	if changed(flags, FlagConfig) {
		if c.File, err = flags.GetString(FlagConfig); err != nil {
			return err
		}
	}
	if changed(flags, FlagNpm) {
		if c.NpmBinary, err = flags.GetString(FlagNpm); err != nil {
			return err
		}
	}
	if changed(flags, FlagTimeout) {
		if c.AuditTimeout, err = flags.GetDuration(FlagTimeout); err != nil {
			return err
		}
	}
	if changed(flags, FlagOutput) {
		if c.Output, err = flags.GetString(FlagOutput); err != nil {
			return err
		}
	}
	return nil
}

func changed(flags *pflag.FlagSet, name string) bool {
	flag := flags.Lookup(name)
	return flag != nil && flag.Changed
}

// GetPolicyConfig returns policy.Config built from the policy file. Level
// and Skip, when set, replace the values read from the file.
func (c Config) GetPolicyConfig() (policy.Config, error) {
	values, err := c.readFile()
	if err != nil {
		return policy.Config{}, err
	}
	if c.Level != "" {
		values["level"] = c.Level
	}
	if len(c.Skip) > 0 {
		values["skip"] = c.Skip
	}
	return policy.NewConfigFromValues(values)
}

func (c Config) readFile() (map[string]interface{}, error) {
	values := make(map[string]interface{})
	path := c.File
	if path == "" {
		path = DefaultFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultFile {
			return values, nil
		}
		return nil, fmt.Errorf("reading policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing policy file %s: %w", path, err)
	}
	if values == nil {
		values = make(map[string]interface{})
	}
	return values, nil
}
