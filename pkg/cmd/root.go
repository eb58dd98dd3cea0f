package cmd

import (
	"flag"
	"io"

	"github.com/aquasecurity/vulnpolicy/pkg/config"
	"github.com/aquasecurity/vulnpolicy/pkg/ext"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"
	"k8s.io/utils/exec"
)

// Dependencies are collaborators shared by all commands.
type Dependencies struct {
	Executor    exec.Interface
	Clock       ext.Clock
	IDGenerator ext.IDGenerator
	Logger      logr.Logger
}

// NewDependencies returns Dependencies which spawn real processes and log
// with klog.
func NewDependencies() Dependencies {
	return Dependencies{
		Executor:    exec.New(),
		Clock:       ext.NewSystemClock(),
		IDGenerator: ext.NewGoogleUUIDGenerator(),
		Logger:      klog.NewKlogr(),
	}
}

func NewRootCmd(buildInfo config.BuildInfo, deps Dependencies, args []string, outWriter io.Writer, errWriter io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "vulnpolicy",
		Short:         "Fail builds of npm projects with vulnerabilities above a severity level",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.AddCommand(NewVersionCmd(buildInfo, outWriter))
	rootCmd.AddCommand(NewCheckCmd(deps, outWriter))
	rootCmd.AddCommand(NewEvaluateCmd(deps, outWriter))

	rootCmd.SetArgs(args[1:])
	rootCmd.SetOut(outWriter)
	rootCmd.SetErr(errWriter)

	return rootCmd
}

// Run is the entry point of the vulnpolicy CLI. It runs the specified
// command based on the specified args.
func Run(buildInfo config.BuildInfo, args []string, outWriter io.Writer, errWriter io.Writer) error {

	initFlags()

	return NewRootCmd(buildInfo, NewDependencies(), args, outWriter, errWriter).Execute()
}

func initFlags() {
	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	// Hide all klog flags except for -v
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		if f.Name != "v" {
			pflag.Lookup(f.Name).Hidden = true
		}
	})
}
