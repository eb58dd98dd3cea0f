package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aquasecurity/vulnpolicy/pkg/cmd"
	"github.com/aquasecurity/vulnpolicy/pkg/config"
	"github.com/aquasecurity/vulnpolicy/pkg/report"
	"k8s.io/klog/v2"
)

var (
	// These variables are populated by GoReleaser via ldflags
	version = "dev"
	commit  = "none"
	date    = "unknown"

	buildInfo = config.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}
)

// main is the entrypoint of the vulnpolicy executable command.
func main() {
	klog.InitFlags(nil)

	os.Exit(run())
}

func run() int {
	defer klog.Flush()

	err := cmd.Run(buildInfo, os.Args, os.Stdout, os.Stderr)
	if err == nil {
		return 0
	}
	var violation *report.ViolationError
	if errors.As(err, &violation) {
		return violation.ExitCode()
	}
	_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}
